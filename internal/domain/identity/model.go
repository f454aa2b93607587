package identity

import (
	"strings"
	"time"

	"github.com/lumicare/lumi/internal/platform/apperr"
	"github.com/lumicare/lumi/pkg/caldate"
)

// User maps to the app_user table. Phone is the login identity and never
// changes after registration.
type User struct {
	ID         int64        `db:"id" json:"id"`
	Phone      string       `db:"phone" json:"phone"`
	Fullname   string       `db:"fullname" json:"fullname"`
	DOB        caldate.Date `db:"dob" json:"dob"`
	BloodGroup string       `db:"blood_group" json:"blood_group"`
	Address    *string      `db:"address" json:"address,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}

// Column widths in app_user.
const (
	maxPhoneLen      = 32
	maxNameLen       = 255
	maxBloodGroupLen = 8
)

// normalizePhone is applied to every phone before it is stored or looked up.
func normalizePhone(phone string) string {
	return strings.TrimSpace(phone)
}

// Profile is the registration and profile-update payload.
type Profile struct {
	Phone      string       `json:"phone"`
	Fullname   string       `json:"fullname"`
	DOB        caldate.Date `json:"dob"`
	BloodGroup string       `json:"blood_group"`
	Address    *string      `json:"address,omitempty"`
}

func (p *Profile) normalize() {
	p.Phone = normalizePhone(p.Phone)
	p.Fullname = strings.TrimSpace(p.Fullname)
	p.BloodGroup = strings.ToUpper(strings.TrimSpace(p.BloodGroup))
	if p.Address != nil {
		a := strings.TrimSpace(*p.Address)
		if a == "" {
			p.Address = nil
		} else {
			p.Address = &a
		}
	}
}

// validate checks the fields every profile write needs. Phone is checked
// separately since updates ignore it.
func (p *Profile) validate(now time.Time) error {
	if p.Fullname == "" {
		return apperr.Validation("fullname is required")
	}
	if p.DOB.IsZero() {
		return apperr.Validation("dob is required")
	}
	if p.DOB.After(caldate.Of(now)) {
		return apperr.Validation("dob cannot be in the future")
	}
	if p.BloodGroup == "" {
		return apperr.Validation("blood_group is required")
	}
	if err := apperr.MaxLen("fullname", p.Fullname, maxNameLen); err != nil {
		return err
	}
	return apperr.MaxLen("blood_group", p.BloodGroup, maxBloodGroupLen)
}

func (p *Profile) toUser() *User {
	return &User{
		Phone:      p.Phone,
		Fullname:   p.Fullname,
		DOB:        p.DOB,
		BloodGroup: p.BloodGroup,
		Address:    p.Address,
	}
}

// TokenResponse is returned by login and registration.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	IsRegistered bool   `json:"is_registered"`
}

func bearer(token string) TokenResponse {
	return TokenResponse{AccessToken: token, TokenType: "bearer", IsRegistered: true}
}
