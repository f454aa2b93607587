package identity

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumicare/lumi/internal/platform/apperr"
	"github.com/lumicare/lumi/internal/platform/auth"
	"github.com/lumicare/lumi/pkg/caldate"
)

var testTokens = auth.NewTokenManager([]byte("identity-test-key"), "lumi-test", time.Hour)

func newTestService() *Service {
	return NewService(NewUserRepoMemory(), testTokens, auth.FixedCodeVerifier{Code: "1234"}, nil, zerolog.Nop())
}

func sampleProfile(phone string) Profile {
	addr := "12 Lake Road"
	return Profile{
		Phone:      phone,
		Fullname:   "Asha Rao",
		DOB:        caldate.New(1948, 5, 17),
		BloodGroup: "b+",
		Address:    &addr,
	}
}

func subjectOf(t *testing.T, token string) int64 {
	t.Helper()
	claims, err := testTokens.Parse(token)
	require.NoError(t, err)
	uid, err := claims.UserID()
	require.NoError(t, err)
	return uid
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u, token, err := svc.Register(ctx, sampleProfile("5550001"))
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "5550001", u.Phone)
	assert.Equal(t, "B+", u.BloodGroup)
	assert.Equal(t, u.ID, subjectOf(t, token))

	exists, err := svc.CheckExists(ctx, "5550001")
	require.NoError(t, err)
	assert.True(t, exists)

	loginToken, err := svc.Login(ctx, "5550001", "1234")
	require.NoError(t, err)
	assert.Equal(t, u.ID, subjectOf(t, loginToken))
}

func TestService_PaddedPhoneIsOneIdentity(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	const padded = " 5550001 "

	u, _, err := svc.Register(ctx, sampleProfile(padded))
	require.NoError(t, err)
	assert.Equal(t, "5550001", u.Phone)

	for _, phone := range []string{padded, "5550001", "\t5550001"} {
		exists, err := svc.CheckExists(ctx, phone)
		require.NoError(t, err)
		assert.True(t, exists, "CheckExists(%q)", phone)

		token, err := svc.Login(ctx, phone, "1234")
		require.NoError(t, err, "Login(%q)", phone)
		assert.Equal(t, u.ID, subjectOf(t, token))
	}

	_, _, err = svc.Register(ctx, sampleProfile(padded))
	assert.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)

	_, err = svc.CheckExists(ctx, "   ")
	assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
}

func TestService_RegisterDuplicatePhone(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, sampleProfile("5550002"))
	require.NoError(t, err)
	_, _, err = svc.Register(ctx, sampleProfile("5550002"))
	assert.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)
}

func TestService_RegisterConcurrentSamePhone(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Register(ctx, sampleProfile("5550099"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.True(t, apperr.Is(err, apperr.KindConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, created, "exactly one registration must win")
}

func TestService_RegisterValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(p *Profile)
	}{
		{"missing phone", func(p *Profile) { p.Phone = "" }},
		{"missing name", func(p *Profile) { p.Fullname = "  " }},
		{"missing dob", func(p *Profile) { p.DOB = caldate.Date{} }},
		{"future dob", func(p *Profile) { p.DOB = caldate.Today().AddDays(2) }},
		{"missing blood group", func(p *Profile) { p.BloodGroup = "" }},
		{"phone too long", func(p *Profile) { p.Phone = strings.Repeat("5", maxPhoneLen+1) }},
		{"name too long", func(p *Profile) { p.Fullname = strings.Repeat("a", maxNameLen+1) }},
		{"blood group too long", func(p *Profile) { p.BloodGroup = "ABCDEFGHI" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sampleProfile("5550003")
			tt.mutate(&p)
			_, _, err := svc.Register(ctx, p)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}
}

func TestService_LoginChecksOTPFirst(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	// Unknown phone with a bad code must not reveal registration state.
	_, err := svc.Login(ctx, "5559999", "0000")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized), "got %v", err)
	_, err = svc.Login(ctx, "5559999", "1234")
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
}

func TestService_UpdateProfileKeepsPhone(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u, _, err := svc.Register(ctx, sampleProfile("5550004"))
	require.NoError(t, err)

	update := sampleProfile("5550000")
	update.Fullname = "Asha R."
	update.Address = nil
	updated, err := svc.UpdateProfile(ctx, u.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "5550004", updated.Phone, "phone must not change")
	assert.Equal(t, "Asha R.", updated.Fullname)
	assert.Nil(t, updated.Address)

	me, err := svc.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha R.", me.Fullname)

	update.BloodGroup = strings.Repeat("O", maxBloodGroupLen+1)
	_, err = svc.UpdateProfile(ctx, u.ID, update)
	assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
}

func TestService_LogoutRevokesOnlyThatToken(t *testing.T) {
	tokens := auth.NewTokenManager([]byte("identity-test-key"), "lumi-test", time.Hour)
	svc := NewService(NewUserRepoMemory(), tokens, auth.FixedCodeVerifier{Code: "1234"}, nil, zerolog.Nop())
	ctx := context.Background()

	_, first, err := svc.Register(ctx, sampleProfile("5550005"))
	require.NoError(t, err)
	second, err := svc.Login(ctx, "5550005", "1234")
	require.NoError(t, err)

	claims, err := tokens.Parse(first)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims))

	_, err = tokens.Parse(first)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)
	_, err = tokens.Parse(second)
	assert.NoError(t, err, "the other session must stay valid")

	err = svc.Logout(ctx, nil)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized), "got %v", err)
}
