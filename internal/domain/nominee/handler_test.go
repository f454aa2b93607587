package nominee

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumicare/lumi/internal/platform/auth"
)

func newContext(e *echo.Echo, method, target, body string, uid int64) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if uid != 0 {
		req = req.WithContext(auth.WithUserID(req.Context(), uid))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func TestHandler_CreateListDelete(t *testing.T) {
	h := NewHandler(newTestService())
	e := echo.New()

	c, rec := newContext(e, http.MethodPost, "/nominees", `{"name":"Meera","relationship":"daughter","phone":"5551000"}`, 7)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	var created Nominee
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(7), created.UserID)

	c, rec = newContext(e, http.MethodGet, "/nominees?limit=10", "", 7)
	require.NoError(t, h.List(c))
	var page struct {
		Data  []Nominee `json:"data"`
		Total int       `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Meera", page.Data[0].Name)

	id := strconv.FormatInt(created.ID, 10)

	c, _ = newContext(e, http.MethodDelete, "/nominees/"+id, "", 8)
	c.SetParamNames("id")
	c.SetParamValues(id)
	assert.Equal(t, http.StatusNotFound, httpCode(t, h.Delete(c)), "another user's nominee")

	c, rec = newContext(e, http.MethodDelete, "/nominees/"+id, "", 7)
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_CreateTooLong(t *testing.T) {
	h := NewHandler(newTestService())
	body := `{"name":"Meera","relationship":"` + strings.Repeat("r", 65) + `","phone":"5551000"}`
	c, _ := newContext(echo.New(), http.MethodPost, "/nominees", body, 7)
	assert.Equal(t, http.StatusBadRequest, httpCode(t, h.Create(c)))
}

func TestHandler_DeleteBadID(t *testing.T) {
	h := NewHandler(newTestService())
	c, _ := newContext(echo.New(), http.MethodDelete, "/nominees/abc", "", 7)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	assert.Equal(t, http.StatusBadRequest, httpCode(t, h.Delete(c)))
}
