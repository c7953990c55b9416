package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Message string `json:"message"`
	Limit   int    `form:"limit"`
	Debug   bool   `form:"debug"`
}

func TestParseJSONAndQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/chat?limit=5&debug=true", strings.NewReader(`{"message":"hi"}`))
	r.Header.Set("Content-Type", "application/json")

	var s sample
	require.NoError(t, Parse(r, &s))
	assert.Equal(t, sample{Message: "hi", Limit: 5, Debug: true}, s)
}

func TestParseEmptyBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/web-agent", nil)
	var s sample
	require.NoError(t, Parse(r, &s))
	assert.Equal(t, sample{}, s)
}

func TestParseMalformedJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":`))
	var s sample
	assert.Error(t, Parse(r, &s))
}

func TestParseIgnoresBadQueryValues(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/agent-history?limit=ten", nil)
	var s sample
	require.NoError(t, Parse(r, &s))
	assert.Zero(t, s.Limit)
}

func TestErrorWriters(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, errors.New("bad input"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"bad input"}`, w.Body.String())

	w = httptest.NewRecorder()
	InternalError(w, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())

	w = httptest.NewRecorder()
	WriteJSON(w, http.StatusAccepted, map[string]string{"response": "ok"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
}
