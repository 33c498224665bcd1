package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doResend(t *testing.T, env *testEnv, body string) *httptest.ResponseRecorder {
	t.Helper()

	h := NewAccessHandler(env.access)
	r := httptest.NewRequest(http.MethodPost, "/access/resend", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Resend(w, r)
	return w
}

func TestAccessResendGenericResponse(t *testing.T) {
	env := newTestEnv(t)
	list := env.createPublishedList(t)
	env.completePurchase(t, list, "buyer@example.com")

	withPurchase := doResend(t, env, `{"email":"buyer@example.com","list_slug":"`+list.Slug+`"}`)
	withoutPurchase := doResend(t, env, `{"email":"stranger@example.com","list_slug":"`+list.Slug+`"}`)

	// the endpoint answers identically either way, no buyer enumeration
	assert.Equal(t, http.StatusOK, withPurchase.Code)
	assert.Equal(t, http.StatusOK, withoutPurchase.Code)
	assert.Equal(t, withPurchase.Body.String(), withoutPurchase.Body.String())

	// but only the real buyer got an email
	assert.Len(t, env.mailer.accessTokens, 1)
}

func TestAccessShow(t *testing.T) {
	env := newTestEnv(t)
	list := env.createPublishedList(t)
	env.completePurchase(t, list, "buyer@example.com")

	require.Equal(t, http.StatusOK, doResend(t, env, `{"email":"buyer@example.com","list_slug":"`+list.Slug+`"}`).Code)
	require.NotEmpty(t, env.mailer.accessTokens)
	token := env.mailer.accessTokens[0]

	h := NewAccessHandler(env.access)
	r := httptest.NewRequest(http.MethodGet, "/access/"+token, nil)
	r.SetPathValue("token", token)
	w := httptest.NewRecorder()
	h.Show(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), list.MapsListURL)

	// unlike unlock links, access links can be opened more than once
	w2 := httptest.NewRecorder()
	h.Show(w2, r)
	assert.Equal(t, http.StatusOK, w2.Code)
}

func TestAccessShowInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	h := NewAccessHandler(env.access)
	r := httptest.NewRequest(http.MethodGet, "/access/garbage", nil)
	r.SetPathValue("token", "garbage")
	w := httptest.NewRecorder()
	h.Show(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
