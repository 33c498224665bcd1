package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doUnlock(t *testing.T, env *testEnv, token string) *httptest.ResponseRecorder {
	t.Helper()

	h := NewUnlockHandler(env.unlock)
	r := httptest.NewRequest(http.MethodGet, "/unlock/"+token, nil)
	r.SetPathValue("token", token)
	w := httptest.NewRecorder()
	h.Unlock(w, r)
	return w
}

func TestUnlockHandlerSuccess(t *testing.T) {
	env := newTestEnv(t)
	list := env.createPublishedList(t)
	token := env.completePurchase(t, list, "buyer@example.com")

	w := doUnlock(t, env, token)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, list.MapsListURL, body["maps_list_url"])
	assert.Equal(t, list.Title, body["list_title"])
}

func TestUnlockHandlerGenericDenial(t *testing.T) {
	env := newTestEnv(t)
	list := env.createPublishedList(t)
	token := env.completePurchase(t, list, "buyer@example.com")

	// spend the token, then compare denial bodies across failure modes
	require.Equal(t, http.StatusOK, doUnlock(t, env, token).Code)

	replayed := doUnlock(t, env, token)
	garbage := doUnlock(t, env, "not-a-token")

	assert.Equal(t, http.StatusNotFound, replayed.Code)
	assert.Equal(t, http.StatusNotFound, garbage.Code)
	// identical responses, the caller cannot tell which check failed
	assert.Equal(t, replayed.Body.String(), garbage.Body.String())
	assert.NotContains(t, replayed.Body.String(), "used")
	assert.NotContains(t, replayed.Body.String(), list.MapsListURL)
}
