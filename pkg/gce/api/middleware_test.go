package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/jwtauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/guardrail-ml/gce/pkg/gce/api"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthPassthroughWithoutSecret(t *testing.T) {
	server := httptest.NewServer(api.Auth("")(okHandler()))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRejectsMissingToken(t *testing.T) {
	server := httptest.NewServer(api.Auth("s3cret")(okHandler()))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthAcceptsSignedToken(t *testing.T) {
	server := httptest.NewServer(api.Auth("s3cret")(okHandler()))
	defer server.Close()

	tokenAuth := jwtauth.New("HS256", []byte("s3cret"), nil)
	_, tokenString, err := tokenAuth.Encode(map[string]interface{}{"sub": "tester"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "BEARER "+tokenString)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	server := httptest.NewServer(api.Auth("s3cret")(okHandler()))
	defer server.Close()

	other := jwtauth.New("HS256", []byte("wrong"), nil)
	_, tokenString, err := other.Encode(map[string]interface{}{"sub": "tester"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "BEARER "+tokenString)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
