package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivc-chiapas/folios-console/pkg/config"
	"github.com/ivc-chiapas/folios-console/pkg/middleware/requestid"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
	codes []int
}

func (r *recordingObserver) ObserveUpstream(operation string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, operation)
	r.codes = append(r.codes, status)
}

func TestGetSendsCredentialQueryAndRequestID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/students/search", r.URL.Path)
		assert.Equal(t, "Primaria", r.URL.Query().Get("nivel_educativo"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "req-9", r.Header.Get(requestid.Header))
		_, _ = w.Write([]byte(`[{"id":1,"nombre":"Ana"}]`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client := New(config.UpstreamConfig{BaseURL: srv.URL + "/api/", Timeout: time.Second}, WithObserver(obs))

	var out []map[string]interface{}
	ctx := requestid.WithValue(context.Background(), "req-9")
	err := client.Get(ctx, "students.search", "tok", "/students/search", url.Values{"nivel_educativo": {"Primaria"}}, &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Ana", out[0]["nombre"])
	assert.Equal(t, []string{"students.search"}, obs.calls)
	assert.Equal(t, []int{http.StatusOK}, obs.codes)
}

func TestSendEncodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "admin", body["username"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"token":"abc"}`))
	}))
	defer srv.Close()

	client := New(config.UpstreamConfig{BaseURL: srv.URL})
	var out struct {
		Token string `json:"token"`
	}
	err := client.Send(context.Background(), "users.login", http.MethodPost, "", "users/login", map[string]string{"username": "admin"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "abc", out.Token)
}

func TestErrorStatusIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad credentials"}`))
	}))
	defer srv.Close()

	client := New(config.UpstreamConfig{BaseURL: srv.URL})
	err := client.Send(context.Background(), "users.login", http.MethodPost, "", "/users/login", map[string]string{}, nil)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.False(t, IsStatus(err, http.StatusInternalServerError))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Body, "bad credentials")
}

func TestEmptyBodyAndTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	client := New(config.UpstreamConfig{BaseURL: srv.URL})
	var out []int
	require.NoError(t, client.Get(context.Background(), "x", "", "/x", nil, &out))
	assert.Nil(t, out)

	srv.Close()
	err := client.Get(context.Background(), "x", "", "/x", nil, &out)
	require.Error(t, err)
	assert.False(t, IsStatus(err, http.StatusOK))
}
