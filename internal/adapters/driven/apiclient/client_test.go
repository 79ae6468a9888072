package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/echo", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["say"]})
	}))
	defer srv.Close()

	c := New(Config{
		Provider: "test",
		BaseURL:  srv.URL + "/v1/",
		Header:   http.Header{"Authorization": {"Bearer sk-test"}},
	})

	var out struct{ Echo string }
	require.NoError(t, c.PostJSON(context.Background(), "/echo", map[string]string{"say": "hi"}, &out))
	assert.Equal(t, "hi", out.Echo)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"openai shape", http.StatusBadRequest, `{"error":{"message":"bad input","type":"invalid_request_error"}}`, "bad input"},
		{"ollama shape", http.StatusNotFound, `{"error":"model \"x\" not found"}`, `model "x" not found`},
		{"plain text", http.StatusBadGateway, "upstream down\n", "upstream down"},
		{"empty body", http.StatusInternalServerError, "", "empty response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := New(Config{Provider: "test", BaseURL: srv.URL}).PostJSON(context.Background(), "/", struct{}{}, nil)

			var se *StatusError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.wantMsg, se.Message)
			assert.True(t, strings.HasPrefix(err.Error(), "test: status "))
		})
	}
}

func TestClient_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	limiter := ratelimit.New(ratelimit.Config{RequestsPerSecond: 100, BurstSize: 10})
	c := New(Config{Provider: "test", BaseURL: srv.URL, Limiter: limiter})

	err := c.Get(context.Background(), "/")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.False(t, limiter.Allow(), "limiter should back off after a 429")
}

func TestClient_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	var out struct{}
	err := New(Config{Provider: "test", BaseURL: srv.URL}).PostJSON(context.Background(), "/", struct{}{}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	err := New(Config{Provider: "test", BaseURL: srv.URL, Timeout: 20 * time.Millisecond}).Get(context.Background(), "/")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "test: "))
}

func TestErrorMessage_Truncates(t *testing.T) {
	msg := errorMessage([]byte(strings.Repeat("x", maxErrorBody+10)))
	assert.Len(t, msg, maxErrorBody+3)
}

func TestFloat32s(t *testing.T) {
	assert.Equal(t, []float32{0.5, -1, 2}, Float32s([]float64{0.5, -1, 2}))
	assert.Empty(t, Float32s(nil))
}
