package httputil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scimcow/scimcow/pkg/observability"
)

func testLogger() (*observability.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return observability.NewLogger(observability.InfoLevel, &buf), &buf
}

func TestLoggingMiddleware(t *testing.T) {
	logger, buf := testLogger()

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/Users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	out := buf.String()
	assert.Contains(t, out, `"method":"GET"`)
	assert.Contains(t, out, `"path":"/Users"`)
	assert.Contains(t, out, `"status":418`)
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, buf := testLogger()

	handler := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest("GET", "/Users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
	assert.Contains(t, buf.String(), "PANIC in handler")
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("generates id when absent", func(t *testing.T) {
		var seen string
		handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = observability.GetRequestID(r.Context())
		}))

		req := httptest.NewRequest("GET", "/Users", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	})

	t.Run("reuses client id", func(t *testing.T) {
		var seen string
		handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = observability.GetRequestID(r.Context())
		}))

		req := httptest.NewRequest("GET", "/Users", nil)
		req.Header.Set("X-Request-ID", "client-supplied")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "client-supplied", seen)
		assert.Equal(t, "client-supplied", rec.Header().Get("X-Request-ID"))
	})
}

func TestContentTypeMiddleware(t *testing.T) {
	handler := ContentTypeMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"json accepted", "POST", "application/json", http.StatusOK},
		{"scim json accepted", "POST", "application/scim+json", http.StatusOK},
		{"scim json with charset accepted", "PUT", "application/scim+json; charset=utf-8", http.StatusOK},
		{"empty accepted", "POST", "", http.StatusOK},
		{"xml rejected", "POST", "application/xml", http.StatusBadRequest},
		{"get ignores content type", "GET", "text/html", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/Users", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestMaxBytesMiddleware(t *testing.T) {
	handler := MaxBytesMiddleware(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			WriteBadRequest(w, "request body too large")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("small body passes", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/Users", strings.NewReader("tiny"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/Users", strings.NewReader(strings.Repeat("x", 100)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestChain(t *testing.T) {
	var order []string

	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(mw("first"), mw("second"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, []string{"first", "second", "handler"}, order)
}
