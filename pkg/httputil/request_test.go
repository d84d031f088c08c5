package httputil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expectError bool
	}{
		{
			name:        "valid JSON",
			body:        `{"name": "test"}`,
			expectError: false,
		},
		{
			name:        "invalid JSON",
			body:        `{invalid}`,
			expectError: true,
		},
		{
			name:        "empty body",
			body:        ``,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/test", bytes.NewBufferString(tt.body))
			var dest map[string]string

			err := ParseJSON(req, &dest)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "test", dest["name"])
			}
		})
	}
}

func TestParsePathString(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/Users/alice@example.com", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "alice@example.com"})

		val, err := ParsePathString(req, "id")

		assert.NoError(t, err)
		assert.Equal(t, "alice@example.com", val)
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/Users/", nil)

		_, err := ParsePathString(req, "id")

		assert.Error(t, err)
	})
}

func TestGetPathVars(t *testing.T) {
	req := httptest.NewRequest("GET", "/Users/alice@example.com", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "alice@example.com"})

	vars := GetPathVars(req)

	assert.Equal(t, "alice@example.com", vars["id"])
}

func TestParseQueryInt(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		key         string
		defaultVal  int
		expected    int
		expectError bool
	}{
		{
			name:       "present",
			url:        "/Users?count=25",
			key:        "count",
			defaultVal: 100,
			expected:   25,
		},
		{
			name:       "missing uses default",
			url:        "/Users",
			key:        "count",
			defaultVal: 100,
			expected:   100,
		},
		{
			name:        "not an integer",
			url:         "/Users?count=abc",
			key:         "count",
			defaultVal:  100,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.url, nil)

			val, err := ParseQueryInt(req, tt.key, tt.defaultVal)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, val)
			}
		})
	}
}

func TestParseQueryString(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		req := httptest.NewRequest("GET", `/Users?filter=userName+eq+%22alice%22`, nil)

		val := ParseQueryString(req, "filter", "")
		assert.Equal(t, `userName eq "alice"`, val)
	})

	t.Run("missing uses default", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/Users", nil)

		val := ParseQueryString(req, "filter", "none")
		assert.Equal(t, "none", val)
	})
}
