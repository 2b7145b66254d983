package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 65)))
	}))
	defer srv.Close()

	c := NewClient(WithTimeout(time.Second), WithMaxBodyBytes(64))
	_, err := c.Fetch(context.Background(), &RequestOptions{URL: srv.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestFetchAcceptsBodyAtCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "macropulse-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "DFII10", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	c := NewClient(WithTimeout(time.Second), WithMaxBodyBytes(64), WithUserAgent("macropulse-test"))
	body, err := c.Fetch(context.Background(), &RequestOptions{
		URL:         srv.URL,
		QueryParams: map[string][]string{"id": {"DFII10"}},
	})
	require.NoError(t, err)
	assert.Len(t, body, 64)
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(WithTimeout(time.Second)).Fetch(context.Background(), &RequestOptions{URL: srv.URL})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Contains(t, se.Body, "throttled")
}
