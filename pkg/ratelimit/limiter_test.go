package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func req(remote, xff string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/rate", nil)
	r.RemoteAddr = remote
	if xff != "" {
		r.Header.Set("X-Forwarded-For", xff)
	}
	return r
}

func TestBurstThenDeny(t *testing.T) {
	l := New(60, 2)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow(req("10.0.0.1:1234", "")))
	assert.True(t, l.Allow(req("10.0.0.1:1234", "")))
	assert.False(t, l.Allow(req("10.0.0.1:5555", "")))
	// other clients have their own bucket
	assert.True(t, l.Allow(req("10.0.0.2:1234", "")))

	now = now.Add(time.Second)
	assert.True(t, l.Allow(req("10.0.0.1:1234", "")))
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "1.2.3.4", clientIP(req("10.0.0.1:80", " 1.2.3.4 , 5.6.7.8")))
	assert.Equal(t, "10.0.0.1", clientIP(req("10.0.0.1:80", "")))
	assert.Equal(t, "pipe", clientIP(req("pipe", "")))
}

func TestPrune(t *testing.T) {
	l := New(60, 1)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }
	l.Allow(req("10.0.0.1:1", ""))
	now = now.Add(time.Minute)
	l.Allow(req("10.0.0.2:1", ""))
	now = now.Add(30 * time.Second)

	assert.Equal(t, 1, l.Prune(time.Minute))
	assert.Len(t, l.visitors, 1)
}
