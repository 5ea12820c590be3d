package inflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type fakeLocker struct {
	mu    sync.Mutex
	held  map[string]bool
	fails bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (f *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fails {
		return false, assert.AnError
	}

	if f.held[key] {
		return false, nil
	}

	f.held[key] = true

	return true, nil
}

func (f *fakeLocker) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.held, key)

	return nil
}

func serve(t *testing.T, locker Locker, body string, inner http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	handler := New(slog.Default(), locker)(inner)

	req := httptest.NewRequest(http.MethodPost, "/mines/start", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	return rec
}

func TestLeaseAcquiredAndReleased(t *testing.T) {
	locker := newFakeLocker()

	var sawBody string

	rec := serve(t, locker, `{"user_uuid":"u-1","stake":"10.00"}`, func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 256)
		n, _ := r.Body.Read(buf)
		sawBody = string(buf[:n])
		w.WriteHeader(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, sawBody, "u-1", "the body must be restored for the handler")
	assert.Empty(t, locker.held, "the lease must be released after the handler returns")
}

func TestSecondConcurrentRequestRejected(t *testing.T) {
	locker := newFakeLocker()

	// Simulate a request still in flight.
	held, err := locker.Acquire(context.Background(), "inflight:user:u-1", time.Second)
	require.NoError(t, err)
	require.True(t, held)

	called := false

	rec := serve(t, locker, `{"user_uuid":"u-1"}`, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	assert.False(t, called)
	assert.Contains(t, rec.Body.String(), "another request is in flight")

	// A different user is unaffected.
	rec = serve(t, locker, `{"user_uuid":"u-2"}`, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingHandleFallsThrough(t *testing.T) {
	locker := newFakeLocker()

	called := false

	serve(t, locker, `{"stake":"10.00"}`, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	assert.True(t, called)
	assert.Empty(t, locker.held)
}

func TestLockerFailure(t *testing.T) {
	locker := newFakeLocker()
	locker.fails = true

	called := false

	rec := serve(t, locker, `{"user_uuid":"u-1"}`, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	assert.False(t, called)
	assert.Contains(t, rec.Body.String(), "failed to acquire request lease")
}
