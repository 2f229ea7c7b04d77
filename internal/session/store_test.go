package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alexivanou/forecast-widget/internal/model"
	"github.com/alexivanou/forecast-widget/internal/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	mu    sync.Mutex
	calls []string
}

func (f *stubFetcher) Forecast(_ context.Context, location string) (*model.ForecastResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, location)
	f.mu.Unlock()
	return &model.ForecastResponse{Location: model.Location{Name: location}}, nil
}

func newTestStore(ttl time.Duration) (*Store, *stubFetcher) {
	fetcher := &stubFetcher{}
	store := NewStore(func() *widget.ViewModel {
		return widget.New(fetcher, widget.WithDefaultLocation("Pune"))
	}, ttl, nil, nil)
	return store, fetcher
}

func waitSettled(t *testing.T, vm *widget.ViewModel) widget.State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	st, err := vm.Wait(ctx)
	require.NoError(t, err)
	return st
}

func TestStore_AcquireMountsWithDefault(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	defer store.UnmountAll()

	sess, created := store.Acquire("")
	require.NotEmpty(t, sess.ID)
	assert.True(t, created)
	assert.True(t, sess.IsOnline())

	vm := sess.Widget()
	require.NotNil(t, vm)
	st := waitSettled(t, vm)
	assert.Equal(t, widget.PhaseSucceeded, st.Phase)
	assert.Equal(t, "Pune", st.Query)

	again, created := store.Acquire(sess.ID)
	assert.Same(t, sess, again)
	assert.Same(t, vm, again.Widget())
	assert.False(t, created)
	assert.Equal(t, 1, store.Len())
}

func TestStore_UnknownIDGetsNewSession(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	defer store.UnmountAll()

	sess, created := store.Acquire("not-a-session")
	assert.True(t, created)
	assert.NotEqual(t, "not-a-session", sess.ID)
}

func TestStore_Unmount(t *testing.T) {
	store, _ := newTestStore(time.Minute)

	sess, _ := store.Acquire("")
	vm := sess.Widget()
	assert.True(t, store.Unmount(sess.ID))
	assert.False(t, store.Unmount(sess.ID))
	assert.Equal(t, widget.PhaseIdle, vm.State().Phase)
	assert.Nil(t, sess.Widget(), "closed sessions do not remount")

	_, ok := store.Lookup(sess.ID)
	assert.False(t, ok)
}

func TestStore_Sweep(t *testing.T) {
	store, _ := newTestStore(10 * time.Minute)
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	stale, _ := store.Acquire("")
	now = now.Add(8 * time.Minute)
	fresh, _ := store.Acquire("")
	now = now.Add(5 * time.Minute)

	assert.Equal(t, 1, store.Sweep())
	_, ok := store.Lookup(stale.ID)
	assert.False(t, ok)
	_, ok = store.Lookup(fresh.ID)
	assert.True(t, ok)

	store.UnmountAll()
}

func TestStore_SweepDisabled(t *testing.T) {
	store, _ := newTestStore(0)
	defer store.UnmountAll()
	store.Acquire("")

	assert.Equal(t, 0, store.Sweep())
	assert.Equal(t, 1, store.Len())
}

func TestSession_OfflineUnmountsOnlyThatSession(t *testing.T) {
	store, fetcher := newTestStore(time.Minute)
	defer store.UnmountAll()

	a, _ := store.Acquire("")
	b, _ := store.Acquire("")
	vmA := a.Widget()
	waitSettled(t, vmA)
	waitSettled(t, b.Widget())

	b.Report(false)
	assert.False(t, b.IsOnline())
	assert.False(t, b.Mounted())
	assert.Nil(t, b.Widget())

	assert.True(t, a.IsOnline())
	assert.True(t, a.Mounted())
	assert.Same(t, vmA, a.Widget())
	assert.Equal(t, widget.PhaseSucceeded, vmA.State().Phase)

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 1, store.Online())

	b.Report(true)
	vmB := b.Widget()
	require.NotNil(t, vmB)
	st := waitSettled(t, vmB)
	assert.Equal(t, "Pune", st.Query, "remounts with the default location")

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	assert.Len(t, fetcher.calls, 3)
}

func TestStore_RunUnmountsOnCancel(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	store.Acquire("")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()
	<-done

	assert.Equal(t, 0, store.Len())
}
