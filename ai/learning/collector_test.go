package learning

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hrygo/contextsense/ai/history"
	"github.com/hrygo/contextsense/ai/lexical"
	"github.com/hrygo/contextsense/ai/types"
	"github.com/hrygo/contextsense/internal/profile"
	"github.com/hrygo/contextsense/store"
	"github.com/hrygo/contextsense/store/db/sqlite"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCollector_DeliversAndDrains(t *testing.T) {
	store := history.NewInMemoryStore()
	c := NewCollector(store, Config{})

	for i := 0; i < 10; i++ {
		assert.True(t, c.Emit(Signal{
			Source:    SourceMessage,
			ContactID: "ana",
			Record:    &types.InteractionRecord{IsPolite: true},
		}))
	}
	assert.True(t, c.Emit(Signal{Source: SourceCall, ContactID: "ana", DisplayName: "Ana 💕"}))
	c.Close()

	records, err := store.GetInteractionHistory(context.Background(), "ana")
	require.NoError(t, err)
	assert.Len(t, records, 10, "call signals carry no record")
	assert.False(t, records[0].Timestamp.IsZero())

	name, ok := store.DisplayName("ana")
	assert.True(t, ok)
	assert.Equal(t, "Ana 💕", name)
}

func TestCollector_MessageOnlyContactIsListed(t *testing.T) {
	p := &profile.Profile{Driver: profile.DriverSQLite, DSN: filepath.Join(t.TempDir(), "learn.db")}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	st := store.New(driver, p)
	defer st.Close()
	require.NoError(t, st.Migrate(context.Background()))
	sqlStore := history.NewSQLStore(st, 0)

	c := NewCollector(sqlStore, Config{})
	for i := 0; i < 3; i++ {
		assert.True(t, c.Emit(Signal{
			Source:    SourceMessage,
			ContactID: "+34600111222",
			Record:    &types.InteractionRecord{IsInformal: true},
			Timestamp: time.Now(),
		}))
	}
	c.Close()

	entry, err := sqlStore.Lookup(context.Background(), "+34600111222")
	require.NoError(t, err)
	assert.Empty(t, entry.DisplayName)
	assert.Equal(t, 3, entry.RecentInteractions)
}

func TestCollector_EmitAfterClose(t *testing.T) {
	c := NewCollector(history.NewInMemoryStore(), Config{})
	c.Close()
	c.Close()
	assert.False(t, c.Emit(Signal{ContactID: "ana"}))
}

func TestCollector_RejectsAnonymousSignal(t *testing.T) {
	c := NewCollector(history.NewInMemoryStore(), Config{})
	defer c.Close()
	assert.False(t, c.Emit(Signal{Source: SourceProcess}))
}

type gatedWriter struct {
	gate chan struct{}
	mu   sync.Mutex
	n    int
}

func (w *gatedWriter) RecordInteraction(ctx context.Context, _ string, _ types.InteractionRecord) error {
	select {
	case <-w.gate:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.mu.Lock()
	w.n++
	w.mu.Unlock()
	return nil
}

func TestCollector_DropsWhenFull(t *testing.T) {
	w := &gatedWriter{gate: make(chan struct{})}
	c := NewCollector(w, Config{QueueSize: 1})

	rec := &types.InteractionRecord{}
	accepted := 0
	for i := 0; i < 5; i++ {
		if c.Emit(Signal{ContactID: "ana", Record: rec}) {
			accepted++
		}
	}
	// One signal may be in flight in the worker and one queued.
	assert.LessOrEqual(t, accepted, 2)
	assert.Less(t, accepted, 5)

	close(w.gate)
	c.Close()
	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Equal(t, accepted, w.n)
}

type failingWriter struct{}

func (failingWriter) RecordInteraction(context.Context, string, types.InteractionRecord) error {
	return errors.New("disk full")
}

func TestCollector_WriteFailureIsSwallowed(t *testing.T) {
	c := NewCollector(failingWriter{}, Config{WriteTimeout: 50 * time.Millisecond})
	assert.True(t, c.Emit(Signal{ContactID: "ana", Record: &types.InteractionRecord{}}))
	c.Close()
}

func TestRecordFrom(t *testing.T) {
	res := lexical.NewDefaultClassifier().Classify("Por favor, guapa 😘")
	now := time.Now()
	rec := RecordFrom(res, now)
	assert.True(t, rec.IsPolite)
	assert.True(t, rec.IsFlirty)
	assert.False(t, rec.IsCommanding)
	assert.Equal(t, now, rec.Timestamp)
}
