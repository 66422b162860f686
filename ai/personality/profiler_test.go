package personality

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/contextsense/ai/history"
	"github.com/hrygo/contextsense/ai/types"
)

func records(n int, set func(i int, r *types.InteractionRecord)) []types.InteractionRecord {
	out := make([]types.InteractionRecord, n)
	for i := range out {
		set(i, &out[i])
	}
	return out
}

func TestProfile(t *testing.T) {
	tests := []struct {
		name     string
		records  []types.InteractionRecord
		expected types.PersonalityType
	}{
		{"empty history", nil, types.PersonalityBalanced},
		{
			"polite above threshold",
			records(10, func(i int, r *types.InteractionRecord) { r.IsPolite = i < 8 }),
			types.PersonalityPolite,
		},
		{
			"polite exactly at threshold is not polite",
			records(10, func(i int, r *types.InteractionRecord) { r.IsPolite = i < 7 }),
			types.PersonalityBalanced,
		},
		{
			"flirty",
			records(10, func(i int, r *types.InteractionRecord) { r.IsFlirty = i < 6 }),
			types.PersonalityFlirty,
		},
		{
			"casual",
			records(10, func(i int, r *types.InteractionRecord) { r.IsInformal = i < 7 }),
			types.PersonalityCasual,
		},
		{
			"commanding",
			records(10, func(i int, r *types.InteractionRecord) { r.IsCommanding = i < 5 }),
			types.PersonalityCommanding,
		},
		{
			"polite wins over flirty",
			records(10, func(i int, r *types.InteractionRecord) {
				r.IsPolite = i < 8
				r.IsFlirty = true
			}),
			types.PersonalityPolite,
		},
		{
			"flirty wins over casual and commanding",
			records(10, func(i int, r *types.InteractionRecord) {
				r.IsFlirty = i < 6
				r.IsInformal = true
				r.IsCommanding = true
			}),
			types.PersonalityFlirty,
		},
		{
			"nothing exceeded",
			records(10, func(i int, r *types.InteractionRecord) {
				r.IsInformal = i < 3
				r.IsCommanding = i < 2
			}),
			types.PersonalityBalanced,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Profile(tt.records))
		})
	}
}

type blockingHistory struct{}

func (blockingHistory) GetInteractionHistory(ctx context.Context, _ string) ([]types.InteractionRecord, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type failingHistory struct{}

func (failingHistory) GetInteractionHistory(context.Context, string) ([]types.InteractionRecord, error) {
	return nil, errors.New("database is locked")
}

func TestProfiler_ProfileContact(t *testing.T) {
	ctx := context.Background()

	t.Run("empty history is balanced every time", func(t *testing.T) {
		p := NewProfiler(history.NewInMemoryStore(), Config{})
		for i := 0; i < 3; i++ {
			assert.Equal(t, types.PersonalityBalanced, p.ProfileContact(ctx, "ana"))
		}
	})

	t.Run("reads recorded history", func(t *testing.T) {
		store := history.NewInMemoryStore()
		for i := 0; i < 4; i++ {
			_ = store.RecordInteraction(ctx, "ana", types.InteractionRecord{IsFlirty: true})
		}
		p := NewProfiler(store, Config{})
		assert.Equal(t, types.PersonalityFlirty, p.ProfileContact(ctx, "ana"))
	})

	t.Run("timeout falls back to balanced", func(t *testing.T) {
		p := NewProfiler(blockingHistory{}, Config{Timeout: 10 * time.Millisecond})
		start := time.Now()
		assert.Equal(t, types.PersonalityBalanced, p.ProfileContact(ctx, "ana"))
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("error falls back to balanced", func(t *testing.T) {
		p := NewProfiler(failingHistory{}, Config{})
		assert.Equal(t, types.PersonalityBalanced, p.ProfileContact(ctx, "ana"))
	})

	t.Run("nil history", func(t *testing.T) {
		p := NewProfiler(nil, Config{})
		assert.Equal(t, types.PersonalityBalanced, p.ProfileContact(ctx, "ana"))
	})

	t.Run("custom thresholds", func(t *testing.T) {
		store := history.NewInMemoryStore()
		_ = store.RecordInteraction(ctx, "ana", types.InteractionRecord{IsCommanding: true})
		_ = store.RecordInteraction(ctx, "ana", types.InteractionRecord{})
		_ = store.RecordInteraction(ctx, "ana", types.InteractionRecord{})
		p := NewProfiler(store, Config{Thresholds: Thresholds{Polite: 1, Flirty: 1, Informal: 1, Commanding: 0.3}})
		assert.Equal(t, types.PersonalityCommanding, p.ProfileContact(ctx, "ana"))
	})
}
