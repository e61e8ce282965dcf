package session

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_Empty(t *testing.T) {
	ctx := NewContext()
	assert.Nil(t, ctx.Run())
	assert.Nil(t, ctx.Attrs())
}

func TestContext_Begin(t *testing.T) {
	ctx := NewContext()
	now := time.Date(2024, 7, 4, 20, 0, 0, 0, time.UTC)

	run := ctx.Begin("/logs/WoWCombatLog.txt", "/logs/raw.txt", now)
	require.NotNil(t, run)
	_, err := uuid.Parse(run.ID)
	require.NoError(t, err)
	assert.Equal(t, now, run.StartedAt)
	assert.Same(t, run, ctx.Run())

	attrs := ctx.Attrs()
	require.Len(t, attrs, 3)
	assert.Equal(t, run.ID, attrs[0].Value.String())
	assert.Equal(t, "WoWCombatLog.txt", attrs[1].Value.String())
	assert.Equal(t, "raw.txt", attrs[2].Value.String())

	second := ctx.Begin("a.txt", "", now)
	assert.NotEqual(t, run.ID, second.ID)
	assert.Len(t, ctx.Attrs(), 2, "no raw attribute without a raw file")
}

func TestContext_ThreadSafe(t *testing.T) {
	ctx := NewContext()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ctx.Begin("p.txt", "r.txt", time.Now())
		}()
		go func() {
			defer wg.Done()
			_ = ctx.Attrs()
		}()
	}
	wg.Wait()
	assert.NotNil(t, ctx.Run())
}
