package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/rejectlabel/internal/config"
	"github.com/teemow/rejectlabel/internal/triage"
)

func TestNewServerContext(t *testing.T) {
	t.Run("builds query from rules", func(t *testing.T) {
		rules := config.Default()
		rules.Phrases = []string{"not moving forward"}

		sc, err := NewServerContext(context.Background(), Options{
			Pipeline: triage.NewPipeline(triage.PipelineConfig{}),
			Rules:    rules,
		})
		require.NoError(t, err)
		assert.Equal(t, `in:inbox ("not moving forward")`, sc.Query())
		assert.Equal(t, rules, sc.Rules())
		assert.NotNil(t, sc.Logger())
	})

	t.Run("requires pipeline", func(t *testing.T) {
		_, err := NewServerContext(context.Background(), Options{Rules: config.Default()})
		assert.Error(t, err)
	})

	t.Run("rejects invalid rules", func(t *testing.T) {
		rules := config.Default()
		rules.Phrases = []string{}
		_, err := NewServerContext(context.Background(), Options{
			Pipeline: triage.NewPipeline(triage.PipelineConfig{}),
			Rules:    rules,
		})
		assert.ErrorIs(t, err, config.ErrInvalidRules)
	})
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := newTestServerContext(t)
	assert.False(t, sc.IsShutdown())

	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())
}

func TestServerContext_Runs(t *testing.T) {
	sc := newTestServerContext(t)

	n, last := sc.Runs()
	assert.Zero(t, n)
	assert.Nil(t, last)

	sc.RecordRun(triage.Report{RunID: "a"})
	n, last = sc.Runs()
	assert.Equal(t, 1, n)
	require.NotNil(t, last)

	last.RunID = "mutated"
	_, again := sc.Runs()
	assert.Equal(t, "a", again.RunID)
}
