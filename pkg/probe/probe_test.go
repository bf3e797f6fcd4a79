package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAndAnalyze(t *testing.T) {
	ok := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("unreachable") }

	t.Run("all passing", func(t *testing.T) {
		results := Run(context.Background(), []Probe{
			{Name: "queue", Check: ok, Critical: true},
			{Name: "ner", Check: ok},
		})
		require.Len(t, results, 2)
		assert.NoError(t, Analyze(results))
	})

	t.Run("non-critical failure proceeds", func(t *testing.T) {
		results := Run(context.Background(), []Probe{
			{Name: "queue", Check: ok, Critical: true},
			{Name: "ner", Check: broken},
		})
		assert.NoError(t, Analyze(results))
	})

	t.Run("critical failure aborts", func(t *testing.T) {
		results := Run(context.Background(), []Probe{
			{Name: "queue", Check: broken, Critical: true},
		})
		err := Analyze(results)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "queue")
	})
}

func TestRunBoundsEachCheck(t *testing.T) {
	results := Run(context.Background(), []Probe{{
		Name: "stuck",
		Check: func(ctx context.Context) error {
			deadline, ok := ctx.Deadline()
			require.True(t, ok)
			assert.False(t, deadline.IsZero())
			return nil
		},
	}})
	assert.NoError(t, results[0].Error)
}
