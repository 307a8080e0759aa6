package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/go-eer"
	"github.com/jamesainslie/go-eer/internal/logging"
	"github.com/jamesainslie/go-eer/internal/results"
	"github.com/jamesainslie/go-eer/label"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func computeRun(t *testing.T, labels map[string][]label.Class, scores map[string][]float64) *results.Run {
	t.Helper()
	res, err := eer.Compute(context.Background(), labels, scores,
		eer.WithResolution(8), eer.WithLogger(logging.Discard()))
	require.NoError(t, err)
	return &results.Run{Info: results.Info{Mode: results.ModeUtterance}, Result: res}
}

func TestInsertGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	run := computeRun(t,
		map[string][]label.Class{"A": {label.Bonafide}, "B": {label.Spoof}},
		map[string][]float64{"A": {-0.5}, "B": {0.5}})

	id, err := s.Insert(ctx, run, map[string]any{"resolution": 8})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.RunID)
	assert.Equal(t, results.ModeUtterance, rec.Mode)
	assert.Equal(t, run.Result.EER, rec.EER)
	assert.Equal(t, run.Result.Threshold, rec.Threshold)
	assert.Equal(t, run.Result.Index, rec.Index)
	assert.Equal(t, 8, rec.Resolution)
	assert.Equal(t, run.Result.Scores, rec.Scores)
	assert.JSONEq(t, `{"resolution": 8}`, string(rec.ConfigJSON))
	assert.False(t, rec.CreatedAt.IsZero())

	back, err := s.Run(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, run.Result.Counter.Row(label.Bonafide), back.Result.Counter.Row(label.Bonafide))
	assert.Equal(t, run.Result.Counter.Row(label.Spoof), back.Result.Counter.Row(label.Spoof))
	assert.Equal(t, run.Result.Curve, back.Result.Curve)
	assert.Equal(t, run.Result.FPR, back.Result.FPR)
}

func TestListDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := computeRun(t,
		map[string][]label.Class{"A": {label.Bonafide}, "B": {label.Spoof}},
		map[string][]float64{"A": {-0.5}, "B": {0.5}})
	second := computeRun(t,
		map[string][]label.Class{"C": {label.Bonafide}, "D": {label.Spoof}},
		map[string][]float64{"C": {0.25}, "D": {-0.25}})

	id1, err := s.Insert(ctx, first, nil)
	require.NoError(t, err)
	id2, err := s.Insert(ctx, second, nil)
	require.NoError(t, err)

	recs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Nil(t, recs[0].ConfigJSON)

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	// Registered runs combine like result directories.
	r1, err := s.Run(ctx, id1)
	require.NoError(t, err)
	r2, err := s.Run(ctx, id2)
	require.NoError(t, err)
	combined, err := eer.Combine([]*eer.Result{r1.Result, r2.Result}, eer.WithLogger(logging.Discard()))
	require.NoError(t, err)
	assert.Equal(t, 4.0, combined.Counter.Mass())
	assert.Equal(t, 4, combined.Utterances)

	require.NoError(t, s.Delete(ctx, id1))
	assert.ErrorIs(t, s.Delete(ctx, id1), ErrNotFound)

	_, err = s.Get(ctx, id1)
	assert.ErrorIs(t, err, ErrNotFound)

	recs, err = s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, id2, recs[0].RunID)
}
