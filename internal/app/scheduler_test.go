package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) CompleteEnded(context.Context) (int64, error) {
	s.calls.Add(1)
	return 0, s.err
}

func TestSchedulerSweepsOnStart(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewScheduler(sweeper, "", zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	s.Stop()

	assert.Equal(t, int32(1), sweeper.calls.Load())
	assert.Equal(t, DefaultSweepSpec, s.spec)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler(&countingSweeper{}, "every five minutes", zap.NewNop())
	assert.Error(t, s.Start(context.Background()))
}

func TestSchedulerSurvivesSweepError(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("db down")}
	s := NewScheduler(sweeper, "@every 1h", zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	s.Stop()
	assert.Equal(t, int32(1), sweeper.calls.Load())
}
