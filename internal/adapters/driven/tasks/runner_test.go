package tasks

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_ExecutesSubmittedTasks(t *testing.T) {
	runner := NewRunner(0)
	var ran atomic.Int32

	for i := 0; i < 5; i++ {
		runner.Submit(func(_ context.Context) {
			ran.Add(1)
		})
	}
	require.NoError(t, runner.Close())

	assert.Equal(t, int32(5), ran.Load())
}

func TestRunner_PanicDoesNotPropagate(t *testing.T) {
	runner := NewRunner(0)
	var ran atomic.Bool

	runner.Submit(func(_ context.Context) {
		panic("task exploded")
	})
	runner.Submit(func(_ context.Context) {
		ran.Store(true)
	})
	require.NoError(t, runner.Close())

	assert.True(t, ran.Load(), "tasks after a panicking task still run")
}

func TestRunner_DropsTasksAfterClose(t *testing.T) {
	runner := NewRunner(0)
	require.NoError(t, runner.Close())

	var ran atomic.Bool
	runner.Submit(func(_ context.Context) {
		ran.Store(true)
	})

	assert.False(t, ran.Load())
}
