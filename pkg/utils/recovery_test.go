package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverWithCallback(t *testing.T) {
	var got error
	func() {
		defer RecoverWithCallback(func(err error) { got = err })
		panic(42)
	}()

	var panicErr *PanicError
	require.True(t, errors.As(got, &panicErr))
	assert.Equal(t, 42, panicErr.Value)

	assert.NotPanics(t, func() {
		defer RecoverWithCallback(nil)
		panic("ignored")
	})
}

func TestSemaphoreGatherRecoversWorkerPanic(t *testing.T) {
	err := SemaphoreGather(context.Background(), 2,
		func() error { return nil },
		func() error { panic("worker") },
	)

	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "worker", panicErr.Value)
}
