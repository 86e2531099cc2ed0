package dataset_test

import (
	"math/rand/v2"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/require"
)

// fixedSource returns scripted draws so SSML output is predictable.
type fixedSource struct {
	index int
	float float64
}

func (f *fixedSource) IntN(n int) int {
	return f.index % n
}

func (f *fixedSource) Float64() float64 {
	return f.float
}

func (f *fixedSource) Shuffle(_ int, _ func(i, j int)) {}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	lg, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = lg.Close() })

	return lg
}
