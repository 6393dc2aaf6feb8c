package histogram

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateBoundsMaxBins(t *testing.T) {
	h := New(8)
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		h.Update(r.Float64() * 1000)
	}
	require.LessOrEqual(t, len(h.bins), 8)
}

func TestMinMaxTrackExtrema(t *testing.T) {
	h := New(16)
	for _, v := range []float64{5, 1, 9, -3, 4} {
		h.Update(v)
	}
	require.Equal(t, -3.0, h.Min())
	require.Equal(t, 9.0, h.Max())
}

func TestUniformMonotoneNonDecreasing(t *testing.T) {
	h := New(32)
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		h.Update(r.NormFloat64() * 100)
	}
	qs := h.Uniform(64)
	require.Len(t, qs, 64)
	for i := 1; i < len(qs); i++ {
		require.GreaterOrEqual(t, qs[i], qs[i-1])
	}
	require.GreaterOrEqual(t, qs[0], h.Min())
	require.LessOrEqual(t, qs[len(qs)-1], h.Max())
}

func TestUniformOnEmptyHistogramIsZeroed(t *testing.T) {
	h := New(8)
	qs := h.Uniform(4)
	require.Equal(t, []float64{0, 0, 0, 0}, qs)
}

func TestMergeCombinesTwoHistograms(t *testing.T) {
	a := New(16)
	b := New(16)
	for i := 0; i < 100; i++ {
		a.Update(float64(i))
	}
	for i := 100; i < 200; i++ {
		b.Update(float64(i))
	}
	a.Merge(b)
	require.Equal(t, 0.0, a.Min())
	require.Equal(t, 199.0, a.Max())
	require.LessOrEqual(t, len(a.bins), 16)
}

func TestMergeWithEmptyIsNoop(t *testing.T) {
	a := New(8)
	a.Update(1)
	a.Update(2)
	empty := New(8)
	a.Merge(empty)
	require.Equal(t, 1.0, a.Min())
	require.Equal(t, 2.0, a.Max())
}
