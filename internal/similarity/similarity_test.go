package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_Known(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"abcd", "bcde", 0.75},
		{"quick brown", "quick brown", 1.0},
		{"quick brown", "quick brawn", 20.0 / 22.0},
		{"abc", "xyz", 0},
		{"the quick", "a quick", 12.0 / 16.0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScore_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"tide", "diet"},
		{"quick brown fox", "brown quick fox"},
		{"abcd", "bcde"},
		{"fox jumps", "fox leaps"},
		{"über café", "uber cafe"},
	}
	for _, p := range pairs {
		assert.Equal(t, Score(p[0], p[1]), Score(p[1], p[0]), "%q vs %q", p[0], p[1])
	}
}

func TestScore_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"a", "b"},
		{"brown fox", "brown fox jumps"},
		{"x", "xxxxxxxxxx"},
		{"hello world", "world hello"},
	}
	for _, p := range pairs {
		s := Score(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestScore_OrderSensitive(t *testing.T) {
	assert.Less(t, Score("abc", "cba"), 1.0)
}

func TestSimilar_Identity(t *testing.T) {
	for _, x := range []string{"a", "quick brown", "the quick brown fox", "ümlaut wörds"} {
		assert.True(t, Similar(x, x, 1.0), x)
	}
}

func TestSimilar_Monotonic(t *testing.T) {
	a, b := "quick brown", "quick brawn"
	assert.True(t, Similar(a, b, 0.9))
	assert.True(t, Similar(a, b, 0.5))
	assert.False(t, Similar(a, b, 0.95))
}

func TestThresholdFromPercent(t *testing.T) {
	assert.InDelta(t, 0.85, ThresholdFromPercent(85), 1e-9)
	assert.InDelta(t, 0.5, ThresholdFromPercent(50), 1e-9)
	assert.InDelta(t, 1.0, ThresholdFromPercent(100), 1e-9)
}
