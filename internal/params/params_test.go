package params

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSetValueMissing(t *testing.T) {
	s := NewSet(New("k0", 1.0))

	v, err := s.Value("k0")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	_, err = s.Value("k_de")
	assert.True(t, errors.Is(err, dynamo.ErrMissingParameter))
	assert.Contains(t, err.Error(), "k_de")
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewSet(New("k0", 1.0))
	c := s.Clone()
	require.NoError(t, c.SetValue("k0", 5.0))

	assert.Equal(t, 1.0, s["k0"].Value)
	assert.Equal(t, 5.0, c["k0"].Value)
}

func TestFreeNamesSortedAndSkipFixed(t *testing.T) {
	fixed := New("k_de", 0.1)
	fixed.Fixed = true
	s := NewSet(New("k1", 1), New("k0", 1), fixed)

	assert.Equal(t, []string{"k0", "k1"}, s.FreeNames())
	assert.Equal(t, []string{"k0", "k1", "k_de"}, s.Names())
}

func TestVectorUpdateRoundTrip(t *testing.T) {
	s := NewSet(New("a", 1), New("b", 2))
	names := s.FreeNames()

	s.Update(names, []float64{3, 4})
	assert.Equal(t, []float64{3, 4}, s.Vector(names))
}

func TestValidate(t *testing.T) {
	s := NewSet(Bounded("k0", 0.5, 0, 1))
	assert.NoError(t, s.Validate())

	s = NewSet(Bounded("k0", 2, 0, 1))
	assert.True(t, errors.Is(s.Validate(), ErrOutOfBounds))

	s = NewSet(Bounded("k0", 0.5, 1, 0))
	assert.True(t, errors.Is(s.Validate(), ErrOutOfBounds))
}

func TestBoundsKeptAsGiven(t *testing.T) {
	s := NewSet(Bounded("k", 0, 0, 0), New("free", 1))
	assert.Equal(t, 0.0, s["k"].Min)
	assert.Equal(t, 0.0, s["k"].Max)
	assert.Equal(t, 0.0, s["k"].Clip(5))
	assert.True(t, math.IsInf(s["free"].Min, -1))
	assert.True(t, math.IsInf(s["free"].Max, 1))
}

func TestTransformRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		p    Param
		v    float64
	}{
		{"unbounded", New("a", 0), -3.5},
		{"two sided", Bounded("a", 0, 0, 10), 2.5},
		{"lower only", Bounded("a", 0, 0, math.Inf(1)), 7},
		{"upper only", Bounded("a", 0, math.Inf(-1), 5), -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := tt.p.ToInternal(tt.v)
			assert.InDelta(t, tt.v, tt.p.FromInternal(x), 1e-12)
		})
	}
}

func TestFromInternalStaysInBounds(t *testing.T) {
	p := Bounded("a", 0, 1, 2)
	for _, x := range []float64{-100, -1, 0, 1, 100} {
		v := p.FromInternal(x)
		assert.GreaterOrEqual(t, v, 1.0)
		assert.LessOrEqual(t, v, 2.0)
	}
}

func TestYAMLDecode(t *testing.T) {
	doc := `
k0: 0.5
k_de:
  value: 0.1
  min: 0
  fixed: true
`
	var s Set
	require.NoError(t, yaml.Unmarshal([]byte(doc), &s))

	k0 := s["k0"]
	assert.Equal(t, "k0", k0.Name)
	assert.Equal(t, 0.5, k0.Value)
	assert.True(t, math.IsInf(k0.Min, -1))

	kde := s["k_de"]
	assert.Equal(t, "k_de", kde.Name)
	assert.Equal(t, 0.0, kde.Min)
	assert.True(t, math.IsInf(kde.Max, 1))
	assert.True(t, kde.Fixed)
	assert.Equal(t, 0.1, kde.Init)
}

func TestJSONOmitsInfiniteBounds(t *testing.T) {
	s := NewSet(New("k0", 1), Bounded("k1", 1, 0, 2))

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back Set
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, math.IsInf(back["k0"].Max, 1))
	assert.Equal(t, 2.0, back["k1"].Max)
	assert.Equal(t, "k1", back["k1"].Name)
}
