package export

import (
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/acetylkin/internal/measure"
)

// seriesColors cycles through the terminal palette for multi-column plots.
var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Red,
	asciigraph.Green,
	asciigraph.Blue,
	asciigraph.Yellow,
	asciigraph.Cyan,
	asciigraph.Magenta,
	asciigraph.White,
}

// ASCII plots the named columns of m (all columns when none are given)
// for a terminal. Missing values are carried forward.
func ASCII(m *measure.Matrix, caption string, height, width int, cols ...string) (string, error) {
	if len(cols) == 0 {
		cols = m.Columns
	}
	data := make([][]float64, 0, len(cols))
	colors := make([]asciigraph.AnsiColor, 0, len(cols))
	for i, name := range cols {
		values, err := m.Column(name)
		if err != nil {
			return "", err
		}
		values = fillForward(values)
		if values == nil {
			continue
		}
		data = append(data, values)
		colors = append(colors, seriesColors[i%len(seriesColors)])
	}
	if len(data) == 0 {
		return "", ErrNothingToPlot
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
	), nil
}

// fillForward replaces NaN with the last seen value. Leading gaps take the
// first finite value; an all-NaN series returns nil.
func fillForward(values []float64) []float64 {
	first := math.NaN()
	for _, v := range values {
		if !math.IsNaN(v) {
			first = v
			break
		}
	}
	if math.IsNaN(first) {
		return nil
	}
	out := make([]float64, len(values))
	last := first
	for i, v := range values {
		if !math.IsNaN(v) {
			last = v
		}
		out[i] = last
	}
	return out
}
