package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/san-kum/acetylkin/internal/measure"
)

var ErrNothingToPlot = errors.New("export: no plottable series")

const (
	DefaultWidth  = 1024
	DefaultHeight = 640
)

// column returns the non-missing (time, value) pairs of one column.
func column(m *measure.Matrix, j int) (xs, ys []float64) {
	for i, t := range m.Times {
		v := m.Data.At(i, j)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xs = append(xs, t)
		ys = append(ys, v)
	}
	return xs, ys
}

// FitChart draws each fitted column as a line and the matching measured
// column as dots of the same colour. Either matrix may be nil.
func FitChart(title string, measured, fitted *measure.Matrix) (*chart.Chart, error) {
	var series []chart.Series
	colors := make(map[string]int)
	colorOf := func(name string) int {
		if c, ok := colors[name]; ok {
			return c
		}
		colors[name] = len(colors)
		return colors[name]
	}

	if fitted != nil {
		for j, name := range fitted.Columns {
			xs, ys := column(fitted, j)
			if len(xs) < 2 {
				continue
			}
			series = append(series, chart.ContinuousSeries{
				Name:    name + " (fit)",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: chart.GetDefaultColor(colorOf(name)),
					StrokeWidth: 2,
				},
			})
		}
	}
	if measured != nil {
		for j, name := range measured.Columns {
			xs, ys := column(measured, j)
			if len(xs) == 0 {
				continue
			}
			color := chart.GetDefaultColor(colorOf(name))
			series = append(series, chart.ContinuousSeries{
				Name:    name,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    4,
					DotColor:    color,
					StrokeColor: color,
				},
			})
		}
	}
	if len(series) == 0 {
		return nil, ErrNothingToPlot
	}

	graph := &chart.Chart{
		Title:  title,
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name: "time (min)",
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f", v.(float64))
			},
		},
		YAxis: chart.YAxis{
			Name: "relative abundance",
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(graph)}
	return graph, nil
}

// Render writes the chart as PNG or SVG.
func Render(w io.Writer, graph *chart.Chart, format string) error {
	switch strings.ToLower(format) {
	case "png":
		return graph.Render(chart.PNG, w)
	case "svg":
		return graph.Render(chart.SVG, w)
	}
	return fmt.Errorf("unsupported chart format: %s", format)
}

// WriteChart renders to path, choosing the format from its extension.
func WriteChart(path string, graph *chart.Chart) error {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		format = "png"
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Render(f, graph, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
