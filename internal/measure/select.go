package measure

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// LabelTimeScale converts label-table times (seconds) to the area table's
// minutes.
const LabelTimeScale = 60.0

// Names of the Acetyl-CoA columns in a selected matrix.
const (
	ColumnUnlabeled = "nolabel"
	ColumnLabeled   = "label"
)

// DefaultColumns is the seven-state order used by the full two-site model.
var DefaultColumns = []string{
	ColumnUnlabeled, ColumnLabeled,
	"non_ac", "ac*_ac12", "ac12_ac*", "ac*_ac13", "ac13_ac*",
}

// Select aligns both tables for one carrier/cells condition into a single
// time-indexed matrix: nolabel and label (replicate-averaged Acetyl-CoA
// fractions, time rescaled by LabelTimeScale), then one column per
// replicate-1 combination in lexical order. Rows are the sorted union of
// both time sets; a source without a given time leaves NaN in its columns.
func Select(labels []LabelRow, areas []AreaRow, carrier, cells string) (*Matrix, error) {
	// state -> time -> replicate values
	groups := map[string]map[float64][]float64{
		StateUnlabeled: {},
		StateLabeled:   {},
	}
	for _, r := range labels {
		if r.Carrier != carrier || r.Cells != cells {
			continue
		}
		g, ok := groups[r.State]
		if !ok {
			continue
		}
		g[r.Time] = append(g[r.Time], r.RelativeLabel)
	}

	pivot := make(map[float64]map[string]float64)
	combos := make(map[string]bool)
	for _, r := range areas {
		if r.Carrier != carrier || r.Cells != cells || r.Replicate != 1 {
			continue
		}
		row, ok := pivot[r.Time]
		if !ok {
			row = make(map[string]float64)
			pivot[r.Time] = row
		}
		if _, dup := row[r.Combination]; dup {
			return nil, fmt.Errorf("%w: time %g, combination %q", ErrDuplicateEntry, r.Time, r.Combination)
		}
		row[r.Combination] = r.RelArea
		combos[r.Combination] = true
	}

	labelCols := []string{StateUnlabeled, StateLabeled}
	means := make(map[float64][]float64)
	for c, state := range labelCols {
		for t, values := range groups[state] {
			m, err := stats.Mean(stats.Float64Data(values))
			if err != nil {
				return nil, fmt.Errorf("averaging %s at t=%g: %w", state, t, err)
			}
			scaled := t / LabelTimeScale
			row, ok := means[scaled]
			if !ok {
				row = []float64{math.NaN(), math.NaN()}
				means[scaled] = row
			}
			row[c] = m
		}
	}

	if len(means) == 0 && len(pivot) == 0 {
		return nil, fmt.Errorf("%w: carrier=%s cells=%s", ErrNoData, carrier, cells)
	}

	comboNames := make([]string, 0, len(combos))
	for c := range combos {
		comboNames = append(comboNames, c)
	}
	sort.Strings(comboNames)

	timeSet := make(map[float64]bool, len(means)+len(pivot))
	for t := range means {
		timeSet[t] = true
	}
	for t := range pivot {
		timeSet[t] = true
	}
	times := make([]float64, 0, len(timeSet))
	for t := range timeSet {
		times = append(times, t)
	}
	sort.Float64s(times)

	columns := append([]string{ColumnUnlabeled, ColumnLabeled}, comboNames...)
	data := mat.NewDense(len(times), len(columns), nil)
	for i, t := range times {
		lab, ok := means[t]
		if !ok {
			lab = []float64{math.NaN(), math.NaN()}
		}
		data.Set(i, 0, lab[0])
		data.Set(i, 1, lab[1])

		row := pivot[t]
		for j, c := range comboNames {
			v, ok := row[c]
			if !ok {
				v = math.NaN()
			}
			data.Set(i, j+2, v)
		}
	}

	return &Matrix{Times: times, Columns: columns, Data: data}, nil
}
