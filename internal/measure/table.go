package measure

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrMalformedTable = errors.New("measure: malformed table")
	ErrDuplicateEntry = errors.New("measure: duplicate (time, combination) entry")
	ErrNoData         = errors.New("measure: no rows match the selection")
	ErrUnknownColumn  = errors.New("measure: unknown column")
)

// Metabolite states recorded in the label table.
const (
	StateUnlabeled = "ac12_CoA"
	StateLabeled   = "ac13_CoA"
)

// LabelRow is one isotope-label fraction measurement of the Acetyl-CoA
// pool. Time is in the label table's native unit (seconds).
type LabelRow struct {
	Carrier       string  `json:"carrier"`
	Cells         string  `json:"cells"`
	State         string  `json:"state"`
	Time          float64 `json:"time"`
	Replicate     int     `json:"rep"`
	RelativeLabel float64 `json:"relative_label"`
}

// AreaRow is one relative peak area of a peptide acetylation combination.
// Time is in minutes.
type AreaRow struct {
	Carrier     string  `json:"carrier"`
	Cells       string  `json:"cells"`
	Replicate   int     `json:"rep"`
	Time        float64 `json:"time"`
	Combination string  `json:"combination"`
	RelArea     float64 `json:"rel_area"`
}

var (
	labelHeader = []string{"carrier", "cells", "state", "time", "rep", "relative_label"}
	areaHeader  = []string{"carrier", "cells", "rep", "time", "combination", "rel_area"}
)

// Condition is one carrier/cell-line pair present in the tables.
type Condition struct {
	Carrier string
	Cells   string
}

func (c Condition) String() string {
	return c.Carrier + "/" + c.Cells
}

// Conditions lists the distinct carrier/cells pairs found in either table.
func Conditions(labels []LabelRow, areas []AreaRow) []Condition {
	seen := make(map[Condition]bool)
	for _, r := range labels {
		seen[Condition{r.Carrier, r.Cells}] = true
	}
	for _, r := range areas {
		seen[Condition{r.Carrier, r.Cells}] = true
	}

	out := make([]Condition, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Carrier != out[j].Carrier {
			return out[i].Carrier < out[j].Carrier
		}
		return out[i].Cells < out[j].Cells
	})
	return out
}

type csvTable struct {
	index map[string]int
	rows  [][]string
}

func readTable(r io.Reader, required []string) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrMalformedTable, err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedTable, name)
		}
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	return &csvTable{index: index, rows: rows}, nil
}

func (t *csvTable) str(row []string, col string) string {
	return strings.TrimSpace(row[t.index[col]])
}

func (t *csvTable) number(line int, row []string, col string) (float64, error) {
	v, err := strconv.ParseFloat(t.str(row, col), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d column %s: %v", ErrMalformedTable, line, col, err)
	}
	return v, nil
}

func (t *csvTable) integer(line int, row []string, col string) (int, error) {
	s := t.str(row, col)
	v, err := strconv.Atoi(s)
	if err != nil {
		// replicate numbers are sometimes exported as 1.0
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("%w: line %d column %s: %v", ErrMalformedTable, line, col, err)
		}
		v = int(f)
	}
	return v, nil
}

func ReadLabels(r io.Reader) ([]LabelRow, error) {
	t, err := readTable(r, labelHeader)
	if err != nil {
		return nil, err
	}

	out := make([]LabelRow, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		rec := LabelRow{
			Carrier: t.str(row, "carrier"),
			Cells:   t.str(row, "cells"),
			State:   t.str(row, "state"),
		}
		if rec.Time, err = t.number(line, row, "time"); err != nil {
			return nil, err
		}
		if rec.Replicate, err = t.integer(line, row, "rep"); err != nil {
			return nil, err
		}
		if rec.RelativeLabel, err = t.number(line, row, "relative_label"); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func ReadAreas(r io.Reader) ([]AreaRow, error) {
	t, err := readTable(r, areaHeader)
	if err != nil {
		return nil, err
	}

	out := make([]AreaRow, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		rec := AreaRow{
			Carrier:     t.str(row, "carrier"),
			Cells:       t.str(row, "cells"),
			Combination: t.str(row, "combination"),
		}
		if rec.Replicate, err = t.integer(line, row, "rep"); err != nil {
			return nil, err
		}
		if rec.Time, err = t.number(line, row, "time"); err != nil {
			return nil, err
		}
		if rec.RelArea, err = t.number(line, row, "rel_area"); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func LoadLabelCSV(path string) ([]LabelRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open label table: %w", err)
	}
	defer f.Close()

	rows, err := ReadLabels(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func LoadAreaCSV(path string) ([]AreaRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open area table: %w", err)
	}
	defer f.Close()

	rows, err := ReadAreas(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}
