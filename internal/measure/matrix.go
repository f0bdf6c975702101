package measure

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a time-indexed table of observations. Rows follow Times,
// columns follow Columns; NaN marks a missing value.
type Matrix struct {
	Times   []float64
	Columns []string
	Data    *mat.Dense
}

func (m *Matrix) Rows() int { return len(m.Times) }

func (m *Matrix) columnIndex(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Select returns a new matrix holding only cols, in the given order.
func (m *Matrix) Select(cols ...string) (*Matrix, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: empty column selection", ErrUnknownColumn)
	}
	if m.Rows() == 0 {
		return nil, ErrNoData
	}
	idx := make([]int, len(cols))
	for i, name := range cols {
		idx[i] = m.columnIndex(name)
		if idx[i] < 0 {
			return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownColumn, name, m.Columns)
		}
	}

	data := mat.NewDense(m.Rows(), len(cols), nil)
	for r := 0; r < m.Rows(); r++ {
		for c, src := range idx {
			data.Set(r, c, m.Data.At(r, src))
		}
	}
	return &Matrix{
		Times:   append([]float64(nil), m.Times...),
		Columns: append([]string(nil), cols...),
		Data:    data,
	}, nil
}

func (m *Matrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.Data)
}

func (m *Matrix) Column(name string) ([]float64, error) {
	j := m.columnIndex(name)
	if j < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return mat.Col(nil, j, m.Data), nil
}

// HasMissing reports whether any cell is NaN.
func (m *Matrix) HasMissing() bool {
	r, c := m.Data.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(m.Data.At(i, j)) {
				return true
			}
		}
	}
	return false
}

// DropIncomplete returns the rows without missing values. The result is
// nil when every row has a gap.
func (m *Matrix) DropIncomplete() *Matrix {
	var keep []int
	for i := 0; i < m.Rows(); i++ {
		complete := true
		for _, v := range m.Row(i) {
			if math.IsNaN(v) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil
	}

	out := &Matrix{
		Times:   make([]float64, len(keep)),
		Columns: append([]string(nil), m.Columns...),
		Data:    mat.NewDense(len(keep), len(m.Columns), nil),
	}
	for r, src := range keep {
		out.Times[r] = m.Times[src]
		out.Data.SetRow(r, m.Row(src))
	}
	return out
}

// WriteCSV writes the matrix with a leading time column. Missing values
// are written as empty fields.
func WriteCSV(w io.Writer, m *Matrix) error {
	writer := csv.NewWriter(w)

	header := append([]string{"time"}, m.Columns...)
	if err := writer.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for i, t := range m.Times {
		record[0] = strconv.FormatFloat(t, 'g', -1, 64)
		for j := range m.Columns {
			v := m.Data.At(i, j)
			if math.IsNaN(v) {
				record[j+1] = ""
			} else {
				record[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadCSV parses a matrix written by WriteCSV.
func ReadCSV(r io.Reader) (*Matrix, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	if len(records) < 2 || len(records[0]) < 2 {
		return nil, ErrNoData
	}
	if records[0][0] != "time" {
		return nil, fmt.Errorf("%w: first column must be time", ErrMalformedTable)
	}

	rows := records[1:]
	m := &Matrix{
		Times:   make([]float64, len(rows)),
		Columns: append([]string(nil), records[0][1:]...),
		Data:    mat.NewDense(len(rows), len(records[0])-1, nil),
	}
	for i, rec := range rows {
		if m.Times[i], err = strconv.ParseFloat(rec[0], 64); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedTable, i+2, err)
		}
		for j, field := range rec[1:] {
			v := math.NaN()
			if field != "" {
				if v, err = strconv.ParseFloat(field, 64); err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedTable, i+2, err)
				}
			}
			m.Data.Set(i, j, v)
		}
	}
	return m, nil
}
