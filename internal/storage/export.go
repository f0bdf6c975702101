package storage

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/san-kum/acetylkin/internal/measure"
)

// ExportData is a self-contained JSON view of one run.
type ExportData struct {
	RunMetadata
	Times    []float64    `json:"times"`
	States   [][]*float64 `json:"states"`
	Measured *matrixDoc   `json:"measured,omitempty"`
}

type matrixDoc struct {
	Columns []string     `json:"columns"`
	Times   []float64    `json:"times"`
	Rows    [][]*float64 `json:"rows"`
}

func rows(m *measure.Matrix) [][]*float64 {
	out := make([][]*float64, m.Rows())
	for i := range out {
		row := m.Row(i)
		out[i] = make([]*float64, len(row))
		for j, v := range row {
			if !math.IsNaN(v) {
				out[i][j] = finite(v)
			}
		}
	}
	return out
}

// Export assembles the stored files of a run.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	data := &ExportData{RunMetadata: *meta, Times: []float64{}, States: [][]*float64{}}

	if traj, err := s.LoadTrajectory(runID); err == nil {
		data.Times = traj.Times
		data.States = rows(traj)
	}
	if meta.Kind == KindFit {
		measured, err := s.LoadMeasured(runID)
		if err != nil {
			return nil, err
		}
		data.Measured = &matrixDoc{Columns: measured.Columns, Times: measured.Times, Rows: rows(measured)}
	}
	return data, nil
}

func (s *Store) WriteJSON(w io.Writer, runID string) error {
	data, err := s.Export(runID)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (s *Store) ExportJSON(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.WriteJSON(file, runID)
}

// WriteCSV writes a run's trajectory table.
func (s *Store) WriteCSV(w io.Writer, runID string) error {
	traj, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	return measure.WriteCSV(w, traj)
}

func (s *Store) ExportCSV(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.WriteCSV(file, runID); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
