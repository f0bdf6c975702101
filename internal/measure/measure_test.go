package measure

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelRows() []LabelRow {
	return []LabelRow{
		{"DMSO", "TSCctrl", StateUnlabeled, 0, 1, 1.0},
		{"DMSO", "TSCctrl", StateUnlabeled, 0, 2, 0.8},
		{"DMSO", "TSCctrl", StateLabeled, 0, 1, 0.0},
		{"DMSO", "TSCctrl", StateLabeled, 0, 2, 0.2},
		{"DMSO", "TSCctrl", StateUnlabeled, 120, 1, 0.5},
		{"DMSO", "TSCctrl", StateLabeled, 120, 1, 0.5},
		{"DMSO", "TSCctrl", "ac_CoA_total", 120, 1, 9},
		{"SAHA", "TSCctrl", StateUnlabeled, 0, 1, 42},
		{"DMSO", "TSCko", StateUnlabeled, 0, 1, 42},
	}
}

func areaRows() []AreaRow {
	return []AreaRow{
		{"DMSO", "TSCctrl", 1, 0, "non_ac", 0.9},
		{"DMSO", "TSCctrl", 1, 0, "ac*_ac12", 0.1},
		{"DMSO", "TSCctrl", 1, 2, "non_ac", 0.7},
		{"DMSO", "TSCctrl", 1, 2, "ac*_ac12", 0.3},
		{"DMSO", "TSCctrl", 2, 2, "non_ac", 99},
		{"SAHA", "TSCctrl", 1, 0, "non_ac", 99},
	}
}

func TestSelectAlignsSources(t *testing.T) {
	m, err := Select(labelRows(), areaRows(), "DMSO", "TSCctrl")
	require.NoError(t, err)

	assert.Equal(t, []string{"nolabel", "label", "ac*_ac12", "non_ac"}, m.Columns)
	assert.Equal(t, []float64{0, 2}, m.Times)
	assert.InDeltaSlice(t, []float64{0.9, 0.1, 0.1, 0.9}, m.Row(0), 1e-12)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0.3, 0.7}, m.Row(1), 1e-12)
	assert.False(t, m.HasMissing())
}

func TestSelectDisjointTimes(t *testing.T) {
	labels := []LabelRow{
		{"DMSO", "TSCctrl", StateUnlabeled, 60, 1, 0.6},
		{"DMSO", "TSCctrl", StateLabeled, 60, 1, 0.4},
	}
	areas := []AreaRow{
		{"DMSO", "TSCctrl", 1, 5, "non_ac", 0.2},
	}

	m, err := Select(labels, areas, "DMSO", "TSCctrl")
	require.NoError(t, err)
	require.Equal(t, []float64{1, 5}, m.Times)

	assert.Equal(t, 0.6, m.Data.At(0, 0))
	assert.True(t, math.IsNaN(m.Data.At(0, 2)))
	assert.True(t, math.IsNaN(m.Data.At(1, 0)))
	assert.True(t, math.IsNaN(m.Data.At(1, 1)))
	assert.Equal(t, 0.2, m.Data.At(1, 2))
	assert.True(t, m.HasMissing())
	assert.Nil(t, m.DropIncomplete())
}

func TestSelectOnlyOneLabelState(t *testing.T) {
	labels := []LabelRow{{"DMSO", "TSCctrl", StateLabeled, 0, 1, 0.3}}
	m, err := Select(labels, nil, "DMSO", "TSCctrl")
	require.NoError(t, err)

	assert.Equal(t, []string{"nolabel", "label"}, m.Columns)
	assert.True(t, math.IsNaN(m.Data.At(0, 0)))
	assert.Equal(t, 0.3, m.Data.At(0, 1))
}

func TestSelectDuplicateEntry(t *testing.T) {
	areas := append(areaRows(), AreaRow{"DMSO", "TSCctrl", 1, 2, "non_ac", 0.1})
	_, err := Select(nil, areas, "DMSO", "TSCctrl")
	assert.ErrorIs(t, err, ErrDuplicateEntry)
}

func TestSelectNoData(t *testing.T) {
	_, err := Select(labelRows(), areaRows(), "DMSO", "missing")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestMatrixSelect(t *testing.T) {
	m, err := Select(labelRows(), areaRows(), "DMSO", "TSCctrl")
	require.NoError(t, err)

	sub, err := m.Select("non_ac", "nolabel")
	require.NoError(t, err)
	assert.Equal(t, []string{"non_ac", "nolabel"}, sub.Columns)
	assert.Equal(t, []float64{0.7, 0.5}, sub.Row(1))

	col, err := m.Column("label")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.1, 0.5}, col, 1e-12)

	_, err = m.Select("nolabel", "ac13_ac*")
	assert.ErrorIs(t, err, ErrUnknownColumn)
	_, err = m.Column("ac13_ac*")
	assert.ErrorIs(t, err, ErrUnknownColumn)

	empty := &Matrix{Columns: []string{"nolabel", "label"}}
	_, err = empty.Select("nolabel")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDropIncomplete(t *testing.T) {
	labels := []LabelRow{
		{"DMSO", "TSCctrl", StateUnlabeled, 0, 1, 1},
		{"DMSO", "TSCctrl", StateLabeled, 0, 1, 0},
	}
	areas := []AreaRow{
		{"DMSO", "TSCctrl", 1, 0, "non_ac", 1},
		{"DMSO", "TSCctrl", 1, 3, "non_ac", 0.5},
	}
	m, err := Select(labels, areas, "DMSO", "TSCctrl")
	require.NoError(t, err)

	full := m.DropIncomplete()
	require.NotNil(t, full)
	assert.Equal(t, []float64{0}, full.Times)
	assert.Equal(t, 1, full.Rows())
}

func TestConditions(t *testing.T) {
	got := Conditions(labelRows(), areaRows())
	want := []Condition{
		{"DMSO", "TSCctrl"},
		{"DMSO", "TSCko"},
		{"SAHA", "TSCctrl"},
	}
	assert.Equal(t, want, got)
	assert.Equal(t, "DMSO/TSCko", got[1].String())
}

func TestReadTables(t *testing.T) {
	labelCSV := `carrier,cells,state,time,rep,relative_label
DMSO,TSCctrl,ac12_CoA,0,1,0.95
DMSO,TSCctrl,ac13_CoA,0,1.0,0.05
`
	labels, err := ReadLabels(strings.NewReader(labelCSV))
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, LabelRow{"DMSO", "TSCctrl", "ac13_CoA", 0, 1, 0.05}, labels[1])

	// column order is taken from the header
	areaCSV := `time,rep,carrier,cells,combination,rel_area,extra
30,1,DMSO,TSCctrl,non_ac,0.4,x
`
	areas, err := ReadAreas(strings.NewReader(areaCSV))
	require.NoError(t, err)
	assert.Equal(t, []AreaRow{{"DMSO", "TSCctrl", 1, 30, "non_ac", 0.4}}, areas)
}

func TestReadTablesMalformed(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"missing column", "carrier,cells,state,time,rep\nDMSO,TSCctrl,ac12_CoA,0,1\n"},
		{"bad number", "carrier,cells,state,time,rep,relative_label\nDMSO,TSCctrl,ac12_CoA,zero,1,0.1\n"},
		{"bad replicate", "carrier,cells,state,time,rep,relative_label\nDMSO,TSCctrl,ac12_CoA,0,1.5,0.1\n"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadLabels(strings.NewReader(tt.csv))
			assert.ErrorIs(t, err, ErrMalformedTable)
		})
	}
}

func TestLoadCSVFiles(t *testing.T) {
	dir := t.TempDir()
	labelPath := filepath.Join(dir, "labels.csv")
	areaPath := filepath.Join(dir, "areas.csv")
	require.NoError(t, os.WriteFile(labelPath,
		[]byte("carrier,cells,state,time,rep,relative_label\nDMSO,TSCctrl,ac12_CoA,60,1,0.5\n"), 0644))
	require.NoError(t, os.WriteFile(areaPath,
		[]byte("carrier,cells,rep,time,combination,rel_area\nDMSO,TSCctrl,1,1,non_ac,0.5\n"), 0644))

	labels, err := LoadLabelCSV(labelPath)
	require.NoError(t, err)
	areas, err := LoadAreaCSV(areaPath)
	require.NoError(t, err)

	m, err := Select(labels, areas, "DMSO", "TSCctrl")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, m.Times)

	_, err = LoadLabelCSV(filepath.Join(dir, "nope.csv"))
	assert.Error(t, err)
}

func TestWriteReadCSV(t *testing.T) {
	m, err := Select(labelRows(), append(areaRows(), AreaRow{"DMSO", "TSCctrl", 1, 7, "non_ac", 0.6}), "DMSO", "TSCctrl")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, m))
	assert.True(t, strings.HasPrefix(buf.String(), "time,nolabel,label,ac*_ac12,non_ac\n"))
	assert.Contains(t, buf.String(), "7,,,,0.6\n")

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, m.Times, back.Times)
	assert.Equal(t, m.Columns, back.Columns)
	assert.True(t, math.IsNaN(back.Data.At(2, 0)))
	assert.Equal(t, 0.6, back.Data.At(2, 3))
}
