package runtable

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Table accumulates the results of an experiment against its planned runs.
// It is constructed once, mutated only by AddResult, and finalized by a
// single WriteCSV call.
type Table struct {
	factors     []Factor
	dataColumns []string
	plan        []PlannedRun
	records     []Record
	recorded    map[int]struct{}
}

// Record pairs a planned run with its extracted data columns. Data may be
// partial or empty; a column missing from Data is a valid outcome and
// serializes as a blank cell.
type Record struct {
	Run  PlannedRun
	Data map[string]float64
}

// New creates a table over the given plan. The factor and data column
// declarations fix the persisted schema: factor names in declaration order,
// then data column names in declaration order.
func New(factors []Factor, dataColumns []string, plan []PlannedRun) *Table {
	return &Table{
		factors:     factors,
		dataColumns: dataColumns,
		plan:        plan,
		recorded:    make(map[int]struct{}),
	}
}

// Plan returns the planned run sequence in execution order.
func (t *Table) Plan() []PlannedRun {
	return t.plan
}

// Len returns the number of planned runs.
func (t *Table) Len() int {
	return len(t.plan)
}

// Records returns the results collected so far, in insertion order.
func (t *Table) Records() []Record {
	return t.records
}

// AddResult appends a record for the given planned run. Values are not
// range-validated and the data map may be partial or empty. At most one
// result may be recorded per run index.
func (t *Table) AddResult(run PlannedRun, data map[string]float64) error {
	if run.Index < 1 || run.Index > len(t.plan) {
		return fmt.Errorf("run index %d outside plan of %d runs", run.Index, len(t.plan))
	}
	if _, exists := t.recorded[run.Index]; exists {
		return fmt.Errorf("result already recorded for run %d", run.Index)
	}
	t.recorded[run.Index] = struct{}{}
	t.records = append(t.records, Record{Run: run, Data: data})
	return nil
}

// WriteCSV persists the table: a header row of factor names followed by
// data column names, then one row per record. Missing data values are
// written as empty cells, never dropped.
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create result table %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := make([]string, 0, len(t.factors)+len(t.dataColumns))
	for _, factor := range t.factors {
		header = append(header, factor.Name)
	}
	header = append(header, t.dataColumns...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write result table header: %w", err)
	}

	for _, rec := range t.records {
		row := make([]string, 0, len(header))
		for _, factor := range t.factors {
			row = append(row, rec.Run.Variation[factor.Name])
		}
		for _, col := range t.dataColumns {
			if value, ok := rec.Data[col]; ok {
				row = append(row, strconv.FormatFloat(value, 'f', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write result row for run %d: %w", rec.Run.Index, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush result table: %w", err)
	}
	return f.Close()
}
