// Package benchdata collects per-run resource counters and writes the
// driver's result CSVs. The column abstraction is grounded in the
// teacher's myqlib Col/View split (named, orderable units that each know
// how to render themselves), simplified down to the single responsibility
// this repo needs: rendering a BenchmarkData-shaped record as one CSV row.
package benchdata

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
)

// Column renders one field of a Record as a string, the same
// "column knows its own name and how to format itself" contract
// myqlib.Col gives MySQL status counters.
type Column interface {
	Name() string
	Value(rec Record) string
}

// Record is one driver run's worth of resource counters plus identifying
// fields, wide enough to back both motor_monitor_results.csv and a single
// BenchmarkData sample.
type Record struct {
	RunID              string
	RPM                schema.RPM
	Data               schema.BenchmarkData
	AlertCount         int
	ExpectedAlertCount int
}

type namedColumn struct {
	name  string
	value func(Record) string
}

func (c namedColumn) Name() string            { return c.name }
func (c namedColumn) Value(rec Record) string { return c.value(rec) }

// DefaultColumns is the column set motor_monitor_results.csv is written
// with: one row per run, with CPU times and memory high-water marks plus
// the oracle-comparison counts this repo adds (see SUPPLEMENTED features).
var DefaultColumns = []Column{
	namedColumn{"run_id", func(r Record) string { return r.RunID }},
	namedColumn{"rpm", func(r Record) string { return string(r.RPM) }},
	namedColumn{"kind", func(r Record) string { return r.Data.Kind.String() }},
	namedColumn{"user_time", func(r Record) string { return strconv.FormatUint(r.Data.UserTime, 10) }},
	namedColumn{"kernel_time", func(r Record) string { return strconv.FormatUint(r.Data.KernelTime, 10) }},
	namedColumn{"children_user_time", func(r Record) string { return strconv.FormatInt(r.Data.ChildrenUserTime, 10) }},
	namedColumn{"children_kernel_time", func(r Record) string { return strconv.FormatInt(r.Data.ChildrenKernelTime, 10) }},
	namedColumn{"peak_rss", func(r Record) string { return strconv.FormatUint(r.Data.PeakRSS, 10) }},
	namedColumn{"peak_vmem", func(r Record) string { return strconv.FormatUint(r.Data.PeakVMem, 10) }},
	namedColumn{"alert_count", func(r Record) string { return strconv.Itoa(r.AlertCount) }},
	namedColumn{"expected_alert_count", func(r Record) string { return strconv.Itoa(r.ExpectedAlertCount) }},
}

// Writer renders Records as CSV rows using a fixed column set.
type Writer struct {
	w       *csv.Writer
	columns []Column
}

// NewWriter wraps w, writing rows using the given columns in order.
func NewWriter(w io.Writer, columns []Column) *Writer {
	return &Writer{w: csv.NewWriter(w), columns: columns}
}

// WriteHeader writes the column-name header row.
func (w *Writer) WriteHeader() error {
	row := make([]string, len(w.columns))
	for i, c := range w.columns {
		row[i] = c.Name()
	}
	return w.w.Write(row)
}

// WriteRecord renders rec through every column and writes the resulting row.
func (w *Writer) WriteRecord(rec Record) error {
	row := make([]string, len(w.columns))
	for i, c := range w.columns {
		row[i] = c.Value(rec)
	}
	return w.w.Write(row)
}

// Flush flushes the underlying CSV writer.
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}
