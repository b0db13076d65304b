package benchdata

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteAlertDelays writes alert_delays.csv: a single comma-separated row of
// per-alert delays (now - alert.time, in seconds), matching the cloud
// collector's alert_protocol.csv delay column but rolled up per run rather
// than per alert.
func WriteAlertDelays(w io.Writer, delaysSeconds []float64) error {
	row := make([]string, len(delaysSeconds))
	for i, d := range delaysSeconds {
		row[i] = strconv.FormatFloat(d, 'f', -1, 64)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
