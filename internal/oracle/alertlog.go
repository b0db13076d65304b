package oracle

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
)

// ReadAlertLog parses a cloud collector alert_protocol.csv:
// (motor_id, time, failure, delay) rows, returning the alerts and their
// recorded delays in parallel slices so callers can use either or both.
func ReadAlertLog(path string) ([]schema.Alert, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("oracle: reading %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var alerts []schema.Alert
	var delays []float64
	for {
		row, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("oracle: parsing %s: %w", path, err)
		}
		if len(row) < 3 {
			continue
		}

		motorID, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, nil, fmt.Errorf("oracle: parsing motor_id %q: %w", row[0], err)
		}
		t, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("oracle: parsing time %q: %w", row[1], err)
		}
		failure, ok := schema.ParseMotorFailure(row[2])
		if !ok {
			return nil, nil, fmt.Errorf("oracle: parsing failure %q", row[2])
		}

		alerts = append(alerts, schema.Alert{Time: t, MotorID: uint16(motorID), Failure: failure})

		if len(row) >= 4 {
			delay, err := strconv.ParseFloat(row[3], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("oracle: parsing delay %q: %w", row[3], err)
			}
			delays = append(delays, delay)
		}
	}
	return alerts, delays, nil
}
