// Package export writes the telemetry of a run as CSV, JSON or XLSX files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/kilianp07/ewsite/core/telemetry"
)

// ClockLayout formats the wall-clock label of a simulated second.
const ClockLayout = "15:04:05"

// Formats lists the supported output formats.
var Formats = []string{"csv", "json", "xlsx"}

// Report bundles everything exported for one run.
type Report struct {
	Scenario  string                    `json:"scenario"`
	RunID     string                    `json:"run_id"`
	Origin    time.Time                 `json:"origin"`
	Summary   telemetry.Summary         `json:"summary"`
	Frames    []telemetry.Frame         `json:"frames"`
	Batteries []telemetry.BatterySample `json:"batteries,omitempty"`
}

// NewReport derives the per-second frames and summary of a finished run.
func NewReport(scenario, runID string, origin time.Time, l *telemetry.Log, acc telemetry.Accounting) Report {
	return Report{
		Scenario:  scenario,
		RunID:     runID,
		Origin:    origin,
		Summary:   telemetry.Summarize(l, acc),
		Frames:    l.Frames(acc),
		Batteries: l.BatterySamples,
	}
}

// Clock returns the wall-clock label of simulated second sec.
func (r Report) Clock(sec int64) string {
	return r.Origin.Add(time.Duration(sec) * time.Second).Format(ClockLayout)
}

// WriteJSON writes the report to w in JSON format.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	return enc.Encode(r)
}

var seriesHeader = []string{"time", "clock", "power_kw", "occupied", "queued", "stalled", "unavailable", "active"}

func seriesRow(r Report, f telemetry.Frame) []string {
	return []string{
		strconv.FormatInt(f.Time, 10),
		r.Clock(f.Time),
		strconv.FormatFloat(f.PowerKW, 'f', -1, 64),
		strconv.Itoa(f.Occupied),
		strconv.Itoa(f.Queued),
		strconv.Itoa(f.Stalled),
		strconv.Itoa(f.Unavailable),
		strconv.Itoa(f.Active),
	}
}

// WriteCSV writes one row per simulated second.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(seriesHeader); err != nil {
		return err
	}
	for _, f := range r.Frames {
		if err := cw.Write(seriesRow(r, f)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// batteryTable pivots the samples into one column per machine in first-seen
// order and one row per sampled time.
func batteryTable(samples []telemetry.BatterySample) (ids []string, times []int64, levels map[int64]map[string]float64) {
	levels = make(map[int64]map[string]float64)
	seen := make(map[string]bool)
	for _, s := range samples {
		if !seen[s.MachineID] {
			seen[s.MachineID] = true
			ids = append(ids, s.MachineID)
		}
		row, ok := levels[s.Time]
		if !ok {
			row = make(map[string]float64)
			levels[s.Time] = row
			times = append(times, s.Time)
		}
		row[s.MachineID] = s.LevelKWh
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return ids, times, levels
}

// WriteBatteryCSV writes battery levels with one column per machine. Cells
// are empty where a machine has no sample.
func WriteBatteryCSV(w io.Writer, r Report) error {
	ids, times, levels := batteryTable(r.Batteries)
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"time", "clock"}, ids...)); err != nil {
		return err
	}
	for _, t := range times {
		rec := []string{strconv.FormatInt(t, 10), r.Clock(t)}
		for _, id := range ids {
			v, ok := levels[t][id]
			if !ok {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFiles writes the report into dir in the given format and returns the
// created paths. csv produces a series file and a battery file.
func WriteFiles(dir, format string, r Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	base := filepath.Join(dir, r.Scenario)
	switch format {
	case "csv":
		series := base + ".csv"
		battery := base + "_battery.csv"
		if err := writeFile(series, func(w io.Writer) error { return WriteCSV(w, r) }); err != nil {
			return nil, err
		}
		if err := writeFile(battery, func(w io.Writer) error { return WriteBatteryCSV(w, r) }); err != nil {
			return nil, err
		}
		return []string{series, battery}, nil
	case "json":
		path := base + ".json"
		return []string{path}, writeFile(path, func(w io.Writer) error { return WriteJSON(w, r) })
	case "xlsx":
		path := base + ".xlsx"
		return []string{path}, writeFile(path, func(w io.Writer) error { return WriteXLSX(w, r) })
	}
	return nil, fmt.Errorf("unknown export format %q", format)
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
