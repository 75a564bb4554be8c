package export

import (
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	seriesSheet  = "Series"
	batterySheet = "Batteries"
)

// WriteXLSX writes a workbook with a summary sheet, the per-second series and
// the battery levels.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	s := r.Summary
	rows := [][]any{
		{"scenario", r.Scenario},
		{"run_id", r.RunID},
		{"peak_power_kw", s.PeakPowerKW},
		{"mean_power_kw", s.MeanPowerKW},
		{"stddev_power_kw", s.StdDevPowerKW},
		{"energy_kwh", s.EnergyKWh},
		{"planned_hours", s.PlannedHours},
		{"worked_hours", s.WorkedHours},
		{"missed_hours", s.MissedHours},
		{"productivity", s.Productivity},
		{"stall_seconds", s.StallTicks},
		{"max_occupied", s.MaxOccupied},
		{"max_queued", s.MaxQueued},
	}
	if err := setRows(f, summarySheet, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(seriesSheet); err != nil {
		return err
	}
	header := make([]any, len(seriesHeader))
	for i, h := range seriesHeader {
		header[i] = h
	}
	rows = [][]any{header}
	for _, fr := range r.Frames {
		rows = append(rows, []any{fr.Time, r.Clock(fr.Time), fr.PowerKW, fr.Occupied, fr.Queued, fr.Stalled, fr.Unavailable, fr.Active})
	}
	if err := setRows(f, seriesSheet, rows); err != nil {
		return err
	}

	if len(r.Batteries) > 0 {
		if _, err := f.NewSheet(batterySheet); err != nil {
			return err
		}
		ids, times, levels := batteryTable(r.Batteries)
		cols := []any{"time", "clock"}
		for _, id := range ids {
			cols = append(cols, id)
		}
		rows = [][]any{cols}
		for _, t := range times {
			row := []any{t, r.Clock(t)}
			for _, id := range ids {
				if v, ok := levels[t][id]; ok {
					row = append(row, v)
				} else {
					row = append(row, nil)
				}
			}
			rows = append(rows, row)
		}
		if err := setRows(f, batterySheet, rows); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
