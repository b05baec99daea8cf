package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/ad-params/internal/ad"
	"github.com/ducminhle1904/ad-params/pkg/params"
)

const (
	pointsSheet = "Points"
	runSheet    = "Run"
)

// SweepRun describes one exported sweep
type SweepRun struct {
	ID        string
	Symbol    string
	Timeframe params.Timeframe
	Started   time.Time
}

// WriteSweepXLSX writes every sweep point to a workbook. Points failing validation
// are kept with their error. It returns the number of valid points.
func WriteSweepXLSX(path string, run SweepRun, s *ad.Sweep) (int, error) {
	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), pointsSheet)
	if _, err := fx.NewSheet(runSheet); err != nil {
		return 0, err
	}
	headStyle, _ := fx.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	fields := s.Fields()
	headers := []string{"Index"}
	for _, scope := range ad.Scopes() {
		for _, f := range fields[scope] {
			headers = append(headers, fmt.Sprintf("%s.%s", scope, f))
		}
	}
	headers = append(headers, "Error")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(pointsSheet, cell, h)
		fx.SetCellStyle(pointsSheet, cell, cell, headStyle)
	}

	row := 2
	valid := 0
	for p, err := range s.All() {
		values := []interface{}{row - 2}
		if err != nil {
			for range headers[1 : len(headers)-1] {
				values = append(values, "")
			}
			values = append(values, err.Error())
		} else {
			valid++
			values = append(values, pointValues(p.Indicator, fields[ad.ScopeIndicator])...)
			values = append(values, pointValues(p.Strategy, fields[ad.ScopeStrategy])...)
			values = append(values, "")
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			fx.SetCellValue(pointsSheet, cell, v)
		}
		row++
	}

	info := [][2]interface{}{
		{"Run ID", run.ID},
		{"Symbol", run.Symbol},
		{"Timeframe", run.Timeframe.String()},
		{"Started", run.Started.Format("2006-01-02 15:04:05")},
		{"Points", s.Len()},
		{"Valid points", valid},
	}
	for i, kv := range info {
		fx.SetCellValue(runSheet, fmt.Sprintf("A%d", i+1), kv[0])
		fx.SetCellStyle(runSheet, fmt.Sprintf("A%d", i+1), fmt.Sprintf("A%d", i+1), headStyle)
		fx.SetCellValue(runSheet, fmt.Sprintf("B%d", i+1), kv[1])
	}

	if err := fx.SaveAs(path); err != nil {
		return 0, err
	}
	return valid, nil
}

func pointValues(ps *params.ParameterSet, fields []params.Field) []interface{} {
	out := make([]interface{}, len(fields))
	for i, f := range fields {
		v, _ := ps.Get(f)
		out[i] = v.Interface()
	}
	return out
}
