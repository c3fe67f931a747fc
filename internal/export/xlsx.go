// Package export renders validation history and statistics into an
// XLSX workbook for the back office.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/staffmeal/validation-service/internal/record"
	"github.com/staffmeal/validation-service/internal/stats"
)

const (
	sheetValidations = "Validations"
	sheetStatistics  = "Statistics"
)

// Workbook builds an XLSX file with one sheet of raw validation rows
// and one sheet of aggregate statistics.
func Workbook(records []record.ValidationRecord, s stats.Statistics) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeValidations(f, records); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeStatistics(f, s); err != nil {
		f.Close()
		return nil, err
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, err
	}
	idx, err := f.GetSheetIndex(sheetValidations)
	if err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(idx)

	return f, nil
}

func writeValidations(f *excelize.File, records []record.ValidationRecord) error {
	if _, err := f.NewSheet(sheetValidations); err != nil {
		return err
	}

	header := []interface{}{
		"ID", "Order ID", "Timestamp", "Operator", "Source",
		"Complete", "Missing items", "Extra items", "Matched items",
	}
	if err := f.SetSheetRow(sheetValidations, "A1", &header); err != nil {
		return err
	}

	for i, rec := range records {
		row := []interface{}{
			rec.ID,
			rec.OrderID,
			rec.Timestamp.Format(time.RFC3339),
			rec.Operator,
			string(rec.ExpectedOrder.Source),
			rec.IsComplete,
			len(rec.ComparisonResult.MissingItems),
			len(rec.ComparisonResult.ExtraItems),
			len(rec.ComparisonResult.MatchedItems),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetValidations, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeStatistics(f *excelize.File, s stats.Statistics) error {
	if _, err := f.NewSheet(sheetStatistics); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Total validations", s.Total},
		{"Complete", s.Complete},
		{"Completion rate", s.CompletionRate},
		{"Error rate", s.ErrorRate},
		{"Missing item entries", s.MissingCount},
		{"Extra item entries", s.ExtraCount},
		{},
		{"Missing by item"},
	}
	for _, item := range sortedItems(s) {
		rows = append(rows, []interface{}{string(item), s.MissingByItem[item]})
	}

	rows = append(rows, []interface{}{}, []interface{}{"Errors by hour"})
	for hour, b := range s.ByHour {
		if b.Count == 0 {
			continue
		}
		rows = append(rows, []interface{}{fmt.Sprintf("%02dh", hour), b.Errors()})
	}

	rows = append(rows, []interface{}{}, []interface{}{"By operator"})
	for _, op := range sortedOperators(s) {
		b := s.ByOperator[op]
		rows = append(rows, []interface{}{op, b.Count, b.CompletionRate})
	}

	for i := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(sheetStatistics, cell, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}
