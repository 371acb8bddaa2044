package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/coastline-livery/charterbooks/internal/logging"
)

// WriteCSV writes one section's rows to a CSV file. Rows must be a slice of
// structs carrying csv tags.
func WriteCSV(rows interface{}, path string, logger logging.Logger) error {
	if logger == nil {
		logger = logging.GetLogger()
	}
	if _, _, err := tableize(rows); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	file, err := os.Create(path) // #nosec G304 -- CLI tool writes user-chosen output paths
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close report file")
		}
	}()

	writer := gocsv.NewSafeCSVWriter(csv.NewWriter(file))
	if err := gocsv.MarshalCSV(rows, writer); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	logger.Info("Wrote CSV report",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: reflect.ValueOf(rows).Len()})
	return nil
}

// WriteWorkbook writes an Excel workbook with one sheet per section.
func WriteWorkbook(sections []Section, path string, logger logging.Logger) error {
	if logger == nil {
		logger = logging.GetLogger()
	}
	if len(sections) == 0 {
		return fmt.Errorf("workbook needs at least one section")
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close workbook")
		}
	}()

	for i, sec := range sections {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sec.Name); err != nil {
				return fmt.Errorf("naming sheet %s: %w", sec.Name, err)
			}
		} else {
			if _, err := f.NewSheet(sec.Name); err != nil {
				return fmt.Errorf("adding sheet %s: %w", sec.Name, err)
			}
		}
		headers, cells, err := tableize(sec.Rows)
		if err != nil {
			return fmt.Errorf("section %s: %w", sec.Name, err)
		}
		if err := f.SetSheetRow(sec.Name, "A1", &headers); err != nil {
			return fmt.Errorf("writing headers for %s: %w", sec.Name, err)
		}
		for r, row := range cells {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return fmt.Errorf("locating row %d on %s: %w", r+2, sec.Name, err)
			}
			if err := f.SetSheetRow(sec.Name, cell, &row); err != nil {
				return fmt.Errorf("writing row %d on %s: %w", r+2, sec.Name, err)
			}
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}

	logger.Info("Wrote Excel report",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(sections)})
	return nil
}

// tableize turns a slice of csv-tagged structs into a header row and cell
// rows. Both writers share it so the CSV and the workbook carry identical
// columns.
func tableize(rows interface{}) ([]interface{}, [][]interface{}, error) {
	v := reflect.ValueOf(rows)
	if !v.IsValid() || v.Kind() != reflect.Slice {
		return nil, nil, fmt.Errorf("report rows must be a slice of structs, got %T", rows)
	}
	t := v.Type().Elem()
	if t.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("report rows must be a slice of structs, got %T", rows)
	}

	var headers []interface{}
	var fields []int
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("csv")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.SplitN(tag, ",", 2)[0]
		headers = append(headers, name)
		fields = append(fields, i)
	}
	if len(headers) == 0 {
		return nil, nil, fmt.Errorf("row type %s has no csv-tagged fields", t.Name())
	}

	cells := make([][]interface{}, 0, v.Len())
	for r := 0; r < v.Len(); r++ {
		row := make([]interface{}, len(fields))
		for j, i := range fields {
			row[j] = v.Index(r).Field(i).Interface()
		}
		cells = append(cells, row)
	}
	return headers, cells, nil
}
