package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/model"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/parser"
)

// WriteDerivedColumns 把派生列写回源 sheet：同名列原位覆盖，新列追加在最右侧
func WriteDerivedColumns(f *excelize.File, t *parser.Table, cols []model.DerivedColumn) error {
	nextCol := len(t.Header) + 1
	for _, c := range cols {
		if len(c.Values) != t.Len() {
			return fmt.Errorf("derived column %q has %d values, sheet %q has %d rows", c.Name, len(c.Values), t.Sheet, t.Len())
		}

		colNum := nextCol
		if i, ok := t.ColumnIndex(c.Name); ok {
			colNum = i + 1
		} else {
			nextCol++
		}

		colName, err := excelize.ColumnNumberToName(colNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(t.Sheet, colName+"1", c.Name); err != nil {
			return fmt.Errorf("write header %q: %w", c.Name, err)
		}
		for r, v := range c.Values {
			cell := fmt.Sprintf("%s%d", colName, r+2)
			if err := f.SetCellValue(t.Sheet, cell, cellNumber(v)); err != nil {
				return fmt.Errorf("write %s!%s: %w", t.Sheet, cell, err)
			}
		}
	}
	return nil
}

// EnsureSheet sheet 不存在时创建并写入表头，返回是否新建
func EnsureSheet(f *excelize.File, name string, header []string) (bool, error) {
	if idx, err := f.GetSheetIndex(name); err == nil && idx >= 0 {
		return false, nil
	}
	if _, err := f.NewSheet(name); err != nil {
		return false, fmt.Errorf("create sheet %q: %w", name, err)
	}
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &row); err != nil {
		return false, fmt.Errorf("write header of %q: %w", name, err)
	}
	return true, nil
}
