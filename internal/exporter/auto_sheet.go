package exporter

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/model"
)

// excel sheet 名长度上限
const maxSheetNameLen = 31

// HeadersEWPh 风压 EW-Ph 结果表头
var HeadersEWPh = []string{
	"Source Start Structure",
	"Source End Structure",
	"Target Start Structure",
	"Target End Structure",
	"Source Set",
	"Target Set",
	"Station (m)",
	"Earth wire wind pressure",
	"Phase wire wind pressure",
	"C3",
	"Required Distance At Min. (m)",
	"Current distance (m)",
	"OK / NO OK",
	"Source Sheet",
}

// HeadersPhPh 风压 Ph-Ph 结果表头
var HeadersPhPh = []string{
	"Source Start Structure",
	"Source End Structure",
	"Target Start Structure",
	"Target End Structure",
	"Source Set",
	"Target Set",
	"Station (m)",
	"first wire wind pressure",
	"second wire wind pressure",
	"C3",
	"C4",
	"Required Distance At Min. (m)",
	"Current distance (m)",
	"OK / NO OK",
	"Source Sheet",
}

// UniqueSheetName 返回 <base>-Auto，已存在时取最小未占用的 <base>-Auto(n)
func UniqueSheetName(existing []string, base string) (string, error) {
	used := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		used[s] = struct{}{}
	}
	name := base + "-Auto"
	for n := 1; ; n++ {
		if _, ok := used[name]; !ok {
			break
		}
		name = fmt.Sprintf("%s-Auto(%d)", base, n)
	}
	if len([]rune(name)) > maxSheetNameLen {
		return "", fmt.Errorf("sheet name %q exceeds %d characters", name, maxSheetNameLen)
	}
	return name, nil
}

// AppendAutoSheet 在风压结果工作簿中新建 -Auto sheet 并写入表头和数据行，
// 工作簿不存在时创建。返回新 sheet 名。
func AppendAutoSheet(path, base string, headers []string, rows [][]interface{}) (string, error) {
	var (
		f       *excelize.File
		created bool
		err     error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		f, err = excelize.OpenFile(path)
		if err != nil {
			return "", fmt.Errorf("open wind results workbook %s: %w", path, err)
		}
	} else {
		f = excelize.NewFile()
		created = true
	}
	defer f.Close()

	name, err := UniqueSheetName(f.GetSheetList(), base)
	if err != nil {
		return "", err
	}
	if _, err := f.NewSheet(name); err != nil {
		return "", fmt.Errorf("create sheet %q: %w", name, err)
	}
	if created {
		// 新建工作簿自带的默认 sheet
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return "", err
		}
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return "", fmt.Errorf("write header of %q: %w", name, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		r := row
		if err := f.SetSheetRow(name, cell, &r); err != nil {
			return "", fmt.Errorf("write row %d of %q: %w", i+2, name, err)
		}
	}

	if err := SaveAtomic(f, path); err != nil {
		return "", err
	}
	return name, nil
}

// EWPhRow 风压 EW-Ph 结果行，风压按地线侧/相线侧归位。
// 系数列写入非零的 C3/C4，使其与 Required 一致。
func EWPhRow(w model.WindWinner, earthWire []int) []interface{} {
	coef := w.C3
	if coef == 0 {
		coef = w.C4
	}
	ewP, phP := w.ID.P1, w.ID.P2
	if !containsInt(earthWire, w.ID.D1) && containsInt(earthWire, w.ID.D3) {
		ewP, phP = w.ID.P2, w.ID.P1
	}
	return []interface{}{
		w.Spans.Start, w.Spans.End,
		w.Spans.Start, w.Spans.End,
		w.ID.D1, w.ID.D3,
		w.Station,
		ewP, phP,
		coef,
		w.Required,
		cellNumber(w.MinDistance),
		w.Flag,
		w.Sheet,
	}
}

// PhPhRow 风压 Ph-Ph 结果行，为 0 的系数留空
func PhPhRow(w model.WindWinner) []interface{} {
	return []interface{}{
		w.Spans.Start, w.Spans.End,
		w.Spans.Start, w.Spans.End,
		w.ID.D1, w.ID.D3,
		w.Station,
		w.ID.P1, w.ID.P2,
		blankZero(w.C3),
		blankZero(w.C4),
		w.Required,
		cellNumber(w.MinDistance),
		w.Flag,
		w.Sheet,
	}
}

func blankZero(v float64) interface{} {
	if v == 0 {
		return ""
	}
	return v
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
