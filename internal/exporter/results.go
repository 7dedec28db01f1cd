package exporter

import (
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/config"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/model"
)

var (
	// ErrResultsWorkbookMissing 10°C 工况的汇总工作簿必须预先存在
	ErrResultsWorkbookMissing = errors.New("results workbook not found")
	// ErrTemplateSheetMissing 汇总工作簿缺少分类 sheet
	ErrTemplateSheetMissing = errors.New("results workbook is missing a template sheet")
)

// Ph-Ph 结果列（A..U）
var phPhColumns = map[string]string{
	"row": "A", "srcStart": "B", "srcEnd": "C", "srcSet": "D", "srcPhase": "E",
	"tgtStart": "F", "tgtEnd": "G", "tgtSet": "H", "tgtPhase": "I", "station": "J",
	"sag": "K", "lk": "L", "weather": "M", "beta": "N", "w": "O", "k": "P",
	"c1": "Q", "c2": "R", "req": "S", "cur": "T", "ok": "U",
}

// Ph-EW 结果列（A..P），风压列 K 留空，M 列写入 C2
var phEWColumns = map[string]string{
	"row": "A", "srcStart": "B", "srcEnd": "C", "srcSet": "D", "srcPhase": "E",
	"tgtStart": "F", "tgtEnd": "G", "tgtSet": "H", "tgtPhase": "I", "station": "J",
	"wind": "K", "c1": "L", "c3": "M", "req": "N", "cur": "O", "ok": "P",
}

// ResultsWorkbook 共享汇总工作簿，一次运行内独占
type ResultsWorkbook struct {
	path    string
	weather int
	file    *excelize.File
	sheets  map[model.Category]string
	next    map[string]int
	stale   bool // 上次保存失败，内存中的行不可再写盘
}

// OpenResultsWorkbook 打开汇总工作簿，按现有行数初始化每个分类 sheet 的写入游标。
// weatherCelsius 写入 Ph-Ph 结果的 weather 列。
func OpenResultsWorkbook(path string, sheets config.SheetsConfig, weatherCelsius int) (*ResultsWorkbook, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrResultsWorkbookMissing, path)
	}
	rw := &ResultsWorkbook{
		path:    path,
		weather: weatherCelsius,
		sheets: map[model.Category]string{
			model.CategoryPhasePhase:     sheets.PhasePhase,
			model.CategoryPhaseEarthWire: sheets.PhaseEarthWire,
		},
	}
	if err := rw.load(); err != nil {
		return nil, err
	}
	return rw, nil
}

// load 从磁盘读取工作簿并重建游标，成功后才替换当前状态
func (rw *ResultsWorkbook) load() error {
	f, err := excelize.OpenFile(rw.path)
	if err != nil {
		return fmt.Errorf("open results workbook %s: %w", rw.path, err)
	}
	next := make(map[string]int, len(rw.sheets))
	for _, name := range rw.sheets {
		idx, err := f.GetSheetIndex(name)
		if err != nil || idx < 0 {
			_ = f.Close()
			return fmt.Errorf("%w: %q", ErrTemplateSheetMissing, name)
		}
		rows, err := f.GetRows(name)
		if err != nil {
			_ = f.Close()
			return fmt.Errorf("read results sheet %q: %w", name, err)
		}
		next[name] = len(rows) + 1
	}
	if rw.file != nil {
		_ = rw.file.Close()
	}
	rw.file, rw.next, rw.stale = f, next, false
	return nil
}

// NextRow 分类 sheet 的下一个空行
func (rw *ResultsWorkbook) NextRow(cat model.Category) int {
	return rw.next[rw.sheets[cat]]
}

// Append 将一条最不利行汇总写入对应分类 sheet
func (rw *ResultsWorkbook) Append(sum model.Summary) error {
	sheet, ok := rw.sheets[sum.Category]
	if !ok {
		return fmt.Errorf("unknown summary category %q", sum.Category)
	}
	row := rw.next[sheet]

	cols := phPhColumns
	if sum.Category == model.CategoryPhaseEarthWire {
		cols = phEWColumns
	}
	values := map[string]interface{}{
		"row":      sum.RowNumber,
		"srcStart": sum.Spans.Start,
		"srcEnd":   sum.Spans.End,
		"srcSet":   sum.ID.D1,
		"srcPhase": sum.ID.D2,
		"tgtStart": sum.Spans.Start,
		"tgtEnd":   sum.Spans.End,
		"tgtSet":   sum.ID.D3,
		"tgtPhase": sum.ID.D4,
		"station":  sum.Station,
		"req":      cellNumber(sum.Required),
		"cur":      cellNumber(sum.Measured),
		"ok":       sum.Flag,
		"c1":       cellNumber(sum.C1),
	}
	if sum.Category == model.CategoryPhaseEarthWire {
		values["c3"] = cellNumber(sum.C2)
	} else {
		values["sag"] = cellNumber(sum.Sag)
		values["lk"] = cellNumber(sum.LK)
		values["beta"] = cellNumber(sum.Beta)
		values["k"] = cellNumber(sum.K)
		values["c2"] = cellNumber(sum.C2)
		values["weather"] = rw.weather
	}

	for key, v := range values {
		col, ok := cols[key]
		if !ok {
			continue
		}
		if err := rw.file.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v); err != nil {
			return fmt.Errorf("write %s!%s%d: %w", sheet, col, row, err)
		}
	}
	rw.next[sheet] = row + 1
	return nil
}

// Save 原子保存
func (rw *ResultsWorkbook) Save() error {
	return SaveAtomic(rw.file, rw.path)
}

// Commit 追加一个文件的全部汇总行并保存。
// 失败时这些行作废：下次提交前先从磁盘重新加载，游标随之回退。
func (rw *ResultsWorkbook) Commit(sums []model.Summary) error {
	if rw.stale {
		if err := rw.load(); err != nil {
			return fmt.Errorf("reload results workbook: %w", err)
		}
	}
	for _, s := range sums {
		if err := rw.Append(s); err != nil {
			rw.stale = true
			return err
		}
	}
	if err := rw.Save(); err != nil {
		rw.stale = true
		return fmt.Errorf("save results workbook: %w", err)
	}
	return nil
}

// Close 释放工作簿
func (rw *ResultsWorkbook) Close() error {
	return rw.file.Close()
}
