package exporter

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/config"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/model"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/parser"
)

func buildResultsWorkbook(t *testing.T, path string, sheets config.SheetsConfig, existingRows int) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for _, name := range []string{sheets.PhasePhase, sheets.PhaseEarthWire} {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for r := 1; r <= existingRows; r++ {
			if err := f.SetCellValue(name, "A"+strconv.Itoa(r), "header"); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		t.Fatalf("delete default sheet: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestResultsWorkbook_AppendsAtCursor(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "results.xlsx")
	sheets := config.DefaultConfig().Sheets
	buildResultsWorkbook(t, path, sheets, 3)

	rw, err := OpenResultsWorkbook(path, sheets, 12)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := rw.NextRow(model.CategoryPhasePhase); got != 4 {
		t.Fatalf("next row=%d want 4", got)
	}

	spans := model.SpanCodes{Start: "TR1730a001", End: "TR1730a002"}
	phPh := model.Summary{
		Category: model.CategoryPhasePhase, Spans: spans,
		ID: model.SheetID{D1: 41, D2: 42, D3: 43, D4: 44}, RowNumber: 7, Station: "120",
		Sag: 10, LK: 2, Beta: 0, K: 0.75, C1: 1.93, C2: 0,
		Required: 4.528, Measured: 5, Diff: 0.472, Flag: "ok",
	}
	phEW := model.Summary{
		Category: model.CategoryPhaseEarthWire, Spans: spans,
		ID: model.SheetID{D1: 59, D2: 39, D3: 41, D4: 21}, RowNumber: 3, Station: "40",
		C1: 1.93, C2: 0, Required: 1.93, Measured: 1.5, Diff: -0.43, Flag: "not ok",
	}
	for _, s := range []model.Summary{phPh, phPh, phEW} {
		if err := rw.Append(s); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := rw.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = rw.Close()

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()

	checks := []struct{ sheet, cell, want string }{
		{sheets.PhasePhase, "A4", "7"},
		{sheets.PhasePhase, "B4", "TR1730a001"},
		{sheets.PhasePhase, "C4", "TR1730a002"},
		{sheets.PhasePhase, "H4", "43"},
		{sheets.PhasePhase, "J4", "120"},
		{sheets.PhasePhase, "M4", "12"},
		{sheets.PhasePhase, "U4", "ok"},
		{sheets.PhasePhase, "A5", "7"},
		{sheets.PhaseEarthWire, "A4", "3"},
		{sheets.PhaseEarthWire, "D4", "59"},
		{sheets.PhaseEarthWire, "K4", ""},
		{sheets.PhaseEarthWire, "N4", "1.93"},
		{sheets.PhaseEarthWire, "P4", "not ok"},
	}
	for _, c := range checks {
		got, err := f.GetCellValue(c.sheet, c.cell)
		if err != nil {
			t.Fatalf("%s!%s: %v", c.sheet, c.cell, err)
		}
		if got != c.want {
			t.Fatalf("%s!%s=%q want %q", c.sheet, c.cell, got, c.want)
		}
	}
}

func TestResultsWorkbook_FailedCommitIsDiscarded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "results.xlsx")
	sheets := config.DefaultConfig().Sheets
	buildResultsWorkbook(t, path, sheets, 1)

	rw, err := OpenResultsWorkbook(path, sheets, 10)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rw.Close()

	summary := func(station string) []model.Summary {
		return []model.Summary{{
			Category:  model.CategoryPhasePhase,
			ID:        model.SheetID{D1: 41, D2: 42, D3: 43, D4: 44},
			RowNumber: 2,
			Station:   station,
			Flag:      "ok",
		}}
	}
	if err := rw.Commit(summary("A")); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	// 目标路径被目录占据，重命名失败
	backup := filepath.Join(dir, "backup.xlsx")
	if err := os.Rename(path, backup); err != nil {
		t.Fatalf("move aside: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(path, "lock"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := rw.Commit(summary("B")); err == nil {
		t.Fatalf("expected save failure")
	}
	if err := os.RemoveAll(path); err != nil {
		t.Fatalf("remove dir: %v", err)
	}
	if err := os.Rename(backup, path); err != nil {
		t.Fatalf("restore: %v", err)
	}

	if err := rw.Commit(summary("C")); err != nil {
		t.Fatalf("third commit: %v", err)
	}
	if got := rw.NextRow(model.CategoryPhasePhase); got != 4 {
		t.Fatalf("next row=%d want 4", got)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()
	for cell, want := range map[string]string{"J2": "A", "J3": "C", "J4": ""} {
		got, err := f.GetCellValue(sheets.PhasePhase, cell)
		if err != nil {
			t.Fatalf("%s: %v", cell, err)
		}
		if got != want {
			t.Fatalf("%s=%q want %q", cell, got, want)
		}
	}
}

func TestOpenResultsWorkbook_Preconditions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sheets := config.DefaultConfig().Sheets

	if _, err := OpenResultsWorkbook(filepath.Join(dir, "missing.xlsx"), sheets, 10); !errors.Is(err, ErrResultsWorkbookMissing) {
		t.Fatalf("want ErrResultsWorkbookMissing, got %v", err)
	}

	path := filepath.Join(dir, "partial.xlsx")
	f := excelize.NewFile()
	if _, err := f.NewSheet(sheets.PhasePhase); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = f.Close()

	if _, err := OpenResultsWorkbook(path, sheets, 10); !errors.Is(err, ErrTemplateSheetMissing) {
		t.Fatalf("want ErrTemplateSheetMissing, got %v", err)
	}
}

func TestUniqueSheetName(t *testing.T) {
	t.Parallel()

	base := "Result_Dist_EW-Ph(Wind)"
	got, err := UniqueSheetName([]string{"Other"}, base)
	if err != nil || got != base+"-Auto" {
		t.Fatalf("got %q, %v", got, err)
	}
	got, err = UniqueSheetName([]string{base + "-Auto", base + "-Auto(1)", base + "-Auto(3)"}, base)
	if err != nil || got != base+"-Auto(2)" {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := UniqueSheetName(nil, "A_Very_Long_Sheet_Base_Name_Here"); err == nil {
		t.Fatalf("expected length error")
	}
}

func TestAppendAutoSheet_CreatesWorkbookAndVersions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "wind.xlsx")
	base := "Result_Dist_Ph-Ph(Wind)"
	winner := model.WindWinner{
		WindCandidate: model.WindCandidate{
			Side: "Left", Sheet: "41-21_W650_44-24_W390",
			ID:      model.WindSheetID{D1: 41, D2: 21, P1: 650, D3: 44, D4: 24, P2: 390},
			Station: "80", MinDistance: 1.7, C3: 0, C4: 1.6, Required: 1.6,
		},
		Family: model.WindFamilyPhPh,
		Spans:  model.SpanCodes{Start: "TR1730a001", End: "TR1730a002"},
		Flag:   "OK",
	}

	first, err := AppendAutoSheet(path, base, HeadersPhPh, [][]interface{}{PhPhRow(winner)})
	if err != nil {
		t.Fatalf("first append: %v", err)
	}
	second, err := AppendAutoSheet(path, base, HeadersPhPh, nil)
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if first != base+"-Auto" || second != base+"-Auto(1)" {
		t.Fatalf("names: %q %q", first, second)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()

	list := f.GetSheetList()
	if len(list) != 2 {
		t.Fatalf("sheets=%v", list)
	}
	rows, err := f.GetRows(first)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "Source Start Structure" {
		t.Fatalf("rows=%v", rows)
	}
	want := []string{"TR1730a001", "TR1730a002", "TR1730a001", "TR1730a002", "41", "44", "80", "650", "390", "", "1.6", "1.6", "1.7", "OK", "41-21_W650_44-24_W390"}
	for i, w := range want {
		if rows[1][i] != w {
			t.Fatalf("col %d=%q want %q (row %v)", i, rows[1][i], w, rows[1])
		}
	}
}

func TestEWPhRow_AssignsPressureBySide(t *testing.T) {
	t.Parallel()

	w := model.WindWinner{WindCandidate: model.WindCandidate{
		ID: model.WindSheetID{D1: 41, D2: 21, P1: 650, D3: 59, D4: 39, P2: 390},
		C3: 0, C4: 1.6, Required: 1.6,
	}}
	row := EWPhRow(w, []int{59, 39})
	if row[7] != 390 || row[8] != 650 {
		t.Fatalf("pressures=%v,%v", row[7], row[8])
	}
	if row[9] != 1.6 || row[10] != 1.6 {
		t.Fatalf("coefficient=%v required=%v, want both 1.6", row[9], row[10])
	}
	if len(row) != len(HeadersEWPh) || len(PhPhRow(w)) != len(HeadersPhPh) {
		t.Fatalf("row width does not match headers")
	}
}

func TestWriteDerivedColumns_OverwritesAndAppends(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	defer f.Close()
	seed := [][]interface{}{
		{"Station", "K", "Distance Between Powerlines"},
		{0, "stale", 5},
		{10, "stale", 6},
	}
	for i, r := range seed {
		row := r
		if err := f.SetSheetRow("Sheet1", "A"+strconv.Itoa(i+1), &row); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	tbl, err := parser.ReadTable(f, "Sheet1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	cols := []model.DerivedColumn{
		{Name: "K", Values: []float64{0.75, 0.7}},
		{Name: "diff", Values: []float64{0.5, math.NaN()}},
	}
	if err := WriteDerivedColumns(f, tbl, cols); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if got[0][1] != "K" || got[1][1] != "0.75" || got[2][1] != "0.7" {
		t.Fatalf("K not overwritten in place: %v", got)
	}
	if got[0][3] != "diff" || got[1][3] != "0.5" {
		t.Fatalf("diff not appended: %v", got)
	}
	if len(got[2]) > 3 && got[2][3] != "" {
		t.Fatalf("NaN should be empty, got %q", got[2][3])
	}

	if err := WriteDerivedColumns(f, tbl, []model.DerivedColumn{{Name: "x", Values: []float64{1}}}); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}

func TestSaveAtomic_LeavesNoTempFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.xlsx")
	f := excelize.NewFile()
	defer f.Close()

	if err := SaveAtomic(f, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.xlsx" {
		t.Fatalf("unexpected dir content: %v", entries)
	}
}

func TestSaveAtomic_KeepsFileMode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "shared.xlsx")
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.Chmod(path, 0640); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	if err := SaveAtomic(f, path); err != nil {
		t.Fatalf("save atomic: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Mode().Perm() != 0640 {
		t.Fatalf("mode=%v want 0640", fi.Mode().Perm())
	}

	fresh := filepath.Join(dir, "fresh.xlsx")
	if err := SaveAtomic(f, fresh); err != nil {
		t.Fatalf("save fresh: %v", err)
	}
	fi, err = os.Stat(fresh)
	if err != nil {
		t.Fatalf("stat fresh: %v", err)
	}
	if fi.Mode().Perm() != 0644 {
		t.Fatalf("fresh mode=%v want 0644", fi.Mode().Perm())
	}
}

func TestProcessedPath(t *testing.T) {
	t.Parallel()

	if got := ProcessedPath("/in/Cond_10C_TR1730a001_002.xlsx"); got != "/in/Cond_10C_TR1730a001_002_processed.xlsx" {
		t.Fatalf("got %q", got)
	}
	if !IsProcessedPath("/in/Cond_10C_TR1730a001_002_processed.xlsx") || IsProcessedPath("/in/Cond_10C_TR1730a001_002.xlsx") {
		t.Fatalf("IsProcessedPath mismatch")
	}
}
