package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/calculator"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/config"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/exporter"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/model"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/parser"
)

// ErrWindMastersMissing 输入目录中缺少左/右风压主工作簿
var ErrWindMastersMissing = errors.New("WindMasterLeft/Right workbooks not found")

// 主工作簿中补建 sheet 的表头
var windPlaceholderHeader = []string{"Station", "Sag of ???", "Distance Between Powerlines"}

// 侧别
const (
	SideLeft  = "Left"
	SideRight = "Right"
)

// WindInputs 风压工况输入文件
type WindInputs struct {
	Left       string
	Right      string
	Companions []string
}

// LocateWindInputs 在目录中查找左右主工作簿与左侧伴随文件
func LocateWindInputs(dir string, cfg config.WindConfig) (WindInputs, error) {
	var in WindInputs
	entries, err := os.ReadDir(dir)
	if err != nil {
		return in, fmt.Errorf("read input directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".xlsx") || strings.HasPrefix(name, "~$") {
			continue
		}
		path := filepath.Join(dir, name)
		switch {
		case parser.ContainsFold(name, cfg.LeftMarker):
			in.Left = path
		case parser.ContainsFold(name, cfg.RightMarker):
			in.Right = path
		case strings.Contains(name, cfg.CompanionEWTag) || strings.Contains(name, cfg.CompanionPhTag):
			in.Companions = append(in.Companions, path)
		}
	}
	if in.Left == "" || in.Right == "" {
		return in, fmt.Errorf("%w in %s", ErrWindMastersMissing, dir)
	}
	sort.Strings(in.Companions)
	return in, nil
}

type windMaster struct {
	side   string
	file   *excelize.File
	result model.FileResult
}

// RunWind 风压工况：在左右主工作簿中补齐计划内的 sheet，逐对线比较两侧最小实测距离，
// 结果写入风压结果工作簿新建的 -Auto sheet。缺少主工作簿时返回错误。
func (c *Coordinator) RunWind(inputDir string) (*model.RunReport, error) {
	report := c.startRun(ModeWind, inputDir)

	inputs, err := LocateWindInputs(inputDir, c.cfg.Wind)
	if err != nil {
		c.emit("error", nil, "%v", err)
		c.finishRun(report, err)
		return report, err
	}

	plan := parser.BuildWindPlan(inputs.Companions, c.cfg.Wind, c.cfg.Circuits.EarthWire)
	c.emit("start", nil, "Total sheets that should be processed: %d (%d pair(s))", len(plan.SheetNames()), len(plan.Entries))

	masters := make([]*windMaster, 0, 2)
	for _, m := range []struct{ side, path string }{{SideLeft, inputs.Left}, {SideRight, inputs.Right}} {
		f, err := excelize.OpenFile(m.path)
		if err != nil {
			for _, open := range masters {
				_ = open.file.Close()
			}
			err = fmt.Errorf("open %s master: %w", m.side, err)
			c.emit("error", nil, "%v", err)
			c.finishRun(report, err)
			return report, err
		}
		masters = append(masters, &windMaster{
			side:   m.side,
			file:   f,
			result: model.FileResult{Path: m.path, Status: model.StatusProcessed, ProcessedPath: m.path},
		})
	}
	defer func() {
		for _, m := range masters {
			_ = m.file.Close()
		}
	}()

	for _, m := range masters {
		for _, name := range plan.SheetNames() {
			created, err := exporter.EnsureSheet(m.file, name, windPlaceholderHeader)
			if err != nil {
				c.emit("error", nil, "  !! %s::%s: %v", m.side, name, err)
				continue
			}
			if created {
				c.emit("info", nil, "  + %s::%s created", m.side, name)
			}
		}
	}

	for i, entry := range plan.Entries {
		c.emit("file_start", nil, "[%3d/%d] processing sheet %s", i+1, len(plan.Entries), entry.Sheet)
		if entry.ID.Symmetrical() {
			c.emit("info", nil, "   . symmetrical sheet - skipped")
			for _, m := range masters {
				m.result.Sheets = append(m.result.Sheets, model.SheetResult{
					SheetName: entry.Sheet, Kind: model.SheetKindWind, Status: model.StatusSkipped,
					Category: string(entry.Family), Reason: "symmetrical pair",
				})
			}
			continue
		}

		winner, ok := c.evaluatePair(masters, entry)
		if !ok {
			c.emit("info", nil, "   . sheet contains no data on either side - skipped")
			continue
		}
		report.WindWinners = append(report.WindWinners, winner)
		c.emit("sheet_done", winner, "   -> %s::%s min=%.3f required=%.2f %s",
			winner.Side, winner.Sheet, winner.MinDistance, winner.Required, winner.Flag)
	}

	for _, m := range masters {
		if err := exporter.SaveAtomic(m.file, m.result.Path); err != nil {
			m.result.Status = model.StatusFailed
			m.result.Error = err.Error()
			c.emit("error", nil, "  !! save %s master: %v", m.side, err)
		}
		report.AddFile(m.result)
	}

	if err := c.writeWindResults(inputDir, report); err != nil {
		c.finishRun(report, err)
		return report, err
	}

	c.finishRun(report, nil)
	return report, nil
}

// evaluatePair 按 Left/A, Left/B, Right/A, Right/B 顺序收集候选，取全局最小实测距离
func (c *Coordinator) evaluatePair(masters []*windMaster, entry parser.WindPlanEntry) (model.WindWinner, bool) {
	variants := []string{entry.Sheet, parser.SwapWindSheetName(entry.Sheet)}

	var cands []model.WindCandidate
	for _, m := range masters {
		for _, variant := range variants {
			cand, sr, ok := c.evaluateVariant(m.file, m.side, variant)
			if sr != nil {
				sr.Category = string(entry.Family)
				m.result.Sheets = append(m.result.Sheets, *sr)
			}
			if ok {
				cands = append(cands, cand)
			}
		}
	}

	best, ok := calculator.SelectWindWinner(cands)
	if !ok {
		return model.WindWinner{}, false
	}
	return model.WindWinner{
		WindCandidate: best,
		Family:        parser.ClassifyWindFamily(best.ID, c.cfg.Circuits.EarthWire),
		Spans:         entry.Spans,
		Flag:          calculator.WindFlag(best.MinDistance, best.Required),
	}, true
}

// evaluateVariant 计算一侧一个 sheet 名变体；sheet 不存在时不产生结果
func (c *Coordinator) evaluateVariant(f *excelize.File, side, sheet string) (model.WindCandidate, *model.SheetResult, bool) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return model.WindCandidate{}, nil, false
	}
	start := time.Now()
	sr := &model.SheetResult{SheetName: sheet, Kind: model.SheetKindWind}

	fail := func(err error) (model.WindCandidate, *model.SheetResult, bool) {
		c.emit("sheet_failed", nil, "   !! %s::%s skipped - %v", side, sheet, err)
		sr.Status = model.StatusFailed
		sr.Reason = err.Error()
		sr.Duration = time.Since(start)
		return model.WindCandidate{}, sr, false
	}

	id, err := parser.ParseWindSheetName(sheet)
	if err != nil {
		return fail(err)
	}
	tbl, err := parser.ReadTable(f, sheet)
	if err != nil {
		return fail(err)
	}
	if tbl.Len() == 0 {
		sr.Status = model.StatusSkipped
		sr.Reason = "no data rows"
		sr.Duration = time.Since(start)
		return model.WindCandidate{}, sr, false
	}

	res, err := c.calc.WindColumns(tbl, id)
	if err != nil {
		return fail(err)
	}
	if err := exporter.WriteDerivedColumns(f, tbl, res.Columns()); err != nil {
		return fail(err)
	}
	sr.Duration = time.Since(start)
	if !res.HasData {
		sr.Status = model.StatusSkipped
		sr.Reason = "no numeric distance"
		return model.WindCandidate{}, sr, false
	}
	sr.Status = model.StatusProcessed
	return res.Candidate(side, sheet), sr, true
}

// writeWindResults 按类别新建 -Auto sheet 写入胜出结果
func (c *Coordinator) writeWindResults(inputDir string, report *model.RunReport) error {
	var ewPh, phPh [][]interface{}
	for _, w := range report.WindWinners {
		if w.Family == model.WindFamilyEWPh {
			ewPh = append(ewPh, exporter.EWPhRow(w, c.cfg.Circuits.EarthWire))
		} else {
			phPh = append(phPh, exporter.PhPhRow(w))
		}
	}
	c.emit("info", nil, "EW-Ph rows : %d", len(ewPh))
	c.emit("info", nil, "Ph-Ph rows : %d", len(phPh))

	path := config.ResolvePath(inputDir, c.cfg.Paths.WindResultsWorkbook)
	outputs := []struct {
		base    string
		headers []string
		rows    [][]interface{}
	}{
		{c.cfg.Sheets.WindEWPh, exporter.HeadersEWPh, ewPh},
		{c.cfg.Sheets.WindPhPh, exporter.HeadersPhPh, phPh},
	}
	for _, o := range outputs {
		if len(o.rows) == 0 {
			continue
		}
		name, err := exporter.AppendAutoSheet(path, o.base, o.headers, o.rows)
		if err != nil {
			err = fmt.Errorf("write wind results: %w", err)
			c.emit("error", nil, "%v", err)
			return err
		}
		report.OutputSheets = append(report.OutputSheets, name)
		c.emit("info", nil, "   -> wrote %d row(s) to %s in %s", len(o.rows), name, filepath.Base(path))
	}
	return nil
}
