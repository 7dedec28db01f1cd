package importer

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/calculator"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/config"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/exporter"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/model"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/parser"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/store"
)

// 运行模式
const (
	ModeClearance = "calc"
	ModeWind      = "wind"
)

// History 运行历史记录接口（可选）
type History interface {
	CreateRun(id, mode, inputDir string, startedAt time.Time) error
	CompleteRun(report *model.RunReport, errorMessage string) error
	InsertSummaries(runID string, rows []store.SummaryRecord) error
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"` // start/file_start/sheet_done/sheet_failed/file_done/done/error
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Coordinator 批处理协调器：逐文件、逐 sheet 执行，单项失败不影响其余项
type Coordinator struct {
	cfg      *config.AppConfig
	calc     *calculator.Calculator
	logger   *log.Logger
	history  History
	progress func(ProgressEvent)
}

// NewCoordinator 创建协调器，logger 为 nil 时使用标准 logger
func NewCoordinator(cfg *config.AppConfig, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{
		cfg:    cfg,
		calc:   calculator.FromConfig(cfg),
		logger: logger,
	}
}

// SetHistory 设置运行历史存储
func (c *Coordinator) SetHistory(h History) {
	c.history = h
}

// OnProgress 设置进度回调
func (c *Coordinator) OnProgress(fn func(ProgressEvent)) {
	c.progress = fn
}

// ScanInput 列出目录下匹配 glob 的工作簿（排序，忽略 _processed 副本与 Excel 锁文件）
func ScanInput(dir, glob string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return nil, fmt.Errorf("invalid input pattern %q: %w", glob, err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		if strings.HasPrefix(base, "~$") || exporter.IsProcessedPath(m) {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// RunClearance 10°C 工况：处理每个文件，写 _processed 副本并把每个 sheet 的最不利行追加到汇总工作簿。
// 汇总工作簿缺失或缺少分类 sheet 时返回错误，其余失败只记录在报告中。
func (c *Coordinator) RunClearance(inputDir string, files []string) (*model.RunReport, error) {
	report := c.startRun(ModeClearance, inputDir)

	resultsPath := config.ResolvePath(inputDir, c.cfg.Paths.ResultsWorkbook)
	results, err := exporter.OpenResultsWorkbook(resultsPath, c.cfg.Sheets, c.cfg.Formula.WeatherCelsius)
	if err != nil {
		c.emit("error", nil, "results workbook: %v", err)
		c.finishRun(report, err)
		return report, err
	}
	defer results.Close()

	c.emit("start", nil, "Processing %d file(s), results -> %s", len(files), filepath.Base(resultsPath))

	for i, path := range files {
		c.emit("file_start", nil, "[%d/%d] %s", i+1, len(files), filepath.Base(path))
		fr := c.processClearanceFile(path)

		if fr.Status == model.StatusProcessed && len(fr.Summaries) > 0 {
			if err := results.Commit(fr.Summaries); err != nil {
				fr.Status = model.StatusFailed
				fr.Error = err.Error()
				fr.Summaries = nil
				c.emit("error", nil, "  !! %s: %v", filepath.Base(path), err)
			}
		}
		report.AddFile(fr)
		if fr.Status == model.StatusProcessed {
			c.emit("file_done", fr, "  -> written %s", filepath.Base(fr.ProcessedPath))
		}
	}

	c.finishRun(report, nil)
	return report, nil
}

// processClearanceFile 处理单个源文件
func (c *Coordinator) processClearanceFile(path string) model.FileResult {
	fr := model.FileResult{Path: path, Status: model.StatusProcessed}

	spans, err := parser.ParseFilename(path)
	if err != nil {
		fr.Status = model.StatusFailed
		fr.Error = err.Error()
		c.emit("error", nil, "  !! %s skipped: %v", filepath.Base(path), err)
		return fr
	}
	c.emit("info", nil, "  spans %s -> %s", spans.Start, spans.End)

	f, err := excelize.OpenFile(path)
	if err != nil {
		fr.Status = model.StatusFailed
		fr.Error = fmt.Sprintf("open workbook: %v", err)
		c.emit("error", nil, "  !! %s: %v", filepath.Base(path), err)
		return fr
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		sr, sum := c.processClearanceSheet(f, sheet, spans)
		sr.SheetName = sheet
		fr.Sheets = append(fr.Sheets, sr)
		if sum != nil {
			sum.SourceFile = filepath.Base(path)
			fr.Summaries = append(fr.Summaries, *sum)
		}
	}

	fr.ProcessedPath = exporter.ProcessedPath(path)
	if err := exporter.SaveAtomic(f, fr.ProcessedPath); err != nil {
		fr.Status = model.StatusFailed
		fr.Error = err.Error()
		fr.Summaries = nil
		c.emit("error", nil, "  !! %s: %v", filepath.Base(path), err)
	}
	return fr
}

func (c *Coordinator) processClearanceSheet(f *excelize.File, sheet string, spans model.SpanCodes) (model.SheetResult, *model.Summary) {
	start := time.Now()
	ident := parser.IdentifySheet(sheet)
	if ident.Kind != model.SheetKindClearance {
		// 非 d1-d2_d3-d4 命名的 sheet 静默跳过
		return model.SheetResult{Kind: ident.Kind, Status: model.StatusSkipped, Reason: "sheet name does not match"}, nil
	}

	category := c.calc.Classifier().Category(ident.Clearance)
	fail := func(err error) (model.SheetResult, *model.Summary) {
		c.emit("sheet_failed", nil, "    . %s (%s) !! skipped: %v", sheet, category, err)
		return model.SheetResult{
			Kind:     ident.Kind,
			Status:   model.StatusFailed,
			Category: string(category),
			Reason:   err.Error(),
			Duration: time.Since(start),
		}, nil
	}

	tbl, err := parser.ReadTable(f, sheet)
	if err != nil {
		return fail(err)
	}
	if len(tbl.Header) == 0 {
		return fail(fmt.Errorf("%w: %q", parser.ErrEmptySheet, sheet))
	}
	res, err := c.calc.ProcessSheet(tbl, ident.Clearance)
	if err != nil {
		return fail(err)
	}
	if err := exporter.WriteDerivedColumns(f, tbl, res.Columns()); err != nil {
		return fail(err)
	}

	sum := res.Summary(sheet, spans)
	c.emit("sheet_done", sum, "    . %s (%s) worst row %d diff=%.3f %s", sheet, category, sum.RowNumber, sum.Diff, sum.Flag)
	return model.SheetResult{
		Kind:     ident.Kind,
		Status:   model.StatusProcessed,
		Category: string(category),
		Duration: time.Since(start),
	}, &sum
}

func (c *Coordinator) startRun(mode, inputDir string) *model.RunReport {
	report := &model.RunReport{
		RunID:     uuid.NewString(),
		Mode:      mode,
		InputDir:  inputDir,
		StartedAt: time.Now(),
	}
	if c.history != nil {
		if err := c.history.CreateRun(report.RunID, mode, inputDir, report.StartedAt); err != nil {
			c.logger.Printf("history: %v", err)
		}
	}
	return report
}

// finishRun 汇总计数并写入历史；历史写入失败只记录日志
func (c *Coordinator) finishRun(report *model.RunReport, runErr error) {
	report.Duration = time.Since(report.StartedAt)

	if runErr == nil {
		c.emit("done", report, "Done: %d file(s), %d failed; sheets %d processed, %d skipped, %d failed",
			len(report.Files), report.FilesFailed, report.SheetsProcessed, report.SheetsSkipped, report.SheetsFailed)
	}
	if c.history == nil {
		return
	}

	var records []store.SummaryRecord
	for _, s := range report.Summaries() {
		records = append(records, store.FromSummary(s))
	}
	for _, w := range report.WindWinners {
		records = append(records, store.FromWindWinner(w))
	}
	if err := c.history.InsertSummaries(report.RunID, records); err != nil {
		c.logger.Printf("history: %v", err)
	}
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	if err := c.history.CompleteRun(report, msg); err != nil {
		c.logger.Printf("history: %v", err)
	}
}

func (c *Coordinator) emit(typ string, data interface{}, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	c.logger.Print(msg)
	if c.progress != nil {
		c.progress(ProgressEvent{Type: typ, Message: msg, Data: data, Timestamp: time.Now()})
	}
}
