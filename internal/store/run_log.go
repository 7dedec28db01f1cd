package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/model"
)

// ErrRunNotFound 指定运行记录不存在
var ErrRunNotFound = errors.New("run not found")

// RunRecord runs 表一行
type RunRecord struct {
	ID              string
	Mode            string
	InputDir        string
	Status          string
	FilesTotal      int
	FilesFailed     int
	SheetsProcessed int
	SheetsSkipped   int
	SheetsFailed    int
	StartedAt       time.Time
	CompletedAt     *time.Time
	ErrorMessage    string
}

// SummaryRecord summaries 表一行，缺失数值为 NaN
type SummaryRecord struct {
	RunID      string
	SourceFile string
	Sheet      string
	Category   string
	Station    string
	Required   float64
	Measured   float64
	Diff       float64
	Flag       string
}

// CreateRun 新建运行记录（status=running）
func (s *Store) CreateRun(id, mode, inputDir string, startedAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, mode, input_dir, status, started_at)
		VALUES (?, ?, ?, 'running', ?)
	`, id, mode, inputDir, startedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun 用运行报告更新计数与状态
func (s *Store) CompleteRun(report *model.RunReport, errorMessage string) error {
	status := report.Status()
	if errorMessage != "" {
		status = "failed"
	}
	res, err := s.db.Exec(`
		UPDATE runs SET
			status = ?,
			files_total = ?,
			files_failed = ?,
			sheets_processed = ?,
			sheets_skipped = ?,
			sheets_failed = ?,
			error_message = ?,
			completed_at = ?
		WHERE id = ?
	`, status, len(report.Files), report.FilesFailed, report.SheetsProcessed,
		report.SheetsSkipped, report.SheetsFailed, errorMessage,
		report.StartedAt.Add(report.Duration).UTC(), report.RunID)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("complete run %s: %w", report.RunID, ErrRunNotFound)
	}
	return nil
}

// InsertSummaries 批量写入汇总行（单事务）
func (s *Store) InsertSummaries(runID string, rows []SummaryRecord) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO summaries (run_id, source_file, sheet, category, station, required, measured, diff, flag)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare summary insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(runID, r.SourceFile, r.Sheet, r.Category, r.Station,
			nullFloat(r.Required), nullFloat(r.Measured), nullFloat(r.Diff), r.Flag); err != nil {
			return fmt.Errorf("failed to insert summary %s/%s: %w", r.SourceFile, r.Sheet, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit summaries: %w", err)
	}
	return nil
}

// GetRun 按 id 读取运行记录
func (s *Store) GetRun(id string) (*RunRecord, error) {
	var (
		r         RunRecord
		completed sql.NullTime
	)
	err := s.db.QueryRow(`
		SELECT id, mode, input_dir, status, files_total, files_failed,
			sheets_processed, sheets_skipped, sheets_failed,
			started_at, completed_at, error_message
		FROM runs WHERE id = ?
	`, id).Scan(&r.ID, &r.Mode, &r.InputDir, &r.Status, &r.FilesTotal, &r.FilesFailed,
		&r.SheetsProcessed, &r.SheetsSkipped, &r.SheetsFailed,
		&r.StartedAt, &completed, &r.ErrorMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	if completed.Valid {
		t := completed.Time
		r.CompletedAt = &t
	}
	return &r, nil
}

// ListSummaries 按写入顺序列出某次运行的汇总行
func (s *Store) ListSummaries(runID string) ([]SummaryRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, source_file, sheet, category, station, required, measured, diff, flag
		FROM summaries WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var out []SummaryRecord
	for rows.Next() {
		var (
			r                        SummaryRecord
			required, measured, diff sql.NullFloat64
		)
		if err := rows.Scan(&r.RunID, &r.SourceFile, &r.Sheet, &r.Category, &r.Station,
			&required, &measured, &diff, &r.Flag); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		r.Required = floatOrNaN(required)
		r.Measured = floatOrNaN(measured)
		r.Diff = floatOrNaN(diff)
		out = append(out, r)
	}
	return out, rows.Err()
}

// FromSummary 10°C 工况汇总转为存储记录
func FromSummary(sum model.Summary) SummaryRecord {
	return SummaryRecord{
		SourceFile: sum.SourceFile,
		Sheet:      sum.Sheet,
		Category:   string(sum.Category),
		Station:    sum.Station,
		Required:   sum.Required,
		Measured:   sum.Measured,
		Diff:       sum.Diff,
		Flag:       sum.Flag,
	}
}

// FromWindWinner 风压工况结果转为存储记录
func FromWindWinner(w model.WindWinner) SummaryRecord {
	return SummaryRecord{
		SourceFile: w.Side,
		Sheet:      w.Sheet,
		Category:   string(w.Family),
		Station:    w.Station,
		Required:   w.Required,
		Measured:   w.MinDistance,
		Diff:       w.MinDistance - w.Required,
		Flag:       w.Flag,
	}
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
