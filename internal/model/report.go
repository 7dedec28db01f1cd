package model

import "time"

// ItemStatus 单个文件/sheet 的处理状态
type ItemStatus string

const (
	StatusProcessed ItemStatus = "processed"
	StatusSkipped   ItemStatus = "skipped"
	StatusFailed    ItemStatus = "failed"
)

// SheetResult sheet 处理结果
type SheetResult struct {
	SheetName string        `json:"sheetName"`
	Kind      SheetKind     `json:"kind"`
	Status    ItemStatus    `json:"status"`
	Category  string        `json:"category,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// FileResult 文件处理结果
type FileResult struct {
	Path          string        `json:"path"`
	Status        ItemStatus    `json:"status"`
	Error         string        `json:"error,omitempty"`
	ProcessedPath string        `json:"processedPath,omitempty"`
	Sheets        []SheetResult `json:"sheets"`
	Summaries     []Summary     `json:"summaries,omitempty"`
}

// RunReport 一次运行的汇总报告
type RunReport struct {
	RunID           string        `json:"runId"`
	Mode            string        `json:"mode"` // calc / wind
	InputDir        string        `json:"inputDir"`
	StartedAt       time.Time     `json:"startedAt"`
	Duration        time.Duration `json:"duration"`
	Files           []FileResult  `json:"files"`
	WindWinners     []WindWinner  `json:"windWinners,omitempty"`
	OutputSheets    []string      `json:"outputSheets,omitempty"`
	FilesFailed     int           `json:"filesFailed"`
	SheetsProcessed int           `json:"sheetsProcessed"`
	SheetsSkipped   int           `json:"sheetsSkipped"`
	SheetsFailed    int           `json:"sheetsFailed"`
}

// AddFile 记录文件结果并累计计数
func (r *RunReport) AddFile(f FileResult) {
	if f.Status == StatusFailed {
		r.FilesFailed++
	}
	for _, s := range f.Sheets {
		r.countSheet(s.Status)
	}
	r.Files = append(r.Files, f)
}

func (r *RunReport) countSheet(status ItemStatus) {
	switch status {
	case StatusProcessed:
		r.SheetsProcessed++
	case StatusSkipped:
		r.SheetsSkipped++
	case StatusFailed:
		r.SheetsFailed++
	}
}

// Summaries 返回所有文件的汇总行
func (r *RunReport) Summaries() []Summary {
	var out []Summary
	for _, f := range r.Files {
		out = append(out, f.Summaries...)
	}
	return out
}

// Status 整体状态：有失败项时为 partial
func (r *RunReport) Status() string {
	if r.FilesFailed > 0 || r.SheetsFailed > 0 {
		return "partial"
	}
	return "completed"
}
