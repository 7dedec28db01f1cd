package model

import "math"

// CircuitGroup 导线所属回路
type CircuitGroup int

const (
	EarthWire CircuitGroup = 0 // 地线或未知回路
	Circuit1  CircuitGroup = 1
	Circuit2  CircuitGroup = 2
)

// String 返回回路名称
func (g CircuitGroup) String() string {
	switch g {
	case Circuit1:
		return "circuit-1"
	case Circuit2:
		return "circuit-2"
	default:
		return "earth-wire"
	}
}

// Category 10°C 工况结果分类
type Category string

const (
	CategoryPhasePhase     Category = "Ph-Ph" // 相-相
	CategoryPhaseEarthWire Category = "Ph-EW" // 相-地线
)

// WindFamily 风压工况结果分类
type WindFamily string

const (
	WindFamilyEWPh WindFamily = "EW-Ph"
	WindFamilyPhPh WindFamily = "Ph-Ph"
)

// ClearanceRow 单行计算结果，缺失/非数值输入以 NaN 表示
type ClearanceRow struct {
	Beta      float64 `json:"beta"`
	Measured  float64 `json:"measured"` // Distance Between Powerlines
	Sag       float64 `json:"sag"`
	K         float64 `json:"k"`
	LK        float64 `json:"lk"`
	C1        float64 `json:"c1"`
	C2        float64 `json:"c2"`
	Required  float64 `json:"required"`
	Diff      float64 `json:"diff"`
	WorstCase float64 `json:"worstCase"` // 仅最不利行有值
}

// Valid 该行 diff 是否可比较
func (r ClearanceRow) Valid() bool {
	return !math.IsNaN(r.Diff) && !math.IsInf(r.Diff, 0)
}

// Summary 每个 sheet 一条的最不利行汇总
type Summary struct {
	SourceFile string    `json:"sourceFile"`
	Sheet      string    `json:"sheet"`
	Category   Category  `json:"category"`
	Spans      SpanCodes `json:"spans"`
	ID         SheetID   `json:"id"`
	RowNumber  int       `json:"rowNumber"` // Excel 行号（表头为第 1 行）
	Station    string    `json:"station"`

	Sag      float64 `json:"sag"`
	LK       float64 `json:"lk"`
	Beta     float64 `json:"beta"`
	K        float64 `json:"k"`
	C1       float64 `json:"c1"`
	C2       float64 `json:"c2"`
	Required float64 `json:"required"`
	Measured float64 `json:"measured"`
	Diff     float64 `json:"diff"`
	Flag     string  `json:"flag"` // ok / not ok
}

// WindCandidate 某一侧工作簿中某个 sheet 名变体的最小实测距离
type WindCandidate struct {
	Side        string      `json:"side"` // Left / Right
	Sheet       string      `json:"sheet"`
	ID          WindSheetID `json:"id"`
	RowIndex    int         `json:"rowIndex"`
	Station     string      `json:"station"`
	MinDistance float64     `json:"minDistance"`
	C3          float64     `json:"c3"`
	C4          float64     `json:"c4"`
	Required    float64     `json:"required"`
}

// WindWinner 一对线的最终结果
type WindWinner struct {
	WindCandidate
	Family WindFamily `json:"family"`
	Spans  SpanCodes  `json:"spans"`
	Flag   string     `json:"flag"` // OK / NO OK
}

// DerivedColumn 回写到源 sheet 的派生列
type DerivedColumn struct {
	Name   string
	Values []float64
}
