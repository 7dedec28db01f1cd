package calculator

import (
	"errors"
	"fmt"
	"math"

	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/circuit"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/config"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/model"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/parser"
)

// 派生列名（写回 _processed 工作簿）
const (
	ColSag       = "sag"
	ColK         = "K"
	ColLK        = "LK"
	ColC1        = "C1"
	ColC2        = "C2"
	ColRequired  = "required-distance"
	ColDiff      = "diff"
	ColWorstCase = "worst-case"
)

// 结果标记
const (
	FlagOK    = "ok"
	FlagNotOK = "not ok"
)

// ErrNoComparableRows sheet 中没有任何一行能算出数值 diff
var ErrNoComparableRows = errors.New("no row with a numeric clearance difference")

// Calculator 净距计算器
type Calculator struct {
	classifier *circuit.Classifier
	formula    config.FormulaConfig
	columns    config.ColumnsConfig
}

// NewCalculator 创建计算器
func NewCalculator(classifier *circuit.Classifier, formula config.FormulaConfig, columns config.ColumnsConfig) *Calculator {
	return &Calculator{
		classifier: classifier,
		formula:    formula,
		columns:    columns,
	}
}

// FromConfig 由应用配置创建计算器
func FromConfig(cfg *config.AppConfig) *Calculator {
	return NewCalculator(circuit.FromConfig(cfg.Circuits), cfg.Formula, cfg.Columns)
}

// Classifier 返回回路分类器
func (c *Calculator) Classifier() *circuit.Classifier {
	return c.classifier
}

// SheetResult 单个 sheet 的计算结果
type SheetResult struct {
	ID         model.SheetID
	Category   model.Category
	SagColumns [2]string
	Rows       []model.ClearanceRow
	Stations   []string
	WorstIndex int
}

// ProcessSheet 逐行计算 sag/K/LK/C1/C2/required-distance/diff，并选出最不利行
func (c *Calculator) ProcessSheet(t *parser.Table, id model.SheetID) (*SheetResult, error) {
	col12, err := parser.ResolveDistanceColumn(t, id.D1, id.D2)
	if err != nil {
		return nil, err
	}
	col34, err := parser.ResolveDistanceColumn(t, id.D3, id.D4)
	if err != nil {
		return nil, err
	}

	sag12, err := t.Floats(col12)
	if err != nil {
		return nil, err
	}
	sag34, err := t.Floats(col34)
	if err != nil {
		return nil, err
	}
	beta, err := t.Floats(c.columns.Beta)
	if err != nil {
		return nil, err
	}
	measured, err := t.Floats(c.columns.Measured)
	if err != nil {
		return nil, err
	}

	// Station 仅用于汇总标注，缺列时留空
	stations, err := t.Strings(c.columns.Station)
	if err != nil {
		stations = make([]string, t.Len())
	}

	cir1 := c.classifier.Classify(id.D1)
	cir3 := c.classifier.Classify(id.D3)
	c1, c2, earth := c.CircuitOffsets(cir1, cir3)

	rows := make([]model.ClearanceRow, t.Len())
	for i := range rows {
		row := model.ClearanceRow{
			Beta:      beta[i],
			Measured:  measured[i],
			Sag:       nanMax(sag12[i], sag34[i]),
			K:         c.KFactor(beta[i]),
			LK:        c.formula.LK,
			C1:        c1,
			C2:        c2,
			WorstCase: math.NaN(),
		}
		if earth {
			// 地线：固定阈值，不考虑 K 与弧垂
			row.Required = c1
		} else {
			row.Required = RequiredDistance(row.K, row.Sag, row.LK, row.C1, row.C2)
		}
		row.Diff = row.Measured - row.Required
		rows[i] = row
	}

	worst, ok := SelectWorstCase(rows)
	if !ok {
		return nil, fmt.Errorf("sheet %q: %w", t.Sheet, ErrNoComparableRows)
	}
	rows[worst].WorstCase = rows[worst].Diff

	return &SheetResult{
		ID:         id,
		Category:   c.classifier.Category(id),
		SagColumns: [2]string{col12, col34},
		Rows:       rows,
		Stations:   stations,
		WorstIndex: worst,
	}, nil
}

// KFactor K = -(0.1/90)*beta + 0.75
func (c *Calculator) KFactor(beta float64) float64 {
	return c.formula.KSlope*beta + c.formula.KIntercept
}

// CircuitOffsets 按两端回路确定 C1/C2；任一端为地线时 earth 为 true
func (c *Calculator) CircuitOffsets(cir1, cir3 model.CircuitGroup) (c1, c2 float64, earth bool) {
	if cir1 == model.EarthWire || cir3 == model.EarthWire {
		return c.formula.C1EarthWire, 0, true
	}
	if cir1 == cir3 {
		return c.formula.C1SameCircuit, 0, false
	}
	return 0, c.formula.C2DiffCircuit, false
}

// RequiredDistance K*sqrt(sag+LK) + C1 + C2，任一输入为 NaN 时结果为 NaN
func RequiredDistance(k, sag, lk, c1, c2 float64) float64 {
	return k*math.Sqrt(sag+lk) + c1 + c2
}

// SelectWorstCase 返回 diff 最小的行（跳过 NaN，相等时取第一行）
func SelectWorstCase(rows []model.ClearanceRow) (int, bool) {
	idx := -1
	for i, r := range rows {
		if !r.Valid() {
			continue
		}
		if idx < 0 || r.Diff < rows[idx].Diff {
			idx = i
		}
	}
	return idx, idx >= 0
}

// Flag required <= measured 为 ok
func Flag(required, measured float64) string {
	if required <= measured {
		return FlagOK
	}
	return FlagNotOK
}

// Summary 生成最不利行的汇总记录
func (r *SheetResult) Summary(sheet string, spans model.SpanCodes) model.Summary {
	w := r.Rows[r.WorstIndex]
	return model.Summary{
		Sheet:     sheet,
		Category:  r.Category,
		Spans:     spans,
		ID:        r.ID,
		RowNumber: r.WorstIndex + 2,
		Station:   r.Stations[r.WorstIndex],
		Sag:       w.Sag,
		LK:        w.LK,
		Beta:      w.Beta,
		K:         w.K,
		C1:        w.C1,
		C2:        w.C2,
		Required:  w.Required,
		Measured:  w.Measured,
		Diff:      w.Diff,
		Flag:      Flag(w.Required, w.Measured),
	}
}

// Columns 派生列，顺序与写回顺序一致
func (r *SheetResult) Columns() []model.DerivedColumn {
	n := len(r.Rows)
	cols := []model.DerivedColumn{
		{Name: ColSag, Values: make([]float64, n)},
		{Name: ColK, Values: make([]float64, n)},
		{Name: ColLK, Values: make([]float64, n)},
		{Name: ColC1, Values: make([]float64, n)},
		{Name: ColC2, Values: make([]float64, n)},
		{Name: ColRequired, Values: make([]float64, n)},
		{Name: ColDiff, Values: make([]float64, n)},
		{Name: ColWorstCase, Values: make([]float64, n)},
	}
	for i, row := range r.Rows {
		cols[0].Values[i] = row.Sag
		cols[1].Values[i] = row.K
		cols[2].Values[i] = row.LK
		cols[3].Values[i] = row.C1
		cols[4].Values[i] = row.C2
		cols[5].Values[i] = row.Required
		cols[6].Values[i] = row.Diff
		cols[7].Values[i] = row.WorstCase
	}
	return cols
}

// nanMax 行内取最大值，忽略 NaN（两者均为 NaN 时返回 NaN）
func nanMax(a, b float64) float64 {
	switch {
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	default:
		return math.Max(a, b)
	}
}
