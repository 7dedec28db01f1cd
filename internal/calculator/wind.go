package calculator

import (
	"math"

	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/model"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/parser"
)

// 风压工况派生列名
const (
	ColC3           = "C3"
	ColC4           = "C4"
	ColWindRequired = "Required distance"
)

// 风压工况结果标记
const (
	WindFlagOK    = "OK"
	WindFlagNotOK = "NO OK"
)

// WindSheetResult 风压 sheet 的计算结果
type WindSheetResult struct {
	ID          model.WindSheetID
	C3          float64
	C4          float64
	Required    float64
	Rows        int
	HasData     bool // 存在数值实测距离
	MinIndex    int
	MinDistance float64
	Station     string
}

// WindColumns 计算 C3/C4/Required distance，并找出实测距离最小的行
// 同回路：C3=1.35, C4=0；否则 C3=0, C4=1.60；Required = max(C3, C4)
func (c *Calculator) WindColumns(t *parser.Table, id model.WindSheetID) (*WindSheetResult, error) {
	measured, err := t.Floats(c.columns.Measured)
	if err != nil {
		return nil, err
	}
	stations, err := t.Strings(c.columns.Station)
	if err != nil {
		stations = make([]string, t.Len())
	}

	res := &WindSheetResult{ID: id, Rows: t.Len(), MinIndex: -1, MinDistance: math.NaN()}
	if c.classifier.SameCircuit(id.D1, id.D3) {
		res.C3, res.C4 = c.formula.C3SameCircuit, 0
	} else {
		res.C3, res.C4 = 0, c.formula.C4DiffCircuit
	}
	res.Required = math.Max(res.C3, res.C4)

	for i, d := range measured {
		if math.IsNaN(d) {
			continue
		}
		if res.MinIndex < 0 || d < res.MinDistance {
			res.MinIndex = i
			res.MinDistance = d
		}
	}
	if res.MinIndex >= 0 {
		res.HasData = true
		res.Station = stations[res.MinIndex]
	}
	return res, nil
}

// Columns 风压派生列（每行常量）
func (r *WindSheetResult) Columns() []model.DerivedColumn {
	c3 := make([]float64, r.Rows)
	c4 := make([]float64, r.Rows)
	req := make([]float64, r.Rows)
	for i := 0; i < r.Rows; i++ {
		c3[i], c4[i], req[i] = r.C3, r.C4, r.Required
	}
	return []model.DerivedColumn{
		{Name: ColC3, Values: c3},
		{Name: ColC4, Values: c4},
		{Name: ColWindRequired, Values: req},
	}
}

// Candidate 转为候选记录
func (r *WindSheetResult) Candidate(side, sheet string) model.WindCandidate {
	return model.WindCandidate{
		Side:        side,
		Sheet:       sheet,
		ID:          r.ID,
		RowIndex:    r.MinIndex,
		Station:     r.Station,
		MinDistance: r.MinDistance,
		C3:          r.C3,
		C4:          r.C4,
		Required:    r.Required,
	}
}

// SelectWindWinner 全局最小实测距离的候选胜出（相等时取先出现者）
func SelectWindWinner(cands []model.WindCandidate) (model.WindCandidate, bool) {
	idx := -1
	for i, c := range cands {
		if math.IsNaN(c.MinDistance) {
			continue
		}
		if idx < 0 || c.MinDistance < cands[idx].MinDistance {
			idx = i
		}
	}
	if idx < 0 {
		return model.WindCandidate{}, false
	}
	return cands[idx], true
}

// WindFlag measured >= required 为 OK
func WindFlag(measured, required float64) string {
	if measured >= required {
		return WindFlagOK
	}
	return WindFlagNotOK
}
