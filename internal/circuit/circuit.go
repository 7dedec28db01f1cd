package circuit

import (
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/config"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/model"
)

// Classifier 按静态成员表把导线编号映射到回路
type Classifier struct {
	group1 map[int]struct{}
	group2 map[int]struct{}
}

// NewClassifier 创建分类器
func NewClassifier(group1, group2 []int) *Classifier {
	return &Classifier{
		group1: toSet(group1),
		group2: toSet(group2),
	}
}

// FromConfig 由配置创建分类器
func FromConfig(cfg config.CircuitsConfig) *Classifier {
	return NewClassifier(cfg.Group1, cfg.Group2)
}

func toSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Classify 返回 1、2，其余（含未知编号）为地线
func (c *Classifier) Classify(id int) model.CircuitGroup {
	if _, ok := c.group1[id]; ok {
		return model.Circuit1
	}
	if _, ok := c.group2[id]; ok {
		return model.Circuit2
	}
	return model.EarthWire
}

// InvolvesEarthWire 任一端为地线
func (c *Classifier) InvolvesEarthWire(a, b int) bool {
	return c.Classify(a) == model.EarthWire || c.Classify(b) == model.EarthWire
}

// SameCircuit 两端属于同一真实回路
func (c *Classifier) SameCircuit(a, b int) bool {
	ga := c.Classify(a)
	return ga != model.EarthWire && ga == c.Classify(b)
}

// Category 10°C 工况的结果分类
func (c *Classifier) Category(id model.SheetID) model.Category {
	if c.InvolvesEarthWire(id.D1, id.D3) {
		return model.CategoryPhaseEarthWire
	}
	return model.CategoryPhasePhase
}
