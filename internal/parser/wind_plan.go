package parser

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/config"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/model"
)

var (
	structureRe = regexp.MustCompile(`(?i)(TR\d+[a-z]?\d{3})_(\d{3})`)
	ewTagRe     = regexp.MustCompile(`(?i)EW(\d+)-Ph(\d+)`)
	phPhTagRe   = regexp.MustCompile(`(?i)Ph(\d+)-Ph(\d+)_(\d{2})-(\d{2})`)
)

// WindPlanEntry 需要评估的一对线
type WindPlanEntry struct {
	Sheet  string
	ID     model.WindSheetID
	Family model.WindFamily
	Spans  model.SpanCodes
	Source string // 来源伴随文件
}

// WindPlan 由伴随文件名推导出的待评估 sheet 集合
// 每对线只登记一次，交换顺序后的名称也可查到同一条目。
type WindPlan struct {
	Entries []WindPlanEntry
	index   map[string]int
}

// ParseStructureCodes 从伴随文件名提取起止杆塔编码，不匹配时返回空编码
func ParseStructureCodes(filename string) model.SpanCodes {
	m := structureRe.FindStringSubmatch(filepath.Base(filename))
	if m == nil {
		return model.SpanCodes{}
	}
	return model.SpanCodes{Start: m[1], End: m[1][:len(m[1])-3] + m[2]}
}

// EWPhVariants EW<ew>-Ph<ph> 标签展开为每个相位组一个 sheet 名
func EWPhVariants(tag string, cfg config.WindConfig) []string {
	m := ewTagRe.FindStringSubmatch(tag)
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(cfg.PhaseSets))
	for _, set := range cfg.PhaseSets {
		out = append(out, fmt.Sprintf("%s_W%s_%s_W%s", cfg.EarthWireSet, m[1], set, m[2]))
	}
	return out
}

// PhPhVariants Ph<a>-Ph<b>_<d1>-<d3> 展开为每个相位组一个 sheet 名
func PhPhVariants(filename string, cfg config.WindConfig) []string {
	m := phPhTagRe.FindStringSubmatch(filepath.Base(filename))
	if m == nil {
		return nil
	}
	code := m[3] + "-" + m[4]
	out := make([]string, 0, len(cfg.PhaseSets))
	for _, set := range cfg.PhaseSets {
		out = append(out, fmt.Sprintf("%s_W%s_%s_W%s", set, m[1], code, m[2]))
	}
	return out
}

// BuildWindPlan 根据左侧伴随文件列表生成评估计划
func BuildWindPlan(companions []string, cfg config.WindConfig, earthWire []int) *WindPlan {
	plan := &WindPlan{index: make(map[string]int)}

	for _, path := range companions {
		base := filepath.Base(path)
		spans := ParseStructureCodes(base)

		var names []string
		switch {
		case strings.Contains(base, cfg.CompanionEWTag):
			names = EWPhVariants(base, cfg)
		case strings.Contains(base, cfg.CompanionPhTag):
			names = PhPhVariants(base, cfg)
		}

		for _, name := range names {
			id, err := ParseWindSheetName(name)
			if err != nil {
				continue
			}
			plan.add(WindPlanEntry{
				Sheet:  name,
				ID:     id,
				Family: ClassifyWindFamily(id, earthWire),
				Spans:  spans,
				Source: base,
			})
		}
	}
	return plan
}

func (p *WindPlan) add(e WindPlanEntry) {
	if _, ok := p.index[e.Sheet]; ok {
		return
	}
	swapped := e.ID.Swap().String()
	if _, ok := p.index[swapped]; ok {
		return
	}
	p.Entries = append(p.Entries, e)
	i := len(p.Entries) - 1
	p.index[e.Sheet] = i
	p.index[swapped] = i
}

// Lookup 按 sheet 名（任一顺序）查找条目
func (p *WindPlan) Lookup(name string) (WindPlanEntry, bool) {
	i, ok := p.index[name]
	if !ok {
		return WindPlanEntry{}, false
	}
	return p.Entries[i], true
}

// SheetNames 所有条目的两种顺序名称，用于在主工作簿中补齐 sheet
func (p *WindPlan) SheetNames() []string {
	out := make([]string, 0, len(p.Entries)*2)
	for _, e := range p.Entries {
		out = append(out, e.Sheet, e.ID.Swap().String())
	}
	return out
}
