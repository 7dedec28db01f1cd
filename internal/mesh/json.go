package mesh

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ShapeRecord 几何内核导出的单个三角化结果
type ShapeRecord struct {
	Verts []float64 `json:"verts"`
	Faces []int     `json:"faces"`
	Error string    `json:"error,omitempty"`
}

// ElementRecord 导出文件中的构件
type ElementRecord struct {
	ID             string       `json:"id"`
	Type           string       `json:"type"`
	Representation *bool        `json:"representation,omitempty"` // 缺省视为有几何表示
	ShapeRecord                 // 主路径结果
	Fallback       *ShapeRecord `json:"fallback,omitempty"`
}

// Export 导出文件顶层结构
type Export struct {
	Elements []ElementRecord `json:"elements"`
}

// LoadElements 读取构件导出文件
func LoadElements(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read elements: %w", err)
	}
	var exp Export
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("parse elements %s: %w", path, err)
	}
	return &exp, nil
}

// List 构件列表（保持文件顺序）
func (e *Export) List() []Element {
	out := make([]Element, 0, len(e.Elements))
	for _, r := range e.Elements {
		out = append(out, Element{ID: r.ID, Type: r.Type})
	}
	return out
}

// JSONTriangulator 用导出文件中的预三角化结果充当几何内核
type JSONTriangulator struct {
	records  map[string]ElementRecord
	fallback bool
}

// Triangulators 返回主路径与备用路径；没有任何构件带备用结果时备用路径为 nil
func (e *Export) Triangulators() (primary, fallback Triangulator) {
	records := make(map[string]ElementRecord, len(e.Elements))
	hasFallback := false
	for _, r := range e.Elements {
		records[r.ID] = r
		if r.Fallback != nil {
			hasFallback = true
		}
	}
	primary = &JSONTriangulator{records: records}
	if hasFallback {
		fallback = &JSONTriangulator{records: records, fallback: true}
	}
	return primary, fallback
}

// Triangulate 返回构件的网格
func (t *JSONTriangulator) Triangulate(el Element) (Shape, error) {
	r, ok := t.records[el.ID]
	if !ok {
		return Shape{}, fmt.Errorf("element %s not in export", el.ID)
	}
	if r.Representation != nil && !*r.Representation {
		return Shape{}, ErrNoRepresentation
	}
	rec := r.ShapeRecord
	if t.fallback {
		if r.Fallback == nil {
			return Shape{}, errors.New("no fallback shape")
		}
		rec = *r.Fallback
	}
	if rec.Error != "" {
		return Shape{}, errors.New(rec.Error)
	}
	return Shape{Verts: rec.Verts, Faces: rec.Faces}, nil
}
