// Package mesh 把几何内核三角化后的构件合并为一个 Wavefront OBJ 网格。
package mesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

// ErrNoRepresentation 构件没有几何表示，直接忽略
var ErrNoRepresentation = errors.New("element has no representation")

// Element 模型构件
type Element struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Shape 世界坐标下的三角网格：Verts 按 x,y,z 平铺，Faces 每 3 个为一个三角形（0 起）
type Shape struct {
	Verts []float64
	Faces []int
}

// Triangulator 几何内核
type Triangulator interface {
	Triangulate(e Element) (Shape, error)
}

// SkippedElement 主/备路径均失败的构件
type SkippedElement struct {
	ID   string
	Type string
	Err  error
}

// Mesh 累积的网格
type Mesh struct {
	Verts []float64
	Faces []int
}

// VertexCount 顶点数
func (m *Mesh) VertexCount() int { return len(m.Verts) / 3 }

// FaceCount 三角形数
func (m *Mesh) FaceCount() int { return len(m.Faces) / 3 }

// Append 追加一个 shape，面索引按已有顶点数偏移
func (m *Mesh) Append(s Shape) error {
	if len(s.Verts)%3 != 0 || len(s.Faces)%3 != 0 {
		return fmt.Errorf("malformed shape: %d coords, %d indices", len(s.Verts), len(s.Faces))
	}
	n := len(s.Verts) / 3
	for _, i := range s.Faces {
		if i < 0 || i >= n {
			return fmt.Errorf("face index %d out of range [0,%d)", i, n)
		}
	}
	offset := m.VertexCount()
	m.Verts = append(m.Verts, s.Verts...)
	for _, i := range s.Faces {
		m.Faces = append(m.Faces, i+offset)
	}
	return nil
}

// WriteOBJ 输出 "v x y z" 与 1 起的 "f a b c"
func (m *Mesh) WriteOBJ(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i := 0; i+2 < len(m.Verts); i += 3 {
		if _, err := fmt.Fprintf(bw, "v %s %s %s\n", formatCoord(m.Verts[i]), formatCoord(m.Verts[i+1]), formatCoord(m.Verts[i+2])); err != nil {
			return err
		}
	}
	for i := 0; i+2 < len(m.Faces); i += 3 {
		if _, err := fmt.Fprintf(bw, "f %d %d %d\n", m.Faces[i]+1, m.Faces[i+1]+1, m.Faces[i+2]+1); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveOBJ 写入文件：同目录临时文件 + 重命名，覆盖时保留原文件权限
func (m *Mesh) SaveOBJ(path string) error {
	mode := os.FileMode(0644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp obj: %w", err)
	}
	tmp := f.Name()
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("chmod temp obj: %w", err)
	}
	if err := m.WriteOBJ(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write obj: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Converter 逐构件三角化，主路径失败时尝试备用路径，均失败则记录跳过
type Converter struct {
	Primary  Triangulator
	Fallback Triangulator // 可为 nil
	Logger   *log.Logger
}

// Result 转换结果
type Result struct {
	Mesh    Mesh
	Skipped []SkippedElement
	Ignored int // 无几何表示的构件数
}

// Convert 转换所有构件，单个构件失败不中止
func (c *Converter) Convert(elements []Element) *Result {
	logger := c.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("Fallback %s", enabled(c.Fallback != nil))
	logger.Printf("Serialising geometry ...")

	res := &Result{}
	for _, e := range elements {
		err := c.convertOne(&res.Mesh, e)
		switch {
		case err == nil:
		case errors.Is(err, ErrNoRepresentation):
			res.Ignored++
		default:
			res.Skipped = append(res.Skipped, SkippedElement{ID: e.ID, Type: e.Type, Err: err})
		}
	}

	logger.Printf("Done. Vertices: %d  Faces: %d  Skipped elements: %d",
		res.Mesh.VertexCount(), res.Mesh.FaceCount(), len(res.Skipped))
	for i, s := range res.Skipped {
		if i == 10 {
			break
		}
		logger.Printf("  skipped %s (%s): %v", s.ID, s.Type, s.Err)
	}
	return res
}

func (c *Converter) convertOne(m *Mesh, e Element) error {
	shape, err := c.Primary.Triangulate(e)
	if err == nil {
		err = m.Append(shape)
	}
	if err == nil || errors.Is(err, ErrNoRepresentation) || c.Fallback == nil {
		return err
	}

	shape, ferr := c.Fallback.Triangulate(e)
	if ferr == nil {
		ferr = m.Append(shape)
	}
	if ferr != nil {
		return fmt.Errorf("primary: %v; fallback: %w", err, ferr)
	}
	return nil
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
