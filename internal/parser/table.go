package parser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table 以第一行为表头的二维表
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]string // 数据行，不含表头

	index     map[string]int
	normIndex map[string]int
}

// NewTable 由原始行构造表，rows[0] 为表头
func NewTable(sheet string, rows [][]string) *Table {
	t := &Table{
		Sheet:     sheet,
		index:     make(map[string]int),
		normIndex: make(map[string]int),
	}
	if len(rows) == 0 {
		return t
	}
	t.Header = rows[0]
	t.Rows = rows[1:]
	for i, h := range t.Header {
		if _, ok := t.index[h]; !ok {
			t.index[h] = i
		}
		n := NormalizeColumnName(h)
		if _, ok := t.normIndex[n]; !ok && n != "" {
			t.normIndex[n] = i
		}
	}
	return t
}

// ReadTable 读取 sheet 全部内容（原始单元格值，不应用数字格式）
func ReadTable(f *excelize.File, sheet string) (*Table, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return NewTable(sheet, rows), nil
}

// Len 数据行数
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex 查找列：先精确匹配，再按规范化列名匹配
func (t *Table) ColumnIndex(name string) (int, bool) {
	if i, ok := t.index[name]; ok {
		return i, true
	}
	i, ok := t.normIndex[NormalizeColumnName(name)]
	return i, ok
}

// Cell 取单元格，越界返回空串
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// Strings 读取整列文本
func (t *Table) Strings(name string) ([]string, error) {
	col, ok := t.ColumnIndex(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q in sheet %q", ErrColumnNotFound, name, t.Sheet)
	}
	out := make([]string, len(t.Rows))
	for r := range t.Rows {
		out[r] = t.Cell(r, col)
	}
	return out, nil
}

// Floats 读取整列数值，非数值单元格为 NaN
func (t *Table) Floats(name string) ([]float64, error) {
	col, ok := t.ColumnIndex(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q in sheet %q", ErrColumnNotFound, name, t.Sheet)
	}
	out := make([]float64, len(t.Rows))
	for r := range t.Rows {
		out[r] = ParseNumber(t.Cell(r, col))
	}
	return out, nil
}

// DistanceColumnCandidates 线对 a-b 可接受的两种列名
func DistanceColumnCandidates(a, b int) []string {
	return []string{
		fmt.Sprintf("Straight Distance of %d-%d", a, b),
		fmt.Sprintf("Sag of %d-%d", a, b),
	}
}

// ResolveDistanceColumn 返回线对 a-b 的第一个匹配列名
func ResolveDistanceColumn(t *Table, a, b int) (string, error) {
	candidates := DistanceColumnCandidates(a, b)
	for _, name := range candidates {
		if i, ok := t.ColumnIndex(name); ok {
			return t.Header[i], nil
		}
	}
	return "", fmt.Errorf("%w: no distance/sag column for span %d-%d, tried: %s",
		ErrColumnNotFound, a, b, strings.Join(candidates, ", "))
}
