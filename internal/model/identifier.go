package model

import "fmt"

// SpanCodes 从文件名解析出的起止杆塔编码
type SpanCodes struct {
	Start string `json:"start"` // 例如 TR1730a001
	End   string `json:"end"`   // 起始编码末三位替换为结束后缀，例如 TR1730a002
}

// SheetID 10°C 工况 sheet 名 d1-d2_d3-d4 解析结果
type SheetID struct {
	D1 int `json:"d1"` // 源导线组
	D2 int `json:"d2"` // 源相位
	D3 int `json:"d3"` // 目标导线组
	D4 int `json:"d4"` // 目标相位
}

// String 还原为 sheet 名
func (id SheetID) String() string {
	return fmt.Sprintf("%d-%d_%d-%d", id.D1, id.D2, id.D3, id.D4)
}

// WindSheetID 风压工况 sheet 名 d1-d2_W<p1>_d3-d4_W<p2> 解析结果
type WindSheetID struct {
	D1 int `json:"d1"`
	D2 int `json:"d2"`
	P1 int `json:"p1"` // 源导线风压
	D3 int `json:"d3"`
	D4 int `json:"d4"`
	P2 int `json:"p2"` // 目标导线风压
}

// String 还原为 sheet 名
func (id WindSheetID) String() string {
	return fmt.Sprintf("%d-%d_W%d_%d-%d_W%d", id.D1, id.D2, id.P1, id.D3, id.D4, id.P2)
}

// Swap 交换源/目标两段，同一物理线对在左右两个工作簿中可能以任一顺序出现
func (id WindSheetID) Swap() WindSheetID {
	return WindSheetID{D1: id.D3, D2: id.D4, P1: id.P2, D3: id.D1, D4: id.D2, P2: id.P1}
}

// Symmetrical 源与目标属于同一导线组
func (id WindSheetID) Symmetrical() bool {
	return id.D1 == id.D3
}

// SheetKind sheet 名识别出的类别
type SheetKind int

const (
	SheetKindUnknown   SheetKind = iota // 不符合任何命名规则
	SheetKindClearance                  // d1-d2_d3-d4
	SheetKindWind                       // d1-d2_W<p1>_d3-d4_W<p2>
)

// String 返回类别名称
func (k SheetKind) String() string {
	switch k {
	case SheetKindClearance:
		return "clearance"
	case SheetKindWind:
		return "wind"
	default:
		return "unknown"
	}
}

// SheetIdentity sheet 名解析结果（按 Kind 取对应字段，下游不再重复匹配字符串）
type SheetIdentity struct {
	Name      string
	Kind      SheetKind
	Clearance SheetID
	Wind      WindSheetID
}
