package parser

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/model"
)

var (
	filenameRe  = regexp.MustCompile(`(?i)Cond_10C_([a-z0-9]+?\d{3})_(\d{3})\.xlsx$`)
	sheetRe     = regexp.MustCompile(`^(\d+)-(\d+)_(\d+)-(\d+)$`)
	windSheetRe = regexp.MustCompile(`^(\d+)-(\d+)_W(\d+)_(\d+)-(\d+)_W(\d+)$`)
	swapRe      = regexp.MustCompile(`^(.+?_W\d+)_([0-9-]+_W\d+)$`)
)

// ParseFilename 从工作簿文件名提取起止杆塔编码
// 例如 Cond_10C_TR1730a001_002.xlsx -> TR1730a001 / TR1730a002
func ParseFilename(path string) (model.SpanCodes, error) {
	base := filepath.Base(path)
	m := filenameRe.FindStringSubmatch(base)
	if m == nil {
		return model.SpanCodes{}, fmt.Errorf("%q: %w", base, ErrFilenameFormat)
	}
	start, suffix := m[1], m[2]
	return model.SpanCodes{
		Start: start,
		End:   start[:len(start)-3] + suffix,
	}, nil
}

// ParseSheetName 解析 d1-d2_d3-d4
func ParseSheetName(name string) (model.SheetID, error) {
	m := sheetRe.FindStringSubmatch(name)
	if m == nil {
		return model.SheetID{}, fmt.Errorf("%q: %w", name, ErrSheetNameFormat)
	}
	v, ok := parseInts(m[1:])
	if !ok {
		return model.SheetID{}, fmt.Errorf("%q: %w", name, ErrSheetNameFormat)
	}
	return model.SheetID{D1: v[0], D2: v[1], D3: v[2], D4: v[3]}, nil
}

// ParseWindSheetName 解析 d1-d2_W<p1>_d3-d4_W<p2>
func ParseWindSheetName(name string) (model.WindSheetID, error) {
	m := windSheetRe.FindStringSubmatch(name)
	if m == nil {
		return model.WindSheetID{}, fmt.Errorf("%q: %w", name, ErrWindSheetNameFormat)
	}
	v, ok := parseInts(m[1:])
	if !ok {
		return model.WindSheetID{}, fmt.Errorf("%q: %w", name, ErrWindSheetNameFormat)
	}
	return model.WindSheetID{D1: v[0], D2: v[1], P1: v[2], D3: v[3], D4: v[4], P2: v[5]}, nil
}

// SwapWindSheetName 交换两段：<seg1>_<seg2> -> <seg2>_<seg1>，不匹配时原样返回
func SwapWindSheetName(name string) string {
	m := swapRe.FindStringSubmatch(name)
	if m == nil {
		return name
	}
	return m[2] + "_" + m[1]
}

// IdentifySheet 识别 sheet 名属于哪种命名规则
func IdentifySheet(name string) model.SheetIdentity {
	if id, err := ParseSheetName(name); err == nil {
		return model.SheetIdentity{Name: name, Kind: model.SheetKindClearance, Clearance: id}
	}
	if id, err := ParseWindSheetName(name); err == nil {
		return model.SheetIdentity{Name: name, Kind: model.SheetKindWind, Wind: id}
	}
	return model.SheetIdentity{Name: name, Kind: model.SheetKindUnknown}
}

// ClassifyWindFamily d1 或 d3 为地线编号时为 EW-Ph，否则 Ph-Ph
func ClassifyWindFamily(id model.WindSheetID, earthWire []int) model.WindFamily {
	for _, ew := range earthWire {
		if id.D1 == ew || id.D3 == ew {
			return model.WindFamilyEWPh
		}
	}
	return model.WindFamilyPhPh
}
