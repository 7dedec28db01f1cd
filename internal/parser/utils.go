package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var spaceRe = regexp.MustCompile(`\s+`)

// NormalizeColumnName 规范化列名：去除首尾空白，压缩连续空白，统一小写
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\r", "")
	name = strings.ReplaceAll(name, "\n", " ")
	name = spaceRe.ReplaceAllString(name, " ")
	return strings.ToLower(name)
}

// ParseNumber 转换为浮点数，空值或非数值返回 NaN（不报错，由公式向下传播）
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// parseInts 转换正则捕获的数字串，溢出时返回 false
func parseInts(parts []string) ([]int, bool) {
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// ContainsFold 大小写不敏感的子串判断
func ContainsFold(text, sub string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(sub))
}
