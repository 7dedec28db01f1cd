package parser

import "errors"

var (
	// ErrFilenameFormat 文件名不符合 Cond_10C_<BASE><3位>_<3位>.xlsx，需向用户报告
	ErrFilenameFormat = errors.New("filename does not match Cond_10C_<base><3 digits>_<3 digits>.xlsx")
	// ErrSheetNameFormat sheet 名不符合 d1-d2_d3-d4，调用方静默跳过
	ErrSheetNameFormat = errors.New("sheet name does not match d1-d2_d3-d4")
	// ErrWindSheetNameFormat sheet 名不符合 d1-d2_W<p1>_d3-d4_W<p2>
	ErrWindSheetNameFormat = errors.New("sheet name does not match d1-d2_W<p>_d3-d4_W<p>")
	// ErrColumnNotFound 缺少必需列，当前 sheet 中止
	ErrColumnNotFound = errors.New("column not found")
	// ErrEmptySheet sheet 没有表头
	ErrEmptySheet = errors.New("sheet has no header row")
)
