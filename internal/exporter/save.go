package exporter

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SaveAtomic 先写同目录临时文件再重命名，失败时原文件保持不变
func SaveAtomic(f *excelize.File, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp workbook: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if err := tmp.Chmod(targetMode(path)); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod temp workbook: %w", err)
	}
	if _, err := f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write workbook %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp workbook: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("replace workbook %s: %w", filepath.Base(path), err)
	}
	return nil
}

// targetMode 覆盖已有文件时沿用其权限，新文件为 0644
func targetMode(path string) os.FileMode {
	if fi, err := os.Stat(path); err == nil {
		return fi.Mode().Perm()
	}
	return 0644
}

// ProcessedPath <src>.xlsx -> <src>_processed.xlsx
func ProcessedPath(src string) string {
	ext := filepath.Ext(src)
	return strings.TrimSuffix(src, ext) + "_processed" + ext
}

// IsProcessedPath 是否为已生成的 _processed 副本
func IsProcessedPath(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base))), "_processed")
}

// cellNumber NaN/Inf 写为空单元格
func cellNumber(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return v
}
