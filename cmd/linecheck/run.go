package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/config"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/importer"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/mesh"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/model"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/store"
)

func loadConfig() (*config.AppConfig, error) {
	cfg, info, err := config.LoadConfigWithInfo(configPath)
	if err != nil {
		return nil, err
	}
	if info.Loaded {
		fmt.Printf("Config: %s\n", info.Path)
	}
	if historyPath != "" {
		cfg.History.DBPath = historyPath
	}
	return cfg, nil
}

// newCoordinator 创建协调器；历史库打开失败只告警
func newCoordinator(cfg *config.AppConfig) (*importer.Coordinator, func()) {
	logger := log.New(os.Stdout, "", 0)
	coord := importer.NewCoordinator(cfg, logger)
	closeFn := func() {}

	if cfg.History.DBPath != "" {
		st, err := store.New(cfg.History.DBPath)
		if err != nil {
			log.Printf("history disabled: %v", err)
		} else {
			coord.SetHistory(st)
			closeFn = func() { _ = st.Close() }
		}
	}
	return coord, closeFn
}

func runCalc(arg, results string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	inputDir, err := cfg.InputDirOr(arg)
	if err != nil {
		return err
	}
	if results != "" {
		cfg.Paths.ResultsWorkbook = results
	}

	files, err := importer.ScanInput(inputDir, cfg.Paths.InputGlob)
	if err != nil {
		return err
	}
	// 没有输入文件时仍校验汇总工作簿
	if len(files) == 0 {
		fmt.Printf("No %s files in %s\n", cfg.Paths.InputGlob, inputDir)
	}

	coord, closeFn := newCoordinator(cfg)
	defer closeFn()

	report, err := coord.RunClearance(inputDir, files)
	if err != nil {
		return err
	}
	printReport(report)
	return nil
}

func runWind(arg, results string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	inputDir, err := cfg.InputDirOr(arg)
	if err != nil {
		return err
	}
	if results != "" {
		cfg.Paths.WindResultsWorkbook = results
	}

	coord, closeFn := newCoordinator(cfg)
	defer closeFn()

	report, err := coord.RunWind(inputDir)
	if err != nil {
		return err
	}
	fmt.Printf("Winners found   : %d\n", len(report.WindWinners))
	for _, name := range report.OutputSheets {
		fmt.Printf("Output sheet    : %s\n", name)
	}
	printReport(report)
	return nil
}

func runMesh(in, out string) error {
	exp, err := mesh.LoadElements(in)
	if err != nil {
		return err
	}
	primary, fallback := exp.Triangulators()
	conv := &mesh.Converter{
		Primary:  primary,
		Fallback: fallback,
		Logger:   log.New(os.Stdout, "INFO: ", 0),
	}
	res := conv.Convert(exp.List())

	fmt.Printf("Writing OBJ -> %s\n", out)
	return res.Mesh.SaveOBJ(out)
}

func runInitConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
		return err
	}
	fmt.Printf("Wrote default config to %s\n", path)
	return nil
}

func printReport(r *model.RunReport) {
	fmt.Println("==========================================")
	fmt.Printf("Run %s (%s) %s in %s\n", r.RunID, r.Mode, r.Status(), r.Duration.Round(time.Millisecond))
	fmt.Printf("Files: %d, failed: %d\n", len(r.Files), r.FilesFailed)
	fmt.Printf("Sheets: %d processed, %d skipped, %d failed\n", r.SheetsProcessed, r.SheetsSkipped, r.SheetsFailed)
	for _, f := range r.Files {
		if f.Status == model.StatusFailed {
			fmt.Printf("  failed: %s: %s\n", f.Path, f.Error)
		}
		for _, s := range f.Sheets {
			if s.Status == model.StatusFailed {
				fmt.Printf("  failed: %s [%s]: %s\n", f.Path, s.SheetName, s.Reason)
			}
		}
	}
}
