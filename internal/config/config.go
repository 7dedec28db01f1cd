package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultConfigName 可执行文件同目录下的默认配置文件名
const DefaultConfigName = "linecheck.toml"

// AppConfig 应用配置
type AppConfig struct {
	Paths    PathsConfig    `toml:"paths" yaml:"paths"`
	Circuits CircuitsConfig `toml:"circuits" yaml:"circuits"`
	Formula  FormulaConfig  `toml:"formula" yaml:"formula"`
	Columns  ColumnsConfig  `toml:"columns" yaml:"columns"`
	Sheets   SheetsConfig   `toml:"sheets" yaml:"sheets"`
	Wind     WindConfig     `toml:"wind" yaml:"wind"`
	History  HistoryConfig  `toml:"history" yaml:"history"`
}

// PathsConfig 输入输出路径
type PathsConfig struct {
	InputDir            string `toml:"input_dir" yaml:"input_dir"`
	InputGlob           string `toml:"input_glob" yaml:"input_glob"`
	ResultsWorkbook     string `toml:"results_workbook" yaml:"results_workbook"`
	WindResultsWorkbook string `toml:"wind_results_workbook" yaml:"wind_results_workbook"`
}

// CircuitsConfig 回路成员表，两组之外的编号均视为地线
type CircuitsConfig struct {
	Group1    []int `toml:"group_1" yaml:"group_1"`
	Group2    []int `toml:"group_2" yaml:"group_2"`
	EarthWire []int `toml:"earth_wire" yaml:"earth_wire"` // 风压工况中用于区分 EW-Ph / Ph-Ph
}

// FormulaConfig 净距公式常数
type FormulaConfig struct {
	LK             float64 `toml:"lk" yaml:"lk"`                 // 绝缘子串长度 (m)
	KSlope         float64 `toml:"k_slope" yaml:"k_slope"`       // K = KSlope*beta + KIntercept
	KIntercept     float64 `toml:"k_intercept" yaml:"k_intercept"`
	C1SameCircuit  float64 `toml:"c1_same_circuit" yaml:"c1_same_circuit"`
	C2DiffCircuit  float64 `toml:"c2_diff_circuit" yaml:"c2_diff_circuit"`
	C1EarthWire    float64 `toml:"c1_earth_wire" yaml:"c1_earth_wire"`
	C3SameCircuit  float64 `toml:"c3_same_circuit" yaml:"c3_same_circuit"`
	C4DiffCircuit  float64 `toml:"c4_diff_circuit" yaml:"c4_diff_circuit"`
	WeatherCelsius int     `toml:"weather_celsius" yaml:"weather_celsius"` // 结果表 weather 列
}

// ColumnsConfig 输入列名
type ColumnsConfig struct {
	Beta     string `toml:"beta" yaml:"beta"`
	Measured string `toml:"measured" yaml:"measured"`
	Station  string `toml:"station" yaml:"station"`
}

// SheetsConfig 结果工作簿中的 sheet 名
type SheetsConfig struct {
	PhasePhase     string `toml:"phase_phase" yaml:"phase_phase"`
	PhaseEarthWire string `toml:"phase_earth_wire" yaml:"phase_earth_wire"`
	WindEWPh       string `toml:"wind_ew_ph" yaml:"wind_ew_ph"`
	WindPhPh       string `toml:"wind_ph_ph" yaml:"wind_ph_ph"`
}

// WindConfig 风压工况的工作簿识别与 sheet 名生成规则
type WindConfig struct {
	LeftMarker     string   `toml:"left_marker" yaml:"left_marker"`
	RightMarker    string   `toml:"right_marker" yaml:"right_marker"`
	EarthWireSet   string   `toml:"earth_wire_set" yaml:"earth_wire_set"`
	PhaseSets      []string `toml:"phase_sets" yaml:"phase_sets"`
	CompanionEWTag string   `toml:"companion_ew_tag" yaml:"companion_ew_tag"`
	CompanionPhTag string   `toml:"companion_ph_tag" yaml:"companion_ph_tag"`
}

// HistoryConfig 运行历史库，DBPath 为空时不记录
type HistoryConfig struct {
	DBPath string `toml:"db_path" yaml:"db_path"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path   string
	Loaded bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Paths: PathsConfig{
			InputGlob:           "Cond_10C_*.xlsx",
			ResultsWorkbook:     "Formulas Distances_rev1.xlsx",
			WindResultsWorkbook: "Formulas Distances_rev1.xlsx",
		},
		Circuits: CircuitsConfig{
			Group1:    []int{41, 42, 43},
			Group2:    []int{44, 45, 46},
			EarthWire: []int{59, 39},
		},
		Formula: FormulaConfig{
			LK:             2.0,
			KSlope:         -0.1 / 90.0,
			KIntercept:     0.75,
			C1SameCircuit:  1.93,
			C2DiffCircuit:  2.29,
			C1EarthWire:    1.93,
			C3SameCircuit:  1.35,
			C4DiffCircuit:  1.60,
			WeatherCelsius: 10,
		},
		Columns: ColumnsConfig{
			Beta:     "Beta Angle (°)",
			Measured: "Distance Between Powerlines",
			Station:  "Station",
		},
		Sheets: SheetsConfig{
			PhasePhase:     "Result_Dist_Ph-Ph (10ºC)",
			PhaseEarthWire: "Result_Dist_Ph-EW",
			WindEWPh:       "Result_Dist_EW-Ph(Wind)",
			WindPhPh:       "Result_Dist_Ph-Ph(Wind)",
		},
		Wind: WindConfig{
			LeftMarker:     "WindMasterLeft",
			RightMarker:    "WindMasterRight",
			EarthWireSet:   "59-39",
			PhaseSets:      []string{"41-21", "42-22", "43-23", "44-24", "45-25", "46-26"},
			CompanionEWTag: "_Left_EW",
			CompanionPhTag: "_Left_Ph",
		},
	}
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 加载配置
// path 为空时读取可执行文件同目录下的 linecheck.toml，不存在则使用默认配置；
// .yaml/.yml 后缀按 YAML 解析，其余按 TOML 解析。
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	config := DefaultConfig()
	info := LoadConfigInfo{}

	explicit := path != ""
	if !explicit {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		path = filepath.Join(exeDir, DefaultConfigName)
	}
	info.Path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			applyEnvOverrides(config)
			return config, info, nil
		}
		return nil, info, fmt.Errorf("failed to read config: %w", err)
	}

	if err := decode(path, data, config); err != nil {
		return nil, info, fmt.Errorf("failed to parse config %s: %w", filepath.Base(path), err)
	}
	info.Loaded = true

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// LoadConfig 加载配置
func LoadConfig(path string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(path)
	return config, err
}

func decode(path string, data []byte, out *AppConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, out)
	default:
		return toml.Unmarshal(data, out)
	}
}

// 环境变量覆盖（用于脚本化批处理）
func applyEnvOverrides(config *AppConfig) {
	if v := os.Getenv("LINECHECK_RESULTS_WORKBOOK"); v != "" {
		config.Paths.ResultsWorkbook = v
	}
	if v := os.Getenv("LINECHECK_WIND_RESULTS_WORKBOOK"); v != "" {
		config.Paths.WindResultsWorkbook = v
	}
	if v := os.Getenv("LINECHECK_HISTORY_DB"); v != "" {
		config.History.DBPath = v
	}
}

// Validate 校验配置：两个回路不能有交集，结果 sheet 名不能为空
func (c *AppConfig) Validate() error {
	seen := make(map[int]struct{}, len(c.Circuits.Group1))
	for _, id := range c.Circuits.Group1 {
		seen[id] = struct{}{}
	}
	for _, id := range c.Circuits.Group2 {
		if _, ok := seen[id]; ok {
			return fmt.Errorf("invalid config: conductor %d is in both circuit groups", id)
		}
	}
	if c.Sheets.PhasePhase == "" || c.Sheets.PhaseEarthWire == "" {
		return fmt.Errorf("invalid config: result sheet names must not be empty")
	}
	if c.Columns.Measured == "" || c.Columns.Beta == "" {
		return fmt.Errorf("invalid config: input column names must not be empty")
	}
	return nil
}

// SaveConfig 保存配置为 TOML
func SaveConfig(config *AppConfig, path string) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// InputDirOr 命令行给出的输入目录优先，否则使用 paths.input_dir
func (c *AppConfig) InputDirOr(arg string) (string, error) {
	if arg != "" {
		return arg, nil
	}
	if c.Paths.InputDir != "" {
		return c.Paths.InputDir, nil
	}
	return "", fmt.Errorf("no input directory: pass one or set paths.input_dir")
}

// ResolvePath 相对路径按输入目录解析
func ResolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
