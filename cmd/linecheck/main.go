package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	historyPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "linecheck",
		Short:        "Conductor clearance checks over PLS-CADD clearance exports",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (.toml or .yaml), default linecheck.toml next to the executable")
	rootCmd.PersistentFlags().StringVar(&historyPath, "history", "", "SQLite run history database (overrides config)")

	rootCmd.AddCommand(calcCmd())
	rootCmd.AddCommand(windCmd())
	rootCmd.AddCommand(meshCmd())
	rootCmd.AddCommand(initConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func calcCmd() *cobra.Command {
	var results string

	cmd := &cobra.Command{
		Use:   "calc [input-dir]",
		Short: "Run the 10 °C clearance check over Cond_10C_*.xlsx workbooks",
		Long:  "Run the 10 °C clearance check. Without input-dir, paths.input_dir from the config is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runCalc(firstArg(args), results)
		},
	}
	cmd.Flags().StringVar(&results, "results", "", "results workbook (relative paths resolve against input-dir)")
	return cmd
}

func windCmd() *cobra.Command {
	var results string

	cmd := &cobra.Command{
		Use:   "wind [input-dir]",
		Short: "Run the wind-pressure clearance check over the WindMasterLeft/Right workbooks",
		Long:  "Run the wind-pressure clearance check. Without input-dir, paths.input_dir from the config is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runWind(firstArg(args), results)
		},
	}
	cmd.Flags().StringVar(&results, "results", "", "wind results workbook (relative paths resolve against input-dir)")
	return cmd
}

func meshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mesh [elements.json] [out.obj]",
		Short: "Merge triangulated building elements into a Wavefront OBJ mesh",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runMesh(args[0], args[1])
		},
	}
}

func initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write the default configuration as TOML",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runInitConfig(args[0])
		},
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
