package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"holder-map/internal/features/tg_charts"
	storage "holder-map/internal/infra/fs"

	"github.com/spf13/cobra"
)

var chartOut string

var chartCmd = &cobra.Command{
	Use:   "chart <report.json>",
	Short: "Render the bubble map of a saved report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := storage.LoadReport(args[0])
		if err != nil {
			return err
		}
		out := chartOut
		if out == "" {
			out = filepath.Join(filepath.Dir(args[0]), chartFileName)
		}
		if !strings.HasSuffix(strings.ToLower(out), ".png") {
			return fmt.Errorf("output must be a .png file: %s", out)
		}
		path, err := tg_charts.GenerateBubbleMap(rep, out)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	chartCmd.Flags().StringVarP(&chartOut, "out", "o", "", "output PNG (default next to the report)")
}
