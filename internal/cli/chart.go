package cli

import (
	"github.com/spf13/cobra"

	"bpi-tracker/internal/app"
)

var (
	chartPNGPath  string
	chartHTMLPath string
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render the price chart from the snapshot file",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ChartOptions{
			PNGPath:  chartPNGPath,
			HTMLPath: chartHTMLPath,
		}
		return getApp().Chart(cmd.Context(), opts)
	},
}

func init() {
	chartCmd.Flags().StringVar(&chartPNGPath, "png", "", "PNG output path (defaults to chart.png_path)")
	chartCmd.Flags().StringVar(&chartHTMLPath, "html", "", "Interactive HTML output path (defaults to chart.html_path)")
}
