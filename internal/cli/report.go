package cli

import (
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "重新发送快照文件中的最高价通知",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Report(cmd.Context())
	},
}
