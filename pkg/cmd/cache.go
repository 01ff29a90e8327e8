package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/photovault/pkg/internal/storage/kv"
)

var (
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Blob cache related commands",
	}

	cacheListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered cache backends",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered cache types:")
			for _, t := range kv.RegisteredTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}
)

// registerCacheCommands 注册缓存相关命令.
func registerCacheCommands() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
}
