package cmd

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/photovault/pkg/configs"
)

var (
	// config 子命令.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "config subcommands",
	}

	// 打印当前使用的配置文件路径.
	pathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the path of the current config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, v, err := loadConfig()
			if err != nil {
				return err
			}

			used := v.ConfigFileUsed()
			if used == "" {
				used = "no config file used (defaults and " + configs.EnvPrefix + "_* environment only)"
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), used)

			return err
		},
	}

	// 打印合并后的配置，密码与密钥以占位符代替.
	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "print the effective config values with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, v, err := loadConfig()
			if err != nil {
				return err
			}

			if debug {
				// viper 自身的调试输出不做脱敏，只在 --debug 时打印.
				v.Debug()
			}

			b, err := sonic.ConfigStd.MarshalIndent(c.Redacted(), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return err
		},
	}
)

// registerConfigsCommands 注册 config 子命令.
func registerConfigsCommands() {
	configCmd.AddCommand(pathCmd)
	configCmd.AddCommand(debugCmd)

	rootCmd.AddCommand(configCmd)
}
