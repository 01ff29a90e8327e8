// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/log"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:           configs.AppName,
		Short:         "Photo storage service with automatic image labeling",
		Version:       configs.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory containing config.{yaml,json,toml,env}")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode (overrides server.debug)")

	registerServeCommand()
	registerConfigsCommands()
	registerDBCommands()
	registerMQCommands()
	registerCacheCommands()
	registerClientCommands()
}

// loadConfig 读取配置并按命令行参数覆盖，同时初始化日志.
func loadConfig() (*configs.AppConfig, *viper.Viper, error) {
	cfg, v, err := configs.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	if debug {
		cfg.Server.Debug = true
		cfg.Log.Level = "debug"
	}

	log.Init(cfg.Log, cfg.Server.Debug)

	return cfg, v, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
