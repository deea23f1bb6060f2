package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/bodyview/pkg/cli"
)

var (
	cfgFile      string
	contextName  string
	outputFormat string
	globalConfig *cli.Config
	configErr    error
)

var rootCmd = &cobra.Command{
	Use:   "bodyview",
	Short: "Depth sensor viewer",
	Long: `bodyview shows one of three sensor outputs at a time: the color camera,
the depth map, or the tracked skeletons. The view is switched by voice
commands, hand gestures, the web page or MQTT events.

Configuration is stored in ~/.giztoy/bodyview/ and supports multiple
contexts, one per sensor setup.`,
	SilenceUsage: true,
	RunE:         runViewer,
}

// Command returns the root cobra command for mounting into a parent CLI.
func Command() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.giztoy/bodyview/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context to use (default is current context)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "yaml", "output format: yaml, json or table")

	addRunFlags(rootCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(bonesCmd)
	rootCmd.AddCommand(bindingsCmd)
	rootCmd.AddCommand(prefsCmd)
}

func initConfig() {
	globalConfig, configErr = cli.LoadConfig(cfgFile)
}

func loadedConfig() (*cli.Config, error) {
	if configErr != nil {
		return nil, fmt.Errorf("bodyview config: %w", configErr)
	}
	return globalConfig, nil
}

// contextSettings returns the settings of the selected context.
func contextSettings() (cli.Settings, error) {
	cfg, err := loadedConfig()
	if err != nil {
		return cli.Settings{}, err
	}
	ctx, err := cfg.ResolveContext(contextName)
	if err != nil {
		return cli.Settings{}, err
	}
	return ctx.Settings()
}

func outputOptions(cmd *cobra.Command) (cli.OutputOptions, error) {
	f, err := cli.ParseOutputFormat(outputFormat)
	if err != nil {
		return cli.OutputOptions{}, err
	}
	return cli.OutputOptions{Format: f, Writer: cmd.OutOrStdout()}, nil
}
