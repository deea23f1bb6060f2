package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/bodyview/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage bodyview configuration.

Configuration is stored in ~/.giztoy/bodyview/config.yaml`,
}

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage contexts",
}

// contextTable lists contexts for table output.
type contextTable struct {
	Current  string                       `json:"current" yaml:"current"`
	Contexts map[string]map[string]string `json:"contexts" yaml:"contexts"`
	names    []string
}

func (t contextTable) Header() []string {
	return []string{"CURRENT", "NAME", "SENSOR", "FPS", "VIEW", "WEB", "MQTT"}
}

func (t contextTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.names))
	for _, name := range t.names {
		extra := t.Contexts[name]
		current := ""
		if name == t.Current {
			current = "*"
		}
		rows = append(rows, []string{
			current, name,
			orDash(extra[cli.KeySensor]),
			orDash(extra[cli.KeyFPS]),
			orDash(extra[cli.KeyInitialView]),
			orDash(extra[cli.KeyWebPort]),
			orDash(cli.RedactURL(extra[cli.KeyMQTTURL])),
		})
	}
	return rows
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var contextListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		opts, err := outputOptions(cmd)
		if err != nil {
			return err
		}
		names := cfg.ContextNames()
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No contexts configured.")
			fmt.Fprintln(cmd.OutOrStdout(), "\nCreate one with:")
			fmt.Fprintln(cmd.OutOrStdout(), "  bodyview config context set lab --fps=30 --web=8080")
			return nil
		}
		t := contextTable{Current: cfg.CurrentContext, Contexts: make(map[string]map[string]string), names: names}
		for _, name := range names {
			t.Contexts[name] = cfg.Contexts[name].Extra
		}
		return cli.Output(t, opts)
	},
}

var contextUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Switch to a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context %q", args[0])
		return nil
	},
}

// contextSetFlags maps flags of "context set" to setting keys.
var contextSetFlags = map[string]string{
	"sensor":               cli.KeySensor,
	"fps":                  cli.KeyFPS,
	"view":                 cli.KeyInitialView,
	"web":                  cli.KeyWebPort,
	"mqtt":                 cli.KeyMQTTURL,
	"namespace":            cli.KeyMQTTNamespace,
	"prefs":                cli.KeyPrefsDir,
	"bindings":             cli.KeyBindingsFile,
	"voice-min-confidence": cli.KeyVoiceMinConfidence,
}

var contextSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Create or update a context",
	Long: `Create or update a context. Only the given flags are changed; pass an
empty value to remove a setting.

Examples:
  bodyview config context set lab --fps=15 --web=8080 --view=skeleton
  bodyview config context set lab --mqtt=mqtt://broker:1883 --namespace=lab/
  bodyview config context set lab --view=`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		ctx, err := cfg.Context(args[0], true)
		if err != nil {
			return err
		}
		for flag, key := range contextSetFlags {
			if !cmd.Flags().Changed(flag) {
				continue
			}
			v, _ := cmd.Flags().GetString(flag)
			if err := ctx.Set(key, v); err != nil {
				return err
			}
		}
		if cfg.CurrentContext == "" {
			cfg.CurrentContext = ctx.Name
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q saved to %s", ctx.Name, cfg.Path())
		return nil
	},
}

var contextDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Deleted context %q", args[0])
		return nil
	},
}

var contextShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a context (default: current)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		name := cfg.CurrentContext
		if len(args) == 1 {
			name = args[0]
		}
		if name == "" {
			return fmt.Errorf("no current context set")
		}
		ctx, err := cfg.Context(name, false)
		if err != nil {
			return err
		}
		opts, err := outputOptions(cmd)
		if err != nil {
			return err
		}
		if opts.Format == cli.FormatTable {
			opts.Format = cli.FormatYAML
		}
		shown := make(map[string]string, len(ctx.Extra))
		for k, v := range ctx.Extra {
			if k == cli.KeyMQTTURL {
				v = cli.RedactURL(v)
			}
			shown[k] = v
		}
		return cli.Output(map[string]any{"name": ctx.Name, "extra": shown}, opts)
	},
}

func init() {
	for flag, key := range contextSetFlags {
		contextSetCmd.Flags().String(flag, "", "set "+key)
	}

	contextCmd.AddCommand(contextListCmd)
	contextCmd.AddCommand(contextUseCmd)
	contextCmd.AddCommand(contextSetCmd)
	contextCmd.AddCommand(contextDeleteCmd)
	contextCmd.AddCommand(contextShowCmd)
	configCmd.AddCommand(contextCmd)
}
