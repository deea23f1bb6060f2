package commands

import (
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/haivivi/bodyview/pkg/cli"
	"github.com/haivivi/bodyview/pkg/view"
)

var bindingsCmd = &cobra.Command{
	Use:   "bindings [file]",
	Short: "Print the effective gesture and voice bindings",
	Long: `Print the bindings the viewer uses: the built-in ones merged with the
bindings file of the context, ~/.giztoy/bodyview/bindings.yaml, or the given
file. The YAML output can be edited and used as a bindings file.

Examples:
  bodyview bindings
  bodyview bindings lab.yaml -o table`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := contextSettings()
		if err != nil {
			return err
		}
		paths, err := cli.NewPaths()
		if err != nil {
			return err
		}
		file := defaultRunConfig(paths).BindingsFile
		if settings.BindingsFile != "" {
			file = paths.ExpandHome(settings.BindingsFile)
		}
		if len(args) == 1 {
			file = args[0]
		}

		b := view.DefaultBindings()
		if file != "" {
			if b, err = view.LoadBindings(file); err != nil {
				return err
			}
		}
		opts, err := outputOptions(cmd)
		if err != nil {
			return err
		}
		if opts.Format == cli.FormatYAML {
			data, err := b.Marshal()
			if err != nil {
				return err
			}
			_, err = opts.Writer.Write(data)
			return err
		}
		return cli.Output(bindingTable{b}, opts)
	},
}

type bindingTable struct {
	*view.Bindings
}

func (bindingTable) Header() []string { return []string{"KIND", "NAME", "ACTION"} }

func (t bindingTable) Rows() [][]string {
	var rows [][]string
	for _, k := range slices.Sorted(maps.Keys(t.Voice)) {
		rows = append(rows, []string{"voice", k, string(t.Voice[k])})
	}
	for _, k := range slices.Sorted(maps.Keys(t.Gestures)) {
		rows = append(rows, []string{"gesture", k, string(t.Gestures[k])})
	}
	return rows
}
