package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/bodyview/pkg/cli"
	"github.com/haivivi/bodyview/pkg/prefs"
)

var prefsFlags struct {
	dir string
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "List the views remembered per sensor",
	Long: `List the view and overlay state saved for each sensor profile. The
viewer restores the saved state on start unless an initial view is set.

The preferences database is locked while a viewer is running.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := contextSettings()
		if err != nil {
			return err
		}
		paths, err := cli.NewPaths()
		if err != nil {
			return err
		}
		dir := paths.PrefsDir()
		if settings.PrefsDir != "" {
			dir = paths.ExpandHome(settings.PrefsDir)
		}
		if cmd.Flags().Changed("prefs") {
			dir = paths.ExpandHome(prefsFlags.dir)
		}
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			cli.PrintInfo("No preferences saved in %s", dir)
			return nil
		}

		store, err := prefs.OpenBadger(prefs.BadgerConfig{Dir: dir})
		if err != nil {
			return err
		}
		defer store.Close()

		l, err := listPrefs(cmd.Context(), store)
		if err != nil {
			return err
		}
		opts, err := outputOptions(cmd)
		if err != nil {
			return err
		}
		return cli.Output(l, opts)
	},
}

type prefsRow struct {
	Profile   string `json:"profile" yaml:"profile"`
	View      string `json:"view" yaml:"view"`
	Overlay   string `json:"overlay" yaml:"overlay"`
	UpdatedAt string `json:"updated_at" yaml:"updated_at"`
}

type prefsList []prefsRow

func (prefsList) Header() []string { return []string{"PROFILE", "VIEW", "OVERLAY", "UPDATED"} }

func (l prefsList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, p := range l {
		rows[i] = []string{p.Profile, p.View, p.Overlay, p.UpdatedAt}
	}
	return rows
}

func listPrefs(ctx context.Context, store prefs.Store) (prefsList, error) {
	profiles, err := prefs.Profiles(ctx, store)
	if err != nil {
		return nil, err
	}
	l := make(prefsList, 0, len(profiles))
	for _, name := range profiles {
		vs, err := prefs.New(store, name).LoadView(ctx)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", name, err)
		}
		overlay := "on"
		if vs.State.Suppressed {
			overlay = "off"
		}
		l = append(l, prefsRow{
			Profile:   name,
			View:      vs.State.Mode.String(),
			Overlay:   overlay,
			UpdatedAt: vs.UpdatedAt.Format(time.RFC3339),
		})
	}
	return l, nil
}

func init() {
	prefsCmd.Flags().StringVar(&prefsFlags.dir, "prefs", "", "preferences directory")
}
