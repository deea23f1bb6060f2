package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/haivivi/bodyview/pkg/cli"
	"github.com/haivivi/bodyview/pkg/view"
)

var flags struct {
	sensor             string
	fps                int
	view               string
	webPort            int
	mqttURL            string
	namespace          string
	prefsDir           string
	bindingsFile       string
	voiceMinConfidence float64
	voiceStdin         bool
	tui                bool
	verbose            bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the viewer",
	Long: `Run the viewer against a sensor.

The active view is served at http://localhost:<web>/ and can be switched by
hand gestures (swipe left, circle), voice commands read from stdin, the web
page, or events published on MQTT.

Values from the selected context are used unless a flag overrides them.`,
	RunE: runViewer,
}

func init() {
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flags.sensor, "sensor", "", "sensor to read (sim)")
	f.IntVar(&flags.fps, "fps", 0, "simulator frame rate")
	f.StringVar(&flags.view, "view", "", "initial view: color, depth or skeleton (default: last used)")
	f.IntVar(&flags.webPort, "web", 0, "web display port, 0 keeps the configured port, -1 disables")
	f.StringVar(&flags.mqttURL, "mqtt", "", "MQTT broker URL for remote events")
	f.StringVar(&flags.namespace, "namespace", "", "MQTT topic namespace")
	f.StringVar(&flags.prefsDir, "prefs", "", `preferences directory, "none" to disable`)
	f.StringVar(&flags.bindingsFile, "bindings", "", "gesture and voice bindings file (YAML)")
	f.Float64Var(&flags.voiceMinConfidence, "voice-min-confidence", 0, "ignore voice results below this confidence")
	f.BoolVar(&flags.voiceStdin, "voice-stdin", false, "read recognized speech from stdin, one utterance per line")
	f.BoolVar(&flags.tui, "tui", false, "show a terminal preview")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")
}

// runConfig is the effective configuration of the viewer.
type runConfig struct {
	Sensor             string
	FPS                int
	InitialView        *view.Mode
	WebPort            int
	MQTTURL            string
	MQTTNamespace      string
	PrefsDir           string
	BindingsFile       string
	VoiceMinConfidence float64
	VoiceStdin         bool
	TUI                bool
}

func defaultRunConfig(paths *cli.Paths) runConfig {
	rc := runConfig{
		Sensor:   "sim",
		FPS:      30,
		WebPort:  8080,
		PrefsDir: paths.PrefsDir(),
	}
	if _, err := os.Stat(paths.BindingsFile()); err == nil {
		rc.BindingsFile = paths.BindingsFile()
	}
	return rc
}

// resolveRunConfig layers the context settings and then the changed flags
// over the defaults.
func resolveRunConfig(fs *pflag.FlagSet, paths *cli.Paths, s cli.Settings) (runConfig, error) {
	rc := defaultRunConfig(paths)
	if s.Sensor != "" {
		rc.Sensor = s.Sensor
	}
	if s.FPS != 0 {
		rc.FPS = s.FPS
	}
	rc.InitialView = s.InitialView
	if s.WebPort != 0 {
		rc.WebPort = s.WebPort
	}
	rc.MQTTURL = s.MQTTURL
	rc.MQTTNamespace = s.MQTTNamespace
	if s.PrefsDir != "" {
		rc.PrefsDir = paths.ExpandHome(s.PrefsDir)
	}
	if s.BindingsFile != "" {
		rc.BindingsFile = paths.ExpandHome(s.BindingsFile)
	}
	rc.VoiceMinConfidence = s.VoiceMinConfidence

	if fs.Changed("sensor") {
		rc.Sensor = flags.sensor
	}
	if fs.Changed("fps") {
		rc.FPS = flags.fps
	}
	if fs.Changed("view") {
		m, err := view.ParseMode(flags.view)
		if err != nil {
			return runConfig{}, err
		}
		rc.InitialView = &m
	}
	if fs.Changed("web") {
		rc.WebPort = flags.webPort
	}
	if fs.Changed("mqtt") {
		rc.MQTTURL = flags.mqttURL
	}
	if fs.Changed("namespace") {
		rc.MQTTNamespace = flags.namespace
	}
	if fs.Changed("prefs") {
		rc.PrefsDir = paths.ExpandHome(flags.prefsDir)
	}
	if fs.Changed("bindings") {
		rc.BindingsFile = paths.ExpandHome(flags.bindingsFile)
	}
	if fs.Changed("voice-min-confidence") {
		rc.VoiceMinConfidence = flags.voiceMinConfidence
	}
	rc.VoiceStdin = flags.voiceStdin
	rc.TUI = flags.tui

	if rc.Sensor != "sim" {
		return runConfig{}, fmt.Errorf("unsupported sensor %q: only \"sim\" is available", rc.Sensor)
	}
	if rc.FPS <= 0 {
		return runConfig{}, fmt.Errorf("invalid fps %d", rc.FPS)
	}
	if rc.VoiceMinConfidence < 0 || rc.VoiceMinConfidence > 1 {
		return runConfig{}, fmt.Errorf("invalid voice min confidence %v", rc.VoiceMinConfidence)
	}
	if rc.TUI && rc.VoiceStdin {
		return runConfig{}, errors.New("--tui and --voice-stdin both need the terminal")
	}
	return rc, nil
}

func runViewer(cmd *cobra.Command, args []string) error {
	settings, err := contextSettings()
	if err != nil {
		return err
	}
	paths, err := cli.NewPaths()
	if err != nil {
		return err
	}
	rc, err := resolveRunConfig(cmd.Flags(), paths, settings)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	var (
		logOut    io.Writer = os.Stderr
		logWriter *cli.LogWriter
	)
	if rc.TUI {
		logWriter = cli.NewLogWriter(200)
		logOut = logWriter
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, rc)
	if err != nil {
		return err
	}
	defer a.close()

	if rc.WebPort > 0 && !rc.TUI {
		fmt.Fprintf(cmd.ErrOrStderr(), "Display: http://localhost:%d\n", rc.WebPort)
	}

	if !rc.TUI {
		return a.run(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- a.run(ctx) }()

	p := tea.NewProgram(newTUIModel(a, logWriter), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		cancel()
		<-errc
		return err
	}
	cancel()
	return <-errc
}
