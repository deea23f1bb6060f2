package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/haivivi/bodyview/pkg/compositor"
	"github.com/haivivi/bodyview/pkg/display"
	"github.com/haivivi/bodyview/pkg/eventbus"
	"github.com/haivivi/bodyview/pkg/gesture"
	"github.com/haivivi/bodyview/pkg/prefs"
	"github.com/haivivi/bodyview/pkg/sensor"
	"github.com/haivivi/bodyview/pkg/view"
	"github.com/haivivi/bodyview/pkg/voice"
)

// app wires the viewer together. Gesture, voice, web and MQTT events all
// flow through one channel into the selector.
type app struct {
	cfg     runConfig
	started time.Time

	events chan view.Event
	sel    *view.Selector
	comp   *compositor.Compositor
	voice  *voice.Bridge

	sim *sensor.Simulator
	src *sensor.PipeSource
	dev *sensor.PipeDevice

	store   prefs.Store
	prefs   *prefs.Prefs
	bus     *eventbus.Client
	display *display.Server
}

func newApp(ctx context.Context, rc runConfig) (*app, error) {
	a := &app{
		cfg:     rc,
		started: time.Now(),
		events:  make(chan view.Event, 16),
	}

	bindings := view.DefaultBindings()
	if rc.BindingsFile != "" {
		b, err := view.LoadBindings(rc.BindingsFile)
		if err != nil {
			return nil, err
		}
		bindings = b
		slog.Info("bindings loaded", "file", rc.BindingsFile)
	}
	initial := view.ModeColor
	if rc.InitialView != nil {
		initial = *rc.InitialView
	}
	a.sel = view.NewSelector(view.Config{Initial: initial, Bindings: bindings})

	if rc.PrefsDir != "" && rc.PrefsDir != "none" {
		if err := a.openPrefs(ctx, rc); err != nil {
			return nil, err
		}
	}

	mapper := sensor.DefaultMapper()
	a.sim = sensor.NewSimulator(sensor.SimulatorConfig{FPS: rc.FPS, Mapper: mapper})
	a.src, a.dev = sensor.NewPipe(mapper)

	a.comp = compositor.New(a.sel, compositor.Config{
		Gesture: gesture.NewBridge(a.events, gesture.Config{}),
		Logger:  compositor.SlogLogger(slog.Default().With("component", "compositor")),
	})
	a.voice = voice.NewBridge(a.events, voice.Config{MinConfidence: rc.VoiceMinConfidence})

	if rc.WebPort > 0 {
		a.display = display.NewServer(a.comp, display.Config{
			Addr:   fmt.Sprintf(":%d", rc.WebPort),
			Events: a.events,
		})
	}

	if rc.MQTTURL != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		bus, err := eventbus.Dial(dialCtx, eventbus.Config{
			URL:    rc.MQTTURL,
			Topics: eventbus.Topics{Namespace: rc.MQTTNamespace, Sensor: rc.Sensor},
			Events: a.events,
		})
		if err != nil {
			a.close()
			return nil, err
		}
		a.bus = bus
	}
	return a, nil
}

func (a *app) openPrefs(ctx context.Context, rc runConfig) error {
	if err := os.MkdirAll(rc.PrefsDir, 0755); err != nil {
		return fmt.Errorf("prefs dir: %w", err)
	}
	store, err := prefs.OpenBadger(prefs.BadgerConfig{Dir: rc.PrefsDir})
	if err != nil {
		return err
	}
	a.store = store
	a.prefs = prefs.New(store, rc.Sensor)
	// An explicit initial view wins over the remembered one.
	if rc.InitialView == nil {
		if _, err := a.prefs.Restore(ctx, a.sel); err != nil {
			slog.Warn("restore view failed", "error", err)
		}
	}
	return nil
}

// run blocks until ctx is done or a component fails.
func (a *app) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.sel.Run(ctx, a.events) })
	g.Go(func() error { return a.sim.Run(ctx, a.src) })
	g.Go(func() error { return a.comp.Run(ctx, a.dev) })
	if a.prefs != nil {
		g.Go(func() error {
			a.prefs.Track(ctx, a.sel)
			return nil
		})
	}
	if a.display != nil {
		g.Go(func() error { return a.display.ListenAndServe(ctx) })
	}
	if a.cfg.VoiceStdin {
		// Not part of the group: a read from stdin cannot be interrupted.
		go func() {
			err := a.voice.Run(ctx, voice.NewLineRecognizer(os.Stdin))
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("voice input stopped", "error", err)
			}
		}()
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *app) close() {
	if a.bus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.bus.Close(ctx); err != nil {
			slog.Warn("mqtt disconnect", "error", err)
		}
		cancel()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("close prefs", "error", err)
		}
	}
}

// status is a one-line summary for the TUI title.
func (a *app) status() string {
	var parts []string
	parts = append(parts, a.cfg.Sensor)
	if a.display != nil {
		parts = append(parts, fmt.Sprintf("web :%d (%d)", a.cfg.WebPort, a.display.Clients()))
	}
	if a.bus != nil {
		parts = append(parts, "mqtt "+a.bus.ID())
	}
	return strings.Join(parts, " · ")
}
