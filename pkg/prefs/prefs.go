package prefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/bodyview/pkg/view"
)

// ViewState is the persisted state of the view selector.
type ViewState struct {
	State     view.State
	UpdatedAt time.Time
}

type viewRecord struct {
	Mode       string    `msgpack:"mode"`
	Suppressed bool      `msgpack:"suppressed"`
	UpdatedAt  time.Time `msgpack:"updated_at"`
}

// Prefs reads and writes the preferences of one profile. The profile is
// usually the sensor name, so that different sensors keep separate views.
type Prefs struct {
	store   Store
	profile string
}

// New returns Prefs for profile backed by store.
func New(store Store, profile string) *Prefs {
	if profile == "" {
		profile = "default"
	}
	return &Prefs{store: store, profile: profile}
}

func (p *Prefs) key(name string) string {
	return "bodyview:" + p.profile + ":" + name
}

// LoadView returns the saved view state, or ErrNotFound.
func (p *Prefs) LoadView(ctx context.Context) (ViewState, error) {
	b, err := p.store.Get(ctx, p.key("view"))
	if err != nil {
		return ViewState{}, err
	}
	var rec viewRecord
	if err := msgpack.Unmarshal(b, &rec); err != nil {
		return ViewState{}, fmt.Errorf("prefs: decode view: %w", err)
	}
	m, err := view.ParseMode(rec.Mode)
	if err != nil {
		return ViewState{}, fmt.Errorf("prefs: decode view: %w", err)
	}
	return ViewState{
		State:     view.State{Mode: m, Suppressed: rec.Suppressed},
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// SaveView stores st with the current time.
func (p *Prefs) SaveView(ctx context.Context, st view.State) error {
	b, err := msgpack.Marshal(&viewRecord{
		Mode:       st.Mode.String(),
		Suppressed: st.Suppressed,
		UpdatedAt:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("prefs: encode view: %w", err)
	}
	if err := p.store.Set(ctx, p.key("view"), b); err != nil {
		return fmt.Errorf("prefs: save view: %w", err)
	}
	return nil
}

// Profiles returns the profiles with stored preferences.
func Profiles(ctx context.Context, store Store) ([]string, error) {
	var out []string
	for k, err := range store.Keys(ctx, "bodyview:") {
		if err != nil {
			return nil, err
		}
		rest, _ := strings.CutPrefix(k, "bodyview:")
		if profile, ok := strings.CutSuffix(rest, ":view"); ok {
			out = append(out, profile)
		}
	}
	return out, nil
}

// Track saves the selector state after every change until ctx is done.
// Writes happen on a separate goroutine; when changes arrive faster than
// they are written only the newest is kept. Track returns when ctx is done
// and the last pending write has finished.
func (p *Prefs) Track(ctx context.Context, sel *view.Selector) {
	pending := make(chan view.State, 1)
	cancel := sel.Subscribe(func(st view.State) {
		for {
			select {
			case pending <- st:
				return
			default:
			}
			select {
			case <-pending:
			default:
			}
		}
	})
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			select {
			case st := <-pending:
				p.save(context.WithoutCancel(ctx), st)
			default:
			}
			return
		case st := <-pending:
			p.save(ctx, st)
		}
	}
}

func (p *Prefs) save(ctx context.Context, st view.State) {
	if err := p.SaveView(ctx, st); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("prefs: save view", "profile", p.profile, "error", err)
	}
}

// Restore applies the saved state to sel. It reports whether a saved state
// was found.
func (p *Prefs) Restore(ctx context.Context, sel *view.Selector) (bool, error) {
	vs, err := p.LoadView(ctx)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := sel.Select(vs.State.Mode); err != nil {
		return false, err
	}
	sel.SetSuppressed(vs.State.Suppressed)
	slog.Info("prefs: restored view", "profile", p.profile, "view", vs.State.Mode,
		"suppressed", vs.State.Suppressed, "saved", vs.UpdatedAt.Format(time.RFC3339))
	return true, nil
}
