package prefs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haivivi/bodyview/pkg/view"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	bs, err := OpenBadger(BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	t.Cleanup(func() { bs.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"badger": bs,
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(missing) = %v; want ErrNotFound", err)
			}
			for _, k := range []string{"b:2", "a:1", "b:1", "c"} {
				if err := s.Set(ctx, k, []byte(k)); err != nil {
					t.Fatalf("Set(%s): %v", k, err)
				}
			}
			v, err := s.Get(ctx, "a:1")
			if err != nil || string(v) != "a:1" {
				t.Errorf("Get(a:1) = %q, %v", v, err)
			}

			var keys []string
			for k, err := range s.Keys(ctx, "b:") {
				if err != nil {
					t.Fatal(err)
				}
				keys = append(keys, k)
			}
			if len(keys) != 2 || keys[0] != "b:1" || keys[1] != "b:2" {
				t.Errorf("Keys(b:) = %v", keys)
			}

			if err := s.Delete(ctx, "a:1"); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Get(ctx, "a:1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after Delete = %v", err)
			}
		})
	}
}

func TestOpenBadger_RequiresDir(t *testing.T) {
	if _, err := OpenBadger(BadgerConfig{}); err == nil {
		t.Error("OpenBadger without dir succeeded")
	}
}

func TestViewRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			p := New(s, "kinect0")
			if _, err := p.LoadView(ctx); !errors.Is(err, ErrNotFound) {
				t.Fatalf("LoadView(empty) = %v", err)
			}
			want := view.State{Mode: view.ModeSkeleton, Suppressed: true}
			if err := p.SaveView(ctx, want); err != nil {
				t.Fatal(err)
			}
			got, err := p.LoadView(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if got.State != want {
				t.Errorf("LoadView = %+v; want %+v", got.State, want)
			}
			if time.Since(got.UpdatedAt) > time.Minute {
				t.Errorf("UpdatedAt = %v", got.UpdatedAt)
			}

			// Profiles are independent.
			if _, err := New(s, "other").LoadView(ctx); !errors.Is(err, ErrNotFound) {
				t.Errorf("other profile = %v", err)
			}
			profiles, err := Profiles(ctx, s)
			if err != nil || len(profiles) != 1 || profiles[0] != "kinect0" {
				t.Errorf("Profiles = %v, %v", profiles, err)
			}
		})
	}
}

func TestLoadView_Corrupt(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Set(ctx, "bodyview:default:view", []byte{0xc1})
	if _, err := New(s, "").LoadView(ctx); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("LoadView(corrupt) = %v", err)
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	p := New(NewMemoryStore(), "sim")
	sel := view.NewSelector(view.Config{})

	ok, err := p.Restore(ctx, sel)
	if err != nil || ok {
		t.Fatalf("Restore(empty) = %v, %v", ok, err)
	}

	_ = p.SaveView(ctx, view.State{Mode: view.ModeDepth, Suppressed: true})
	ok, err = p.Restore(ctx, sel)
	if err != nil || !ok {
		t.Fatalf("Restore = %v, %v", ok, err)
	}
	if st := sel.State(); st != (view.State{Mode: view.ModeDepth, Suppressed: true}) {
		t.Errorf("restored state = %+v", st)
	}
}

func TestTrack(t *testing.T) {
	p := New(NewMemoryStore(), "sim")
	sel := view.NewSelector(view.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Track(ctx, sel)
		close(done)
	}()

	want := view.State{Mode: view.ModeSkeleton}
	deadline := time.Now().Add(2 * time.Second)
	for {
		_ = sel.Select(view.ModeDepth)
		_ = sel.Select(view.ModeSkeleton)
		vs, err := p.LoadView(context.Background())
		if err == nil && vs.State == want {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("state not saved: %+v, %v", vs, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Track did not return")
	}
}
