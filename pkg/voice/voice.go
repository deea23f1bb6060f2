// Package voice turns speech recognition results into view events.
//
// A Recognizer yields utterances with a confidence. The Bridge drops
// results below the confidence threshold, matches the rest against a
// Grammar and sends the resulting command token as a view.VoiceCommand.
package voice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/haivivi/bodyview/pkg/view"
)

// DefaultMinConfidence is the threshold below which results are ignored.
const DefaultMinConfidence = 0.3

// Result is one recognized utterance.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Recognizer is a speech recognizer. Results ends when the recognizer stops.
type Recognizer interface {
	Results() iter.Seq2[Result, error]
}

// Config holds configuration for a Bridge.
type Config struct {
	// MinConfidence defaults to DefaultMinConfidence.
	MinConfidence float64

	// Grammar defaults to DefaultGrammar().
	Grammar *Grammar
}

// Bridge maps recognition results onto view events.
type Bridge struct {
	cfg    Config
	events chan<- view.Event

	accepted atomic.Uint64
	rejected atomic.Uint64
}

// NewBridge creates a Bridge that sends commands to events.
func NewBridge(events chan<- view.Event, cfg Config) *Bridge {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	if cfg.Grammar == nil {
		cfg.Grammar = DefaultGrammar()
	}
	return &Bridge{cfg: cfg, events: events}
}

// Handle processes one result. It blocks until the event is queued or ctx
// is done. Results that are below the threshold or outside the grammar are
// ignored and counted as rejected.
func (b *Bridge) Handle(ctx context.Context, r Result) error {
	if r.Confidence < b.cfg.MinConfidence {
		b.rejected.Add(1)
		slog.Debug("voice: low confidence", "text", r.Text, "confidence", r.Confidence)
		return nil
	}
	token, ok := b.cfg.Grammar.Match(r.Text)
	if !ok {
		b.rejected.Add(1)
		slog.Debug("voice: no match", "text", r.Text)
		return nil
	}
	select {
	case b.events <- &view.VoiceCommand{Token: token, Confidence: r.Confidence}:
		b.accepted.Add(1)
		slog.Info("voice: command", "token", token, "text", r.Text, "confidence", r.Confidence)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run handles every result of rec until it ends or ctx is done.
func (b *Bridge) Run(ctx context.Context, rec Recognizer) error {
	for r, err := range rec.Results() {
		if err != nil {
			return fmt.Errorf("voice: recognizer: %w", err)
		}
		if err := b.Handle(ctx, r); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// Accepted returns the number of results turned into commands.
func (b *Bridge) Accepted() uint64 { return b.accepted.Load() }

// Rejected returns the number of ignored results.
func (b *Bridge) Rejected() uint64 { return b.rejected.Load() }

// LineRecognizer reads one utterance per line, optionally followed by a
// tab and a confidence ("show depth\t0.82"). Lines without a confidence
// are reported with confidence 1. It is meant for piping the output of an
// external recognizer process.
type LineRecognizer struct {
	r io.Reader
}

// NewLineRecognizer returns a LineRecognizer reading from r.
func NewLineRecognizer(r io.Reader) *LineRecognizer {
	return &LineRecognizer{r: r}
}

func (l *LineRecognizer) Results() iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		sc := bufio.NewScanner(l.r)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			res := Result{Text: line, Confidence: 1}
			if text, conf, ok := strings.Cut(line, "\t"); ok {
				c, err := strconv.ParseFloat(strings.TrimSpace(conf), 64)
				if err != nil {
					slog.Warn("voice: skip line with bad confidence", "line", line, "error", err)
					continue
				}
				res = Result{Text: strings.TrimSpace(text), Confidence: c}
			}
			if !yield(res, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(Result{}, err)
		}
	}
}

// ChanRecognizer yields results sent on a channel until it is closed.
type ChanRecognizer <-chan Result

func (c ChanRecognizer) Results() iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		for r := range c {
			if !yield(r, nil) {
				return
			}
		}
	}
}
