package keypad

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"agv-lift/internal/poll"
)

const (
	PromptWeight  = "Input load\nweight in kg"
	PromptConfirm = "Press 'A' to\nconfirm"

	DefaultPollInterval = 200 * time.Millisecond
	DefaultPromptDelay  = 3 * time.Second
)

// Source returns the key currently pressed, or NoKey.
type Source interface {
	ReadKey() (rune, error)
}

// Display renders text; '\n' moves to the second row.
type Display interface {
	Print(text string) error
}

type Options struct {
	Capacity     int
	PollInterval time.Duration
	PromptDelay  time.Duration
}

func DefaultOptions() Options {
	return Options{
		Capacity:     DefaultCapacity,
		PollInterval: DefaultPollInterval,
		PromptDelay:  DefaultPromptDelay,
	}
}

// Read prompts for a number and blocks until it is confirmed.
func Read(ctx context.Context, keys Source, display Display, clk clock.Clock, opts Options) (float64, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	if err := display.Print(PromptWeight); err != nil {
		return 0, fmt.Errorf("display prompt: %w", err)
	}
	if err := poll.Sleep(ctx, clk, opts.PromptDelay); err != nil {
		return 0, err
	}
	if err := display.Print(PromptConfirm); err != nil {
		return 0, fmt.Errorf("display prompt: %w", err)
	}

	entry := NewEntry(opts.Capacity)
	for {
		key, err := keys.ReadKey()
		if err != nil {
			return 0, fmt.Errorf("read key: %w", err)
		}
		if key != NoKey {
			changed, done := entry.Apply(key)
			if done {
				return entry.Value()
			}
			if changed {
				if err := display.Print(entry.String()); err != nil {
					return 0, fmt.Errorf("display entry: %w", err)
				}
			}
		}
		if err := poll.Sleep(ctx, clk, opts.PollInterval); err != nil {
			return 0, err
		}
	}
}
