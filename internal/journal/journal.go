package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/item-relay/pkg/publishers"
)

// Package journal keeps a local, time-bounded record of relay call events.

// Journal records call events and serves the most recent ones back.
// It satisfies publishers.Publisher so it can sit in the same fanout as remote sinks.
type Journal interface {
	publishers.Publisher
	Recent(limit int) ([]publishers.Event, error)
}

// Options controls retention for concrete journal implementations.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

const (
	defaultTTL             = 5 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// Open creates the configured journal backend.
func Open(typ, path string, opts Options) (Journal, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopJournal{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt journal requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported journal type %q", typ)
	}
}

// Enabled reports whether j actually records anything.
func Enabled(j Journal) bool {
	_, noop := j.(noopJournal)
	return j != nil && !noop
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopJournal struct{}

func (noopJournal) ID() string                                      { return "journal" }
func (noopJournal) Type() string                                    { return "none" }
func (noopJournal) Publish(context.Context, publishers.Event) error { return nil }
func (noopJournal) Close() error                                    { return nil }
func (noopJournal) Recent(int) ([]publishers.Event, error)          { return nil, nil }
