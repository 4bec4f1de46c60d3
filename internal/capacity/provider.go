package capacity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rezkam/boardly/internal/domain"
	"gopkg.in/yaml.v3"
)

// Provider holds the current limits and can be swapped at runtime.
// It is safe for concurrent use; every engine call reads the latest value.
type Provider struct {
	current atomic.Pointer[Limits]
}

// NewProvider creates a provider holding initial, with defaults applied.
func NewProvider(initial Limits) *Provider {
	p := &Provider{}
	p.Set(initial)
	return p
}

// Current returns the active limits.
func (p *Provider) Current() Limits {
	return *p.current.Load()
}

// Set replaces the active limits.
func (p *Provider) Set(l Limits) {
	l = l.withDefaults()
	p.current.Store(&l)
}

func (p *Provider) MaxChildren(kind domain.ContainerKind) int {
	return p.Current().MaxChildren(kind)
}

func (p *Provider) Status(kind domain.ContainerKind, count int) domain.CapacityStatus {
	return p.Current().Status(kind, count)
}

func (p *Provider) TextLimits() domain.TextLimits {
	return p.Current().TextLimits()
}

// ErrEmptyFile is returned for a capacity file with no YAML document, which
// is also what a reader sees while an editor is rewriting the file.
var ErrEmptyFile = errors.New("capacity file is empty")

// LoadFile reads limits from a YAML file. Fields missing from the file are
// taken from base.
func LoadFile(path string, base Limits) (Limits, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Limits{}, fmt.Errorf("failed to read capacity file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return Limits{}, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Limits{}, fmt.Errorf("failed to parse capacity file %s: %w", path, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Limits{}, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}

	limits := base
	if err := doc.Decode(&limits); err != nil {
		return Limits{}, fmt.Errorf("failed to parse capacity file %s: %w", path, err)
	}
	if err := limits.Validate(); err != nil {
		return Limits{}, fmt.Errorf("invalid capacity file %s: %w", path, err)
	}
	return limits.withDefaults(), nil
}

// Watch reloads path into p whenever the file changes, until ctx is done.
// A file that fails to load, including one that is momentarily empty while
// being rewritten, is logged and the previous limits stay active.
// The directory is watched so editors that replace the file are handled.
func (p *Provider) Watch(ctx context.Context, path string, base Limits) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create capacity watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			p.reload(ctx, path, base)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "capacity watcher error", "path", path, "error", err)
		}
	}
}

func (p *Provider) reload(ctx context.Context, path string, base Limits) {
	limits, err := LoadFile(path, base)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		if errors.Is(err, ErrEmptyFile) {
			slog.DebugContext(ctx, "capacity file empty, keeping previous limits", "path", path)
			return
		}
		slog.WarnContext(ctx, "keeping previous capacity limits", "path", path, "error", err)
		return
	}
	p.Set(limits)
	slog.InfoContext(ctx, "capacity limits reloaded",
		"path", path,
		"max_lists_per_board", limits.MaxListsPerBoard,
		"max_cards_per_list", limits.MaxCardsPerList,
		"max_card_title_length", limits.MaxCardTitleLength,
		"max_description_length", limits.MaxDescriptionLength)
}
