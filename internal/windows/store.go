package windows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/peterbourgon/diskv/v3"

	"github.com/sadopc/tally/internal/overlay"
)

var ErrNotFound = errors.New("window not found")

// Store keeps one JSON file per window config under a base directory.
type Store struct {
	d   *diskv.Diskv
	mu  sync.Mutex
	log *slog.Logger
}

// Open returns a Store rooted at dir. The directory is created on first write.
func Open(dir string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:     dir,
			Transform:    func(string) []string { return []string{} },
			CacheSizeMax: 1024 * 1024, // 1MB
		}),
		log: log,
	}
}

func (s *Store) read(id string) (*Config, error) {
	val, err := s.d.Read(id)
	if err != nil {
		return nil, err
	}
	c := &Config{}
	if err := json.Unmarshal(val, c); err != nil {
		return nil, fmt.Errorf("decode window %s: %w", id, err)
	}
	if c.ID == "" {
		c.ID = id
	}
	if c.Items == nil {
		c.Items = []Item{}
	}
	return c, nil
}

func (s *Store) write(c *Config) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.d.Write(c.ID, data)
}

// List returns every stored window sorted by name. Unreadable records are
// logged and skipped.
func (s *Store) List(ctx context.Context) []*Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*Config, 0)
	for key := range s.d.Keys(ctx.Done()) {
		c, err := s.read(key)
		if err != nil {
			s.log.Warn("skipping window config", "key", key, "error", err)
			continue
		}
		all = append(all, c)
	}
	sort.SliceStable(all, func(i, j int) bool {
		li, lj := strings.ToLower(all[i].Name), strings.ToLower(all[j].Name)
		if li == lj {
			return all[i].ID < all[j].ID
		}
		return li < lj
	})
	return all
}

func (s *Store) Get(id string) (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.d.Has(id) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.read(id)
}

// FindByName resolves a window by case-insensitive name.
func (s *Store) FindByName(ctx context.Context, name string) (*Config, error) {
	for _, c := range s.List(ctx) {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Save validates and writes c, assigning an id when it has none.
func (s *Store) Save(c *Config) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid window: %w", err)
	}
	if c.ID == "" {
		c.ID = NewConfig(c.Name).ID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(c)
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.d.Has(id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.d.Erase(id)
}

// SavePlacements writes trigger positions and anchors back to their window
// configs. Placements for windows that no longer exist are skipped.
func (s *Store) SavePlacements(placements []overlay.Placement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, p := range placements {
		if !s.d.Has(p.ID) {
			continue
		}
		c, err := s.read(p.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c.TriggerX, c.TriggerY = p.Pos.X, p.Pos.Y
		c.CornerAnchor = p.Anchor
		if err := s.write(c); err != nil {
			errs = append(errs, fmt.Errorf("save placement %s: %w", p.ID, err))
		}
	}
	return errors.Join(errs...)
}
