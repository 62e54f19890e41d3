package catalog

import (
	"context"
	"diningbot-backend/lib/textutil"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/antzucaro/matchr"
)

type Food struct {
	Id   string
	Name string
}

// Store is the persistent side of the catalog.
type Store interface {
	GetAllFoods(ctx context.Context) ([]Food, error)
	AddFood(ctx context.Context, food Food) error
}

type snapshot struct {
	foods []Food
	byId  map[string]string
}

func newSnapshot(foods []Food) *snapshot {
	byId := make(map[string]string, len(foods))
	for _, f := range foods {
		byId[f.Id] = f.Name
	}
	return &snapshot{foods: foods, byId: byId}
}

// Catalog holds the set of known food names along with a read cache of
// the persisted foods. Synchronize is the only writer, readers always
// see a complete snapshot of the cache.
type Catalog struct {
	store Store

	syncMutex    sync.Mutex
	rebuildMutex sync.Mutex

	namesMutex sync.RWMutex
	names      map[string]struct{}

	cache atomic.Pointer[snapshot]
}

func New(store Store) *Catalog {
	c := &Catalog{
		store: store,
		names: map[string]struct{}{},
	}
	c.cache.Store(newSnapshot(nil))
	return c
}

// Load reads every persisted food into the known set and the cache.
func (c *Catalog) Load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "catalog:Load")
	defer span.End()

	err := c.rebuild(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	slog.InfoContext(ctx, "loaded foods", "count", c.Len())
	return nil
}

// rebuild re-reads the catalog from storage and swaps in a fresh cache.
func (c *Catalog) rebuild(ctx context.Context) error {
	c.rebuildMutex.Lock()
	defer c.rebuildMutex.Unlock()

	foods, err := c.store.GetAllFoods(ctx)
	if err != nil {
		return fmt.Errorf("get all foods: %w", err)
	}

	c.namesMutex.Lock()
	for _, f := range foods {
		c.names[f.Name] = struct{}{}
	}
	c.namesMutex.Unlock()

	c.cache.Store(newSnapshot(foods))
	return nil
}

func (c *Catalog) knownNames() map[string]struct{} {
	c.namesMutex.RLock()
	defer c.namesMutex.RUnlock()

	out := make(map[string]struct{}, len(c.names))
	for name := range c.names {
		out[name] = struct{}{}
	}
	return out
}

func (c *Catalog) addNames(names ...string) {
	c.namesMutex.Lock()
	defer c.namesMutex.Unlock()
	for _, name := range names {
		c.names[name] = struct{}{}
	}
}

// Known reports if a food name has been seen before.
func (c *Catalog) Known(name string) bool {
	c.namesMutex.RLock()
	defer c.namesMutex.RUnlock()
	_, ok := c.names[name]
	return ok
}

// KnownCount is the size of the known food set.
func (c *Catalog) KnownCount() int {
	c.namesMutex.RLock()
	defer c.namesMutex.RUnlock()
	return len(c.names)
}

// Len is the number of foods in the cache.
func (c *Catalog) Len() int {
	return len(c.cache.Load().foods)
}

// Foods returns the cached foods in the order they were added.
func (c *Catalog) Foods() []Food {
	return slices.Clone(c.cache.Load().foods)
}

func (c *Catalog) Name(id string) (string, bool) {
	name, ok := c.cache.Load().byId[id]
	return name, ok
}

// Pages returns the number of pages of the given size.
func (c *Catalog) Pages(size int) int {
	if size <= 0 {
		return 0
	}
	return (c.Len() + size - 1) / size
}

// Page returns the foods on a page, pages start at 1. Pages out of range
// are empty.
func (c *Catalog) Page(page, size int) []Food {
	foods := c.cache.Load().foods
	if page < 1 || size <= 0 {
		return nil
	}
	start := (page - 1) * size
	if start >= len(foods) {
		return nil
	}
	end := min(start+size, len(foods))
	return slices.Clone(foods[start:end])
}

const searchThreshold = 0.75

type searchResult struct {
	food  Food
	index int
	score float64
}

// Search ranks cached foods by how similar their names are to the query,
// names containing the query rank first.
func (c *Catalog) Search(query string, limit int) []Food {
	key := textutil.SearchKey(query)
	if key == "" || limit <= 0 {
		return nil
	}

	var results []searchResult
	for i, food := range c.cache.Load().foods {
		name := textutil.SearchKey(food.Name)
		score := matchr.JaroWinkler(key, name, false)
		if strings.Contains(name, key) {
			score = 1 + float64(len(key))/float64(len(name))
		}
		if score < searchThreshold {
			continue
		}
		results = append(results, searchResult{food: food, index: i, score: score})
	}

	slices.SortStableFunc(results, func(a, b searchResult) int {
		if a.score > b.score {
			return -1
		}
		if a.score < b.score {
			return 1
		}
		return a.index - b.index
	})

	out := make([]Food, 0, min(limit, len(results)))
	for _, r := range results {
		if len(out) >= limit {
			break
		}
		out = append(out, r.food)
	}
	return out
}
