package catalog

import (
	"context"
	"diningbot-backend/lib/scrapers/dining"
	"diningbot-backend/lib/telemetry"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mutex sync.Mutex
	foods []Food
	// AddFood fails for these names
	failOn map[string]error
	// GetAllFoods blocks until this is closed, if set
	gate chan struct{}
}

func (s *memoryStore) GetAllFoods(ctx context.Context) ([]Food, error) {
	if s.gate != nil {
		<-s.gate
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	out := make([]Food, len(s.foods))
	copy(out, s.foods)
	return out, nil
}

func (s *memoryStore) AddFood(ctx context.Context, food Food) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.failOn[food.Name]; err != nil {
		return err
	}
	for _, f := range s.foods {
		if f.Id == food.Id || f.Name == food.Name {
			return fmt.Errorf("duplicate food %v", food)
		}
	}
	s.foods = append(s.foods, food)
	return nil
}

type fakeLister map[string]any

func (l fakeLister) ListFoods(ctx context.Context, placeId string) (dining.FoodSet, error) {
	switch v := l[placeId].(type) {
	case dining.FoodSet:
		return v, nil
	case error:
		return nil, v
	}
	return nil, &dining.ListingError{PlaceId: placeId, Reason: dining.ReasonBadStatus}
}

func loadedCatalog(t testing.TB, store *memoryStore) *Catalog {
	c := New(store)
	require.NoError(t, c.Load(context.Background()))
	return c
}

func TestSynchronizeScenario(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:catalog")
	defer cleanup()

	ctx := context.Background()
	store := &memoryStore{foods: []Food{{Id: "1", Name: "Rice"}}}
	c := loadedCatalog(t, store)

	lister := fakeLister{
		"A": dining.NewFoodSet("Rice", "Kebab"),
		"B": dining.NewFoodSet("Kebab", "Soup"),
	}
	result := c.Synchronize(ctx, lister, []string{"A", "B"})
	require.Empty(t, result.Failed)
	require.Equal(t, 2, result.AddedCount())

	diff := cmp.Diff([]Food{
		{Id: "2", Name: "Kebab"},
		{Id: "3", Name: "Soup"},
	}, result.Added)
	require.Empty(t, diff)

	require.True(t, c.Known("Rice"))
	require.True(t, c.Known("Kebab"))
	require.True(t, c.Known("Soup"))
	require.Equal(t, 3, c.KnownCount())

	require.NoError(t, result.Rebuild.Wait(ctx))
	diff = cmp.Diff([]Food{
		{Id: "1", Name: "Rice"},
		{Id: "2", Name: "Kebab"},
		{Id: "3", Name: "Soup"},
	}, c.Foods())
	require.Empty(t, diff)

	name, ok := c.Name("3")
	require.True(t, ok)
	require.Equal(t, "Soup", name)

	// a second pass over the same listings is a no-op
	result = c.Synchronize(ctx, lister, []string{"A", "B"})
	require.Equal(t, 0, result.AddedCount())
	require.NoError(t, result.Rebuild.Wait(ctx))
	require.Len(t, store.foods, 3)
	require.Equal(t, 3, c.Len())
}

func TestSynchronizeConsecutiveIds(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	c := loadedCatalog(t, store)

	result := c.Synchronize(ctx, fakeLister{
		"21": dining.NewFoodSet("e", "c", "a", "d", "b"),
	}, []string{"21"})
	require.NoError(t, result.Rebuild.Wait(ctx))

	diff := cmp.Diff([]Food{
		{Id: "1", Name: "a"},
		{Id: "2", Name: "b"},
		{Id: "3", Name: "c"},
		{Id: "4", Name: "d"},
		{Id: "5", Name: "e"},
	}, c.Foods())
	require.Empty(t, diff)
}

func TestSynchronizeListingFailure(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{foods: []Food{{Id: "1", Name: "Rice"}}}
	c := loadedCatalog(t, store)

	listingErr := &dining.ListingError{PlaceId: "B", Reason: dining.ReasonMissingListing}
	result := c.Synchronize(ctx, fakeLister{
		"A": dining.NewFoodSet("Rice", "Kebab"),
		"B": listingErr,
	}, []string{"A", "B"})

	require.Equal(t, 1, result.AddedCount())
	require.Equal(t, Food{Id: "2", Name: "Kebab"}, result.Added[0])
	require.Len(t, result.Failed, 1)
	require.ErrorIs(t, result.Failed["B"], listingErr)
	require.False(t, c.Known("Soup"))

	require.NoError(t, result.Rebuild.Wait(ctx))
	require.Equal(t, 2, c.Len())
}

func TestSynchronizeStorageFailure(t *testing.T) {
	ctx := context.Background()
	diskFull := errors.New("disk full")
	store := &memoryStore{
		foods:  []Food{{Id: "1", Name: "Rice"}},
		failOn: map[string]error{"Soup": diskFull},
	}
	c := loadedCatalog(t, store)

	result := c.Synchronize(ctx, fakeLister{
		"A": dining.NewFoodSet("Rice", "Kebab"),
		"B": dining.NewFoodSet("Kebab", "Soup", "Tea"),
		"C": dining.NewFoodSet("Bread"),
	}, []string{"A", "B", "C"})

	require.ErrorIs(t, result.Failed["B"], diskFull)
	require.False(t, c.Known("Soup"))
	// B stopped at Soup so Tea was never persisted nor marked as known
	require.False(t, c.Known("Tea"))

	// the id Soup would have used is given to the next new food
	diff := cmp.Diff([]Food{
		{Id: "2", Name: "Kebab"},
		{Id: "3", Name: "Bread"},
	}, result.Added)
	require.Empty(t, diff)
	require.NoError(t, result.Rebuild.Wait(ctx))
}

func TestSynchronizeSerialized(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	c := loadedCatalog(t, store)

	lister := fakeLister{"A": dining.NewFoodSet("a", "b", "c", "d")}

	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Synchronize(ctx, lister, []string{"A"})
		}()
	}
	wg.Wait()

	total := 0
	for _, r := range results {
		require.Empty(t, r.Failed)
		total += r.AddedCount()
		require.NoError(t, r.Rebuild.Wait(ctx))
	}
	require.Equal(t, 4, total)
	require.Len(t, store.foods, 4)
}

func TestRebuildWait(t *testing.T) {
	store := &memoryStore{}
	c := loadedCatalog(t, store)

	store.gate = make(chan struct{})
	result := c.Synchronize(context.Background(), fakeLister{
		"A": dining.NewFoodSet("Rice"),
	}, []string{"A"})

	// the cache still holds the previous snapshot while the rebuild is blocked
	require.Equal(t, 0, c.Len())
	require.True(t, c.Known("Rice"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, result.Rebuild.Wait(ctx), context.DeadlineExceeded)

	close(store.gate)
	require.NoError(t, result.Rebuild.Wait(context.Background()))
	require.Equal(t, 1, c.Len())
}

func TestPage(t *testing.T) {
	store := &memoryStore{}
	for i := 1; i <= 7; i++ {
		store.foods = append(store.foods, Food{Id: fmt.Sprint(i), Name: fmt.Sprintf("food %d", i)})
	}
	c := loadedCatalog(t, store)

	require.Equal(t, 3, c.Pages(3))
	require.Equal(t, []Food{
		{Id: "1", Name: "food 1"},
		{Id: "2", Name: "food 2"},
		{Id: "3", Name: "food 3"},
	}, c.Page(1, 3))
	require.Equal(t, []Food{{Id: "7", Name: "food 7"}}, c.Page(3, 3))
	require.Empty(t, c.Page(4, 3))
	require.Empty(t, c.Page(0, 3))
	require.Empty(t, c.Page(1, 0))
}

func TestSearch(t *testing.T) {
	store := &memoryStore{foods: []Food{
		{Id: "1", Name: "چلو کباب کوبیده"},
		{Id: "2", Name: "عدس پلو"},
		{Id: "3", Name: "Chicken Kebab"},
		{Id: "4", Name: "Kebab"},
		{Id: "5", Name: "Vegetable Soup"},
	}}
	c := loadedCatalog(t, store)

	results := c.Search("kebab", 10)
	require.NotEmpty(t, results)
	require.Equal(t, "4", results[0].Id)
	require.Equal(t, "3", results[1].Id)

	results = c.Search("کباب", 1)
	require.Equal(t, []Food{{Id: "1", Name: "چلو کباب کوبیده"}}, results)

	require.Empty(t, c.Search("", 10))
	require.Empty(t, c.Search("kebab", 0))
}
