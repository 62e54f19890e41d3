package catalog

import (
	"context"
	"diningbot-backend/lib/scrapers/dining"
	"log/slog"
	"slices"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// Lister lists the food names served at a place, *dining.Session
// implements it.
type Lister interface {
	ListFoods(ctx context.Context, placeId string) (dining.FoodSet, error)
}

// at most this many listings are fetched at once
const listingConcurrency = 4

// Rebuild is a handle on a cache rebuild running in the background.
type Rebuild struct {
	done chan struct{}
	err  error
}

func (r *Rebuild) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the rebuild completes or the context is done, the
// rebuild continues either way.
func (r *Rebuild) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Result struct {
	// Added holds the newly persisted foods in the order they were added.
	Added []Food
	// Failed maps the places that were skipped to the reason why.
	Failed map[string]error
	// Rebuild completes when the cache reflects the synchronization.
	Rebuild *Rebuild
}

func (r Result) AddedCount() int {
	return len(r.Added)
}

type listing struct {
	foods dining.FoodSet
	err   error
}

func fetchListings(ctx context.Context, lister Lister, places []string) []listing {
	listings := make([]listing, len(places))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listingConcurrency)
	for i, place := range places {
		i, place := i, place
		g.Go(func() error {
			foods, err := lister.ListFoods(gctx, place)
			listings[i] = listing{foods: foods, err: err}
			// one place failing must not cancel the others
			return nil
		})
	}
	g.Wait()

	return listings
}

// Synchronize reconciles the listings of `places` against the known food
// set. Every name that was not known before the pass is persisted with
// the next sequential id. A place whose listing cannot be fetched, or
// whose new foods cannot be persisted, is skipped and reported in
// Result.Failed, the pass carries on with the remaining places.
//
// Passes are serialized, the cache rebuild that follows a pass runs in
// the background and is exposed through Result.Rebuild.
func (c *Catalog) Synchronize(ctx context.Context, lister Lister, places []string) Result {
	c.syncMutex.Lock()
	defer c.syncMutex.Unlock()

	ctx, span := tracer.Start(ctx, "catalog:Synchronize")
	defer span.End()
	span.SetAttributes(attribute.StringSlice("places", places))

	known := c.knownNames()
	nextId := len(known) + 1
	persisted := map[string]struct{}{}

	result := Result{Failed: map[string]error{}}
	var reconciled []dining.FoodSet

	listings := fetchListings(ctx, lister, places)
	for i, place := range places {
		if listings[i].err != nil {
			slog.WarnContext(ctx, "skipping place", "place", place, "err", listings[i].err)
			result.Failed[place] = listings[i].err
			continue
		}

		var newNames []string
		for name := range listings[i].foods {
			_, isKnown := known[name]
			_, isPersisted := persisted[name]
			if isKnown || isPersisted {
				continue
			}
			newNames = append(newNames, name)
		}
		slices.Sort(newNames)

		ok := true
		for _, name := range newNames {
			food := Food{Id: strconv.Itoa(nextId), Name: name}
			err := c.store.AddFood(ctx, food)
			if err != nil {
				slog.ErrorContext(ctx, "failed to add food", "place", place, "food", food.Name, "err", err)
				result.Failed[place] = err
				ok = false
				break
			}
			slog.DebugContext(ctx, "added food", "id", food.Id, "name", food.Name)

			nextId++
			persisted[name] = struct{}{}
			c.addNames(name)
			result.Added = append(result.Added, food)
		}
		if ok {
			reconciled = append(reconciled, listings[i].foods)
		}
	}

	for _, foods := range reconciled {
		for name := range foods {
			c.addNames(name)
		}
	}

	addedCounter.Add(ctx, int64(len(result.Added)))
	failedPlaceCounter.Add(ctx, int64(len(result.Failed)))
	span.SetAttributes(
		attribute.Int("added", len(result.Added)),
		attribute.Int("failed", len(result.Failed)),
	)
	if len(result.Failed) > 0 {
		span.SetStatus(codes.Error, "some places could not be synchronized")
	}
	slog.InfoContext(ctx, "synchronized catalog", "added", len(result.Added), "failed_places", len(result.Failed))

	result.Rebuild = c.startRebuild(ctx)
	return result
}

func (c *Catalog) startRebuild(ctx context.Context) *Rebuild {
	r := &Rebuild{done: make(chan struct{})}
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer close(r.done)
		ctx, span := tracer.Start(ctx, "catalog:Rebuild")
		defer span.End()

		r.err = c.rebuild(ctx)
		if r.err != nil {
			span.RecordError(r.err)
			span.SetStatus(codes.Error, r.err.Error())
			slog.ErrorContext(ctx, "failed to rebuild food cache", "err", r.err)
		}
	}()
	return r
}
