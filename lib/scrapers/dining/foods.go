package dining

import (
	"bytes"
	"context"
	"diningbot-backend/lib/htmlutil"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const listingPath = "/admin/food/food-reserve/load-reserve-table"

// DefaultWeek is the week offset requested by ListFoods.
const DefaultWeek = 1

// ListingMarkup describes where the listing table and the food names
// within it live in the listing response.
type ListingMarkup struct {
	Table    htmlutil.Field
	FoodName htmlutil.Field
}

var DefaultListingMarkup = ListingMarkup{
	Table: htmlutil.Field{
		Name: "listing table",
		Tag:  "table",
	},
	FoodName: htmlutil.Field{
		Name:  "food name",
		Attrs: map[string]string{"class": "food-name"},
	},
}

func (m ListingMarkup) withDefaults() ListingMarkup {
	if m.Table.Selector() == "*" {
		m.Table = DefaultListingMarkup.Table
	}
	if m.FoodName.Selector() == "*" {
		m.FoodName = DefaultListingMarkup.FoodName
	}
	return m
}

// FoodSet is a set of food names.
type FoodSet map[string]struct{}

func NewFoodSet(names ...string) FoodSet {
	set := make(FoodSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func (s FoodSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// ParseListing extracts the set of food names out of a listing
// response, the response is either the html fragment itself or a json
// object wrapping it in an "html" field.
func ParseListing(body []byte, markup ListingMarkup) (FoodSet, error) {
	markup = markup.withDefaults()

	trimmed := bytes.TrimSpace(body)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		var wrapped struct {
			Html string `json:"html"`
		}
		err := json.Unmarshal(trimmed, &wrapped)
		if err != nil {
			return nil, &ExtractionError{Field: "listing", Reason: htmlutil.ReasonUnparseable, Err: err}
		}
		trimmed = []byte(wrapped.Html)
	}

	doc, err := htmlutil.ParseDocument(trimmed)
	if err != nil {
		return nil, err
	}
	table := doc.Find(markup.Table.Selector()).First()
	if table.Length() == 0 {
		return nil, &ExtractionError{Field: markup.Table.String(), Reason: htmlutil.ReasonElementNotFound}
	}

	return NewFoodSet(htmlutil.ExtractAll(table, markup.FoodName)...), nil
}

// ListFoods lists the names of the foods served at a place this week.
func (s *Session) ListFoods(ctx context.Context, placeId string) (FoodSet, error) {
	return s.ListFoodsInWeek(ctx, placeId, DefaultWeek)
}

func (s *Session) ListFoodsInWeek(ctx context.Context, placeId string, week int) (FoodSet, error) {
	ctx, span := tracer.Start(ctx, "session:ListFoods")
	defer span.End()
	span.SetAttributes(
		attribute.String("place_id", placeId),
		attribute.Int("week", week),
	)

	userId := ""
	if s != nil {
		userId = s.userId
	}
	res, err := s.Request(ctx, http.MethodPost, listingPath, nil, map[string]string{
		"id":        "0",
		"parent_id": placeId,
		"week":      strconv.Itoa(week),
		"user_id":   userId,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, err
	}
	if !isSuccess(res) {
		err := &ListingError{
			PlaceId: placeId,
			Reason:  ReasonBadStatus,
			Err:     fmt.Errorf("%s", res.Status()),
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	foods, err := ParseListing(res.Body(), s.listing)
	if err != nil {
		err := &ListingError{PlaceId: placeId, Reason: ReasonMissingListing, Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse listing")
		return nil, err
	}
	span.SetAttributes(attribute.Int("food_count", len(foods)))
	return foods, nil
}
