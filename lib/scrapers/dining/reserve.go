package dining

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	reserveFoodPath = "/admin/food/food-reserve/do-reserve-from-diet"
	cancelFoodPath  = "/admin/food/food-reserve/cancel-reserve"
)

// Confirmation is the portal's answer to a reserve or cancel request.
type Confirmation struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ReserveFood reserves a food at a place for the given portal user.
func (s *Session) ReserveFood(ctx context.Context, userId, placeId, foodId string) (Confirmation, error) {
	ctx, span := tracer.Start(ctx, "session:ReserveFood")
	defer span.End()
	span.SetAttributes(
		attribute.String("place_id", placeId),
		attribute.String("food_id", foodId),
	)

	confirmation, err := s.confirm(ctx, "reserve", reserveFoodPath, userId, map[string]string{
		"id":       foodId,
		"place_id": placeId,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reserve food")
	}
	return confirmation, err
}

// CancelFood cancels a reservation for the given portal user.
func (s *Session) CancelFood(ctx context.Context, userId, foodId string) (Confirmation, error) {
	ctx, span := tracer.Start(ctx, "session:CancelFood")
	defer span.End()
	span.SetAttributes(attribute.String("food_id", foodId))

	confirmation, err := s.confirm(ctx, "cancel", cancelFoodPath, userId, map[string]string{
		"id": foodId,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to cancel food")
	}
	return confirmation, err
}

func (s *Session) confirm(ctx context.Context, action, path, userId string, form map[string]string) (Confirmation, error) {
	res, err := s.Request(ctx, http.MethodGet, path, url.Values{"user_id": {userId}}, form)
	if err != nil {
		return Confirmation{}, &ReservationError{Action: action, Reason: ReasonRequest, Err: err}
	}
	if !isSuccess(res) {
		return Confirmation{}, &ReservationError{
			Action: action,
			Reason: ReasonBadStatus,
			Err:    fmt.Errorf("%s", res.Status()),
		}
	}

	var confirmation Confirmation
	err = json.Unmarshal(res.Body(), &confirmation)
	if err != nil {
		return Confirmation{}, &ReservationError{Action: action, Reason: ReasonUnparseable, Err: err}
	}
	if !confirmation.Success {
		return confirmation, &ReservationError{
			Action: action,
			Reason: ReasonRejected,
			Err:    fmt.Errorf("%s", confirmation.Message),
		}
	}
	return confirmation, nil
}
