package dining

import (
	"diningbot-backend/lib/htmlutil"
	"fmt"
)

const (
	// ReasonBadStatus means the portal answered with a non-success status.
	ReasonBadStatus = "bad_status"
	// ReasonMissingToken means an expected token, identifier or cookie
	// could not be found.
	ReasonMissingToken = "missing_token"
	// ReasonRequest means the request never got a response.
	ReasonRequest = "request"

	ReasonNotAuthenticated = "not_authenticated"
	ReasonTransport        = "transport"

	ReasonMissingListing = "missing_listing"
	ReasonUnparseable    = "unparseable"
	ReasonRejected       = "rejected"
)

// ExtractionError is returned when an expected element, attribute or
// pattern is missing from a portal response.
type ExtractionError = htmlutil.ExtractionError

// AuthenticationError is returned by Login, no session is created when
// it occurs.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed (%s): %s", e.Reason, e.Err.Error())
	}
	return fmt.Sprintf("authentication failed (%s)", e.Reason)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// SessionError is returned when a session that never logged in is used
// or when the transport fails underneath an authenticated request.
type SessionError struct {
	Reason string
	Err    error
}

func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session error (%s): %s", e.Reason, e.Err.Error())
	}
	return fmt.Sprintf("session error (%s)", e.Reason)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// ListingError is returned when the food listing of a place cannot be
// loaded.
type ListingError struct {
	PlaceId string
	Reason  string
	Err     error
}

func (e *ListingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("list foods of place %s (%s): %s", e.PlaceId, e.Reason, e.Err.Error())
	}
	return fmt.Sprintf("list foods of place %s (%s)", e.PlaceId, e.Reason)
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

// ReservationError is returned when a reserve or cancel request fails
// or the portal's confirmation cannot be understood.
type ReservationError struct {
	Action string
	Reason string
	Err    error
}

func (e *ReservationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s food (%s): %s", e.Action, e.Reason, e.Err.Error())
	}
	return fmt.Sprintf("%s food (%s)", e.Action, e.Reason)
}

func (e *ReservationError) Unwrap() error {
	return e.Err
}
