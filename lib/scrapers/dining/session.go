package dining

import (
	"context"
	"maps"
	"net/url"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Session is an authenticated portal session, it can only be obtained
// through Client.Login.
type Session struct {
	http       *resty.Client
	listing    ListingMarkup
	identifier string
	userId     string
	headers    map[string]string
	cookies    map[string]string
}

// Identifier is the student identifier the session was logged in with.
func (s *Session) Identifier() string {
	return s.identifier
}

// UserId is the portal's internal id of the logged in student.
func (s *Session) UserId() string {
	return s.userId
}

// Headers returns a copy of the headers attached to every request.
func (s *Session) Headers() map[string]string {
	return maps.Clone(s.headers)
}

// Cookies returns a copy of the portal cookies captured at login.
func (s *Session) Cookies() map[string]string {
	return maps.Clone(s.cookies)
}

// Request makes an authenticated request to a path on the dining portal,
// `query` and `form` may be nil. Only transport failures are errors,
// interpreting the status is up to the caller.
func (s *Session) Request(ctx context.Context, method, path string, query url.Values, form map[string]string) (*resty.Response, error) {
	ctx, span := tracer.Start(ctx, "session:Request")
	defer span.End()

	if s == nil || s.http == nil {
		err := &SessionError{Reason: ReasonNotAuthenticated}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
	)

	req := s.http.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if form != nil {
		req.SetFormData(form)
	}

	res, err := req.Execute(method, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, &SessionError{Reason: ReasonTransport, Err: err}
	}
	return res, nil
}
