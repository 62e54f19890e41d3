package dining

import (
	"context"
	"diningbot-backend/lib/htmlutil"
	"diningbot-backend/lib/scrapers/dining/diningtest"
	"diningbot-backend/lib/telemetry"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var testCredential = Credential{Identifier: diningtest.Identifier, Secret: diningtest.Password}

func newTestClient(t testing.TB, portal *diningtest.Portal) *Client {
	client, err := NewClient(ClientOptions{
		SsoBaseUrl:    portal.URL,
		DiningBaseUrl: portal.URL,
	})
	require.NoError(t, err)
	return client
}

func TestLogin(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/dining")
	defer cleanup()

	ctx, span := tracer.Start(context.Background(), "TestLogin")
	defer span.End()

	portal := diningtest.NewPortal(t)
	session, err := newTestClient(t, portal).Login(ctx, testCredential)
	require.NoError(t, err)
	require.NotNil(t, session)

	require.Equal(t, diningtest.UserId, session.UserId())
	require.Equal(t, diningtest.Identifier, session.Identifier())

	diff := cmp.Diff(map[string]string{
		"X-CSRF-Token":     diningtest.CsrfToken,
		"X-Requested-With": "XMLHttpRequest",
		"Cookie":           "PHPSESSID=session-cookie; _csrf=csrf-cookie",
	}, session.Headers())
	require.Empty(t, diff)

	diff = cmp.Diff(map[string]string{
		"PHPSESSID": diningtest.SessionCookie,
		"_csrf":     diningtest.CsrfCookie,
	}, session.Cookies())
	require.Empty(t, diff)
}

func TestLoginFailures(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/dining")
	defer cleanup()

	testCases := []struct {
		name       string
		credential Credential
		breakStep  func(p *diningtest.Portal)
		reason     string
		extraction bool
	}{
		{
			name:       "wrong password",
			credential: Credential{Identifier: diningtest.Identifier, Secret: "wrong"},
			reason:     ReasonBadStatus,
		},
		{
			name:       "no authenticity token",
			credential: testCredential,
			breakStep:  func(p *diningtest.Portal) { p.SignIn = "<html><body><form></form></body></html>" },
			reason:     ReasonMissingToken,
			extraction: true,
		},
		{
			name:       "no csrf meta tag",
			credential: testCredential,
			breakStep:  func(p *diningtest.Portal) { p.Landing = "<html><head></head><body></body></html>" },
			reason:     ReasonMissingToken,
			extraction: true,
		},
		{
			name:       "no self select",
			credential: testCredential,
			breakStep:  func(p *diningtest.Portal) { p.Reserve = `<html><body><select id="other"></select></body></html>` },
			reason:     ReasonMissingToken,
			extraction: true,
		},
		{
			name:       "self select without an id",
			credential: testCredential,
			breakStep: func(p *diningtest.Portal) {
				p.Reserve = `<select id="foodreservesdefineform-self_id" class="form-control" onchange="()"></select>`
			},
			reason:     ReasonMissingToken,
			extraction: true,
		},
		{
			name:       "single cookie",
			credential: testCredential,
			breakStep:  func(p *diningtest.Portal) { p.Cookies = p.Cookies[:1] },
			reason:     ReasonMissingToken,
			extraction: true,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			portal := diningtest.NewPortal(t)
			if test.breakStep != nil {
				portal.Set(test.breakStep)
			}

			session, err := newTestClient(t, portal).Login(context.Background(), test.credential)
			require.Nil(t, session)

			var authErr *AuthenticationError
			require.ErrorAs(t, err, &authErr)
			require.Equal(t, test.reason, authErr.Reason)

			if test.extraction {
				var extractErr *ExtractionError
				require.ErrorAs(t, err, &extractErr)
			}
		})
	}
}

func TestLoginTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client, err := NewClient(ClientOptions{
		SsoBaseUrl:    server.URL,
		DiningBaseUrl: server.URL,
	})
	require.NoError(t, err)

	session, err := client.Login(context.Background(), testCredential)
	require.Nil(t, session)
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, ReasonRequest, authErr.Reason)
}

func TestSessionWithoutLogin(t *testing.T) {
	ctx := context.Background()

	var session *Session
	_, err := session.Request(ctx, http.MethodGet, landingPath, nil, nil)
	var sessionErr *SessionError
	require.ErrorAs(t, err, &sessionErr)
	require.Equal(t, ReasonNotAuthenticated, sessionErr.Reason)

	_, err = (&Session{}).ListFoods(ctx, "21")
	require.ErrorAs(t, err, &sessionErr)

	_, err = (&Session{}).ReserveFood(ctx, diningtest.UserId, "21", "5")
	require.ErrorAs(t, err, &sessionErr)
	var reservationErr *ReservationError
	require.ErrorAs(t, err, &reservationErr)
}

func TestListFoods(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/dining")
	defer cleanup()

	ctx := context.Background()
	portal := diningtest.NewPortal(t)
	session, err := newTestClient(t, portal).Login(ctx, testCredential)
	require.NoError(t, err)

	foods, err := session.ListFoods(ctx, "21")
	require.NoError(t, err)
	require.Equal(t, NewFoodSet("چلو کباب کوبیده", "عدس پلو", "خوراک مرغ"), foods)

	portal.Set(func(p *diningtest.Portal) {
		require.Equal(t, "0", p.LastListingForm.Get("id"))
		require.Equal(t, "21", p.LastListingForm.Get("parent_id"))
		require.Equal(t, "1", p.LastListingForm.Get("week"))
		require.Equal(t, diningtest.UserId, p.LastListingForm.Get("user_id"))
		require.Equal(t, "XMLHttpRequest", p.LastListingHeader.Get("X-Requested-With"))
		// portal cookies are sent once, through the composed header only
		require.Equal(t,
			[]string{"PHPSESSID=session-cookie; _csrf=csrf-cookie"},
			p.LastListingHeader.Values("Cookie"),
		)
	})

	foods, err = session.ListFoods(ctx, "22")
	require.NoError(t, err)
	require.Equal(t, NewFoodSet("Rice", "Soup"), foods)

	_, err = session.ListFoods(ctx, "23")
	var listingErr *ListingError
	require.ErrorAs(t, err, &listingErr)
	require.Equal(t, "23", listingErr.PlaceId)
	require.Equal(t, ReasonMissingListing, listingErr.Reason)
	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
	require.Equal(t, htmlutil.ReasonElementNotFound, extractErr.Reason)

	_, err = session.ListFoods(ctx, "404")
	require.ErrorAs(t, err, &listingErr)
	require.Equal(t, ReasonBadStatus, listingErr.Reason)
}

func TestParseListing(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		expected FoodSet
		reason   string
	}{
		{
			name:     "html table with duplicates",
			body:     diningtest.ListingHtml,
			expected: NewFoodSet("چلو کباب کوبیده", "عدس پلو", "خوراک مرغ"),
		},
		{
			name:     "json wrapped html",
			body:     diningtest.ListingJson,
			expected: NewFoodSet("Rice", "Soup"),
		},
		{
			name: "names outside the first table",
			body: `<table><tr><td><span class="food-name">Rice</span></td></tr></table>
				<table><tr><td><span class="food-name">Soup</span></td></tr></table>`,
			expected: NewFoodSet("Rice"),
		},
		{
			name:     "empty table",
			body:     "<table></table>",
			expected: NewFoodSet(),
		},
		{
			name:   "no table",
			body:   diningtest.ListingClosed,
			reason: htmlutil.ReasonElementNotFound,
		},
		{
			name:   "broken json",
			body:   `{"html": `,
			reason: htmlutil.ReasonUnparseable,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			foods, err := ParseListing([]byte(test.body), ListingMarkup{})
			if test.reason != "" {
				var extractErr *ExtractionError
				require.ErrorAs(t, err, &extractErr)
				require.Equal(t, test.reason, extractErr.Reason)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.expected, foods)
		})
	}
}

func TestReserveAndCancel(t *testing.T) {
	ctx := context.Background()
	portal := diningtest.NewPortal(t)
	session, err := newTestClient(t, portal).Login(ctx, testCredential)
	require.NoError(t, err)

	confirmation, err := session.ReserveFood(ctx, session.UserId(), "21", "305")
	require.NoError(t, err)
	require.True(t, confirmation.Success)
	portal.Set(func(p *diningtest.Portal) {
		require.Equal(t, diningtest.UserId, p.LastConfirmQuery.Get("user_id"))
		require.Equal(t, "305", p.LastConfirmForm.Get("id"))
		require.Equal(t, "21", p.LastConfirmForm.Get("place_id"))
	})

	_, err = session.CancelFood(ctx, session.UserId(), "305")
	require.NoError(t, err)
	portal.Set(func(p *diningtest.Portal) {
		require.Equal(t, "305", p.LastConfirmForm.Get("id"))
		require.False(t, p.LastConfirmForm.Has("place_id"))
	})

	testCases := []struct {
		confirmation string
		reason       string
	}{
		{confirmation: `{"success":false,"message":"اعتبار کافی نیست"}`, reason: ReasonRejected},
		{confirmation: `<html>error</html>`, reason: ReasonUnparseable},
	}
	for _, test := range testCases {
		portal.Set(func(p *diningtest.Portal) { p.Confirmation = test.confirmation })

		_, err = session.ReserveFood(ctx, session.UserId(), "21", "305")
		var reservationErr *ReservationError
		require.ErrorAs(t, err, &reservationErr)
		require.Equal(t, test.reason, reservationErr.Reason)
		require.Equal(t, "reserve", reservationErr.Action)
	}
}

func TestCredentialRedaction(t *testing.T) {
	require.NotContains(t, testCredential.String(), diningtest.Password)
	require.NotContains(t, testCredential.LogValue().String(), diningtest.Password)
}

func TestComposeCookieHeader(t *testing.T) {
	header, err := composeCookieHeader([]*http.Cookie{
		{Name: "PHPSESSID", Value: "a"},
		{Name: "_csrf", Value: "b"},
		{Name: "extra", Value: "c"},
	})
	require.NoError(t, err)
	require.Equal(t, "PHPSESSID=a; _csrf=b", header)

	_, err = composeCookieHeader(nil)
	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
}

func TestResolvePath(t *testing.T) {
	testCases := []struct {
		base     string
		path     string
		expected string
	}{
		{base: "https://dining.sharif.ir", path: landingPath, expected: "https://dining.sharif.ir/admin"},
		{base: "https://dining.sharif.ir/", path: landingPath, expected: "https://dining.sharif.ir/admin"},
		{base: "http://127.0.0.1:8080", path: signInPath, expected: "http://127.0.0.1:8080/students/sign_in"},
	}

	for _, test := range testCases {
		base, err := url.Parse(test.base)
		require.NoError(t, err)

		resolved := resolvePath(base, test.path)
		require.Equal(t, test.expected, resolved.String())
		require.Equal(t, test.path, resolved.Path)
	}
}

func TestPortalCookiesOnBareHost(t *testing.T) {
	base, err := url.Parse(DefaultDiningBaseUrl)
	require.NoError(t, err)
	require.Empty(t, base.Path)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	landing := resolvePath(base, landingPath)
	jar.SetCookies(landing, []*http.Cookie{
		{Name: "PHPSESSID", Value: "a", Path: "/"},
		{Name: "_csrf", Value: "b", Path: "/"},
	})

	header, err := composeCookieHeader(jar.Cookies(landing))
	require.NoError(t, err)
	require.Equal(t, "PHPSESSID=a; _csrf=b", header)
}
