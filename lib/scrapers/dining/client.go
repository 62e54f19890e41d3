package dining

import (
	"context"
	"diningbot-backend/lib/htmlutil"
	"diningbot-backend/lib/restyutil"
	"diningbot-backend/lib/telemetry"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultSsoBaseUrl    = "https://sso.stu.sharif.ir"
	DefaultDiningBaseUrl = "https://dining.sharif.ir"

	signInPath  = "/students/sign_in"
	landingPath = "/admin"
	reservePath = "/admin/food/food-reserve/reserve"

	// the literal label of the sign in button, the portal expects it
	signInCommit = "ورود به حساب کاربری"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

var (
	authenticityTokenField = htmlutil.Field{
		Name:   "authenticity token",
		Tag:    "input",
		Attrs:  map[string]string{"name": "authenticity_token"},
		Target: "value",
	}
	csrfTokenField = htmlutil.Field{
		Name:   "csrf token",
		Tag:    "meta",
		Attrs:  map[string]string{"name": "csrf-token"},
		Target: "content",
	}
	userIdField = htmlutil.Field{
		Name:   "user id",
		Tag:    "select",
		Attrs:  map[string]string{"id": "foodreservesdefineform-self_id", "class": "form-control"},
		Target: "onchange",
	}
)

// the user id is the first word within the last 10 characters of the
// self select's onchange handler
const userIdTailLength = 10

type ClientOptions struct {
	// defaults to DefaultSsoBaseUrl
	SsoBaseUrl string
	// defaults to DefaultDiningBaseUrl
	DiningBaseUrl string
	// defaults to 30 seconds
	Timeout time.Duration
	// wraps the transport with a browser-like TLS fingerprint
	CloudflareBypass bool
	// receives redacted request dumps while debug logging is enabled
	DumpOutput restyutil.DumpOutput
	Listing    ListingMarkup
}

// Client is an unauthenticated handle on the portal, its only
// capability is logging in.
type Client struct {
	ssoUrl    *url.URL
	diningUrl *url.URL
	opts      ClientOptions
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.SsoBaseUrl == "" {
		opts.SsoBaseUrl = DefaultSsoBaseUrl
	}
	if opts.DiningBaseUrl == "" {
		opts.DiningBaseUrl = DefaultDiningBaseUrl
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}
	opts.Listing = opts.Listing.withDefaults()

	ssoUrl, err := url.Parse(opts.SsoBaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse sso base url: %w", err)
	}
	diningUrl, err := url.Parse(opts.DiningBaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse dining base url: %w", err)
	}

	return &Client{
		ssoUrl:    ssoUrl,
		diningUrl: diningUrl,
		opts:      opts,
	}, nil
}

func (c *Client) newHttpClient() (*resty.Client, *cookiejar.Jar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, nil, err
	}

	client := resty.New()
	client.SetBaseURL(c.diningUrl.String())
	client.SetCookieJar(jar)
	if c.opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(
		c.ssoUrl.Hostname(),
		c.diningUrl.Hostname(),
	))
	client.SetTimeout(c.opts.Timeout)
	// reserve and cancel are GET requests with form bodies
	client.SetAllowGetMethodPayload(true)

	telemetry.InstrumentResty(client, "diningbot.lib.scrapers.dining/http")
	restyutil.DumpMessages(client, c.opts.DumpOutput)

	return client, jar, nil
}

// resolvePath returns the absolute url of `path` on the host of `base`,
// unlike url.JoinPath the result always has a rooted path.
func resolvePath(base *url.URL, path string) *url.URL {
	return base.ResolveReference(&url.URL{Path: path})
}

func isSuccess(res *resty.Response) bool {
	return res.StatusCode() >= 200 && res.StatusCode() < 300
}

func authFailure(reason string, err error) *AuthenticationError {
	return &AuthenticationError{Reason: reason, Err: err}
}

// Login performs the single sign-on handshake and returns an
// authenticated session, a session is never returned alongside an error.
func (c *Client) Login(ctx context.Context, cred Credential) (*Session, error) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	session, err := c.login(ctx, cred)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("user_id", session.userId))
	return session, nil
}

func (c *Client) login(ctx context.Context, cred Credential) (*Session, error) {
	client, jar, err := c.newHttpClient()
	if err != nil {
		return nil, authFailure(ReasonRequest, err)
	}
	signInUrl := resolvePath(c.ssoUrl, signInPath).String()

	res, err := client.R().
		SetContext(ctx).
		Get(signInUrl)
	if err != nil {
		return nil, authFailure(ReasonRequest, err)
	}
	if !isSuccess(res) {
		return nil, authFailure(ReasonBadStatus, fmt.Errorf("sign in page: %s", res.Status()))
	}
	authenticityToken, err := htmlutil.ExtractHtml(res.Body(), authenticityTokenField)
	if err != nil {
		return nil, authFailure(ReasonMissingToken, err)
	}

	res, err = client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"authenticity_token":          authenticityToken,
			"student[student_identifier]": cred.Identifier,
			"student[password]":           cred.Secret,
			"commit":                      signInCommit,
		}).
		Post(signInUrl)
	if err != nil {
		return nil, authFailure(ReasonRequest, err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, authFailure(ReasonBadStatus, fmt.Errorf("sign in: %s", res.Status()))
	}

	res, err = client.R().
		SetContext(ctx).
		Get(landingPath)
	if err != nil {
		return nil, authFailure(ReasonRequest, err)
	}
	if !isSuccess(res) {
		return nil, authFailure(ReasonBadStatus, fmt.Errorf("landing page: %s", res.Status()))
	}
	csrfToken, err := htmlutil.ExtractHtml(res.Body(), csrfTokenField)
	if err != nil {
		return nil, authFailure(ReasonMissingToken, err)
	}

	cookies := jar.Cookies(resolvePath(c.diningUrl, landingPath))
	cookieHeader, err := composeCookieHeader(cookies)
	if err != nil {
		return nil, authFailure(ReasonMissingToken, err)
	}

	headers := map[string]string{
		"X-CSRF-Token":     csrfToken,
		"X-Requested-With": "XMLHttpRequest",
		"Cookie":           cookieHeader,
	}
	client.SetHeaders(headers)
	// the cookie header replaces the jar from here on, otherwise
	// net/http appends the same cookies a second time
	client.SetCookieJar(nil)

	res, err = client.R().
		SetContext(ctx).
		Get(reservePath)
	if err != nil {
		return nil, authFailure(ReasonRequest, err)
	}
	if !isSuccess(res) {
		return nil, authFailure(ReasonBadStatus, fmt.Errorf("reserve page: %s", res.Status()))
	}
	doc, err := htmlutil.ParseDocument(res.Body())
	if err != nil {
		return nil, authFailure(ReasonMissingToken, err)
	}
	userId, err := htmlutil.ExtractTailWord(doc, userIdField, userIdTailLength)
	if err != nil {
		return nil, authFailure(ReasonMissingToken, err)
	}

	cookieMap := make(map[string]string, len(cookies))
	for _, cookie := range cookies {
		if _, exists := cookieMap[cookie.Name]; !exists {
			cookieMap[cookie.Name] = cookie.Value
		}
	}

	return &Session{
		http:       client,
		listing:    c.opts.Listing,
		identifier: cred.Identifier,
		userId:     userId,
		headers:    headers,
		cookies:    cookieMap,
	}, nil
}

// composeCookieHeader builds the cookie header out of the first two
// portal cookies, the portal expects the session id first and the csrf
// cookie second.
func composeCookieHeader(cookies []*http.Cookie) (string, error) {
	if len(cookies) < 2 {
		return "", &ExtractionError{
			Field:  "portal cookies",
			Reason: htmlutil.ReasonElementNotFound,
			Err:    fmt.Errorf("expected at least 2 cookies, got %d", len(cookies)),
		}
	}
	return fmt.Sprintf("PHPSESSID=%s; _csrf=%s", cookies[0].Value, cookies[1].Value), nil
}
