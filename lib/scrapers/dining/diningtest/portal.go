// Package diningtest provides an in-process imitation of the sso and
// dining portals for tests.
package diningtest

import (
	_ "embed"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

var (
	//go:embed testdata/sign_in.html
	SignInPage string
	//go:embed testdata/landing.html
	LandingPage string
	//go:embed testdata/reserve.html
	ReservePage string
	//go:embed testdata/listing.html
	ListingHtml string
	//go:embed testdata/listing.json
	ListingJson string
	//go:embed testdata/listing_closed.html
	ListingClosed string
)

const (
	Identifier    = "400100100"
	Password      = "hunter2"
	UserId        = "1234567890"
	CsrfToken     = "dining-csrf-token"
	SessionCookie = "session-cookie"
	CsrfCookie    = "csrf-cookie"

	formToken    = "sso-form-token"
	signInCommit = "ورود به حساب کاربری"
)

// Portal serves the sso and the dining portal from one host.
type Portal struct {
	*httptest.Server

	mutex sync.Mutex

	// Credentials accepted by the sign in form, student identifier ->
	// password.
	Credentials map[string]string
	// Pages served at each step of the login handshake.
	SignIn  string
	Landing string
	Reserve string
	Cookies []*http.Cookie
	// Listings maps a place id to its listing body, unknown places get a
	// 500.
	Listings map[string]string
	// Confirmation is the body returned by reserve and cancel.
	Confirmation string

	Logins            int
	ListingRequests   int
	LastListingHeader http.Header
	LastListingForm   url.Values
	LastConfirmQuery  url.Values
	LastConfirmForm   url.Values
}

func NewPortal(t testing.TB) *Portal {
	p := &Portal{
		Credentials: map[string]string{Identifier: Password},
		SignIn:      SignInPage,
		Landing:     LandingPage,
		Reserve:     ReservePage,
		Cookies: []*http.Cookie{
			{Name: "PHPSESSID", Value: SessionCookie, Path: "/"},
			{Name: "_csrf", Value: CsrfCookie, Path: "/"},
		},
		Listings: map[string]string{
			"21": ListingHtml,
			"22": ListingJson,
			"23": ListingClosed,
		},
		Confirmation: `{"success":true,"message":"رزرو با موفقیت انجام شد"}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/students/sign_in", p.handleSignIn)
	mux.HandleFunc("/admin", p.handleLanding)
	mux.HandleFunc("/admin/food/food-reserve/reserve", p.authenticated(p.handleReservePage))
	mux.HandleFunc("/admin/food/food-reserve/load-reserve-table", p.authenticated(p.handleListing))
	mux.HandleFunc("/admin/food/food-reserve/do-reserve-from-diet", p.authenticated(p.handleConfirm))
	mux.HandleFunc("/admin/food/food-reserve/cancel-reserve", p.authenticated(p.handleConfirm))

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Close)
	return p
}

// Set changes the portal's behavior while holding its lock, it is also
// how recorded requests are read safely.
func (p *Portal) Set(fn func(p *Portal)) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	fn(p)
}

func (p *Portal) handleSignIn(w http.ResponseWriter, r *http.Request) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if r.Method == http.MethodGet {
		io.WriteString(w, p.SignIn)
		return
	}

	err := r.ParseForm()
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("authenticity_token") != formToken ||
		r.PostForm.Get("commit") != signInCommit {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}
	password, ok := p.Credentials[r.PostForm.Get("student[student_identifier]")]
	if !ok || password != r.PostForm.Get("student[password]") {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, p.SignIn)
		return
	}
	p.Logins++
	io.WriteString(w, "<html><body>signed in</body></html>")
}

func (p *Portal) handleLanding(w http.ResponseWriter, r *http.Request) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for _, cookie := range p.Cookies {
		http.SetCookie(w, cookie)
	}
	io.WriteString(w, p.Landing)
}

func (p *Portal) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := r.Cookie("PHPSESSID")
		if err != nil || session.Value != SessionCookie ||
			r.Header.Get("X-CSRF-Token") != CsrfToken ||
			r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		p.mutex.Lock()
		defer p.mutex.Unlock()
		next(w, r)
	}
}

func (p *Portal) handleReservePage(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, p.Reserve)
}

func (p *Portal) handleListing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	err := r.ParseForm()
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	p.ListingRequests++
	p.LastListingHeader = r.Header.Clone()
	p.LastListingForm = r.PostForm

	body, ok := p.Listings[r.PostForm.Get("parent_id")]
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if strings.HasPrefix(body, "{") {
		w.Header().Set("content-type", "application/json")
	}
	io.WriteString(w, body)
}

// GET requests with a form body are not parsed by http.Request.ParseForm
func (p *Portal) handleConfirm(w http.ResponseWriter, r *http.Request) {
	contents, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	form, err := url.ParseQuery(string(contents))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	p.LastConfirmQuery = r.URL.Query()
	p.LastConfirmForm = form

	w.Header().Set("content-type", "application/json")
	io.WriteString(w, p.Confirmation)
}
