package dining

import (
	"context"
	"crypto/sha256"
	scraper "diningbot-backend/lib/scrapers/dining"
	"encoding/hex"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// cachedSession is a session along with the fingerprint of the secret
// it was logged in with.
type cachedSession struct {
	fingerprint string
	session     *scraper.Session
}

// sessionCache holds one logged in session per student identifier,
// concurrent logins for the same credential share one handshake. A
// session is only handed out for the secret it was logged in with.
type sessionCache struct {
	client *scraper.Client
	cache  *expirable.LRU[string, cachedSession]
	group  *singleflight.Group
}

func newSessionCache(client *scraper.Client, ttl time.Duration) sessionCache {
	return sessionCache{
		client: client,
		cache:  expirable.NewLRU[string, cachedSession](2048, nil, ttl),
		group:  &singleflight.Group{},
	}
}

func secretFingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func (s sessionCache) lookup(identifier, fingerprint string) (*scraper.Session, bool) {
	cached, hit := s.cache.Get(identifier)
	if !hit || cached.fingerprint != fingerprint {
		return nil, false
	}
	return cached.session, true
}

func (s sessionCache) Get(ctx context.Context, cred scraper.Credential) (*scraper.Session, error) {
	fingerprint := secretFingerprint(cred.Secret)
	if session, hit := s.lookup(cred.Identifier, fingerprint); hit {
		return session, nil
	}

	ch := s.group.DoChan(cred.Identifier+"/"+fingerprint, func() (any, error) {
		// a login may have finished between the lookup above and now
		if session, hit := s.lookup(cred.Identifier, fingerprint); hit {
			return session, nil
		}
		// the handshake is shared, one caller giving up must not abort it
		session, err := s.client.Login(context.WithoutCancel(ctx), cred)
		if err != nil {
			return nil, err
		}
		s.cache.Add(cred.Identifier, cachedSession{fingerprint: fingerprint, session: session})
		return session, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*scraper.Session), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s sessionCache) Evict(identifier string) {
	s.cache.Remove(identifier)
}

// EvictOnFailure drops the cached session of `identifier` if `err` means
// the session can no longer be trusted. An expired portal session shows
// up as a non-success status.
func (s sessionCache) EvictOnFailure(identifier string, err error) {
	if isStaleSession(err) {
		s.Evict(identifier)
	}
}

func isStaleSession(err error) bool {
	var sessionErr *scraper.SessionError
	var authErr *scraper.AuthenticationError
	if errors.As(err, &sessionErr) || errors.As(err, &authErr) {
		return true
	}
	var listingErr *scraper.ListingError
	if errors.As(err, &listingErr) && listingErr.Reason == scraper.ReasonBadStatus {
		return true
	}
	var reservationErr *scraper.ReservationError
	return errors.As(err, &reservationErr) && reservationErr.Reason == scraper.ReasonBadStatus
}
