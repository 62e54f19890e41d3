package dining

import (
	"context"
	"database/sql"
	"diningbot-backend/lib/catalog"
	scraper "diningbot-backend/lib/scrapers/dining"
	"diningbot-backend/lib/textutil"
	"diningbot-backend/services/dining/db"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrUnknownUser = errors.New("user is not registered")
	ErrUnknownFood = errors.New("food is not in the catalog")
)

type Options struct {
	Client *scraper.Client
	// Admin is the account used to read listings for the catalog.
	Admin scraper.Credential
	// Places are the ids of the places the catalog is synchronized
	// against.
	Places []string
	// SessionTTL defaults to 15 minutes.
	SessionTTL time.Duration
}

// Service ties the portal, the catalog and the database together, it is
// what the chat front end talks to.
type Service struct {
	db       *sql.DB
	qry      *db.Queries
	catalog  *catalog.Catalog
	sessions sessionCache
	admin    scraper.Credential
	places   []string
}

func NewService(database *sql.DB, opts Options) *Service {
	if opts.SessionTTL == 0 {
		opts.SessionTTL = time.Minute * 15
	}
	qry := db.New(database)
	return &Service{
		db:       database,
		qry:      qry,
		catalog:  catalog.New(foodStore{qry: qry}),
		sessions: newSessionCache(opts.Client, opts.SessionTTL),
		admin:    opts.Admin,
		places:   opts.Places,
	}
}

// Catalog is the read side of the food catalog.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *Service) Places() []string {
	return s.places
}

// Load fills the catalog from the database, it must be called before
// the catalog is read.
func (s *Service) Load(ctx context.Context) error {
	return s.catalog.Load(ctx)
}

type User struct {
	ChatId        int64
	Username      string
	StudentNumber string
	Password      string
}

func (u User) credential() scraper.Credential {
	return scraper.Credential{Identifier: u.StudentNumber, Secret: u.Password}
}

// RegisterUser saves (or replaces) the portal login of a chat user.
func (s *Service) RegisterUser(ctx context.Context, user User) error {
	ctx, span := tracer.Start(ctx, "RegisterUser")
	defer span.End()

	user.StudentNumber = textutil.CleanText(user.StudentNumber)
	if user.StudentNumber == "" || user.Password == "" {
		err := fmt.Errorf("student number and password are required")
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	previous, err := s.qry.GetUser(ctx, user.ChatId)
	if err == nil {
		s.sessions.Evict(previous.StudentNumber)
	} else if !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		return err
	}

	err = s.qry.AddUser(ctx, db.AddUserParams{
		ChatID:        user.ChatId,
		Username:      user.Username,
		StudentNumber: user.StudentNumber,
		Password:      user.Password,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to add user")
		return err
	}
	slog.InfoContext(ctx, "registered user", "chat_id", user.ChatId, "student_number", user.StudentNumber)
	return nil
}

func (s *Service) getUser(ctx context.Context, chatId int64) (User, error) {
	row, err := s.qry.GetUser(ctx, chatId)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUnknownUser
	}
	if err != nil {
		return User{}, err
	}
	return User{
		ChatId:        row.ChatID,
		Username:      row.Username,
		StudentNumber: row.StudentNumber,
		Password:      row.Password,
	}, nil
}

// SetFoodPriorities replaces the ordered list of foods a user prefers,
// every id must be in the catalog.
func (s *Service) SetFoodPriorities(ctx context.Context, chatId int64, foodIds []string) error {
	ctx, span := tracer.Start(ctx, "SetFoodPriorities")
	defer span.End()

	_, err := s.getUser(ctx, chatId)
	if err != nil {
		span.RecordError(err)
		return err
	}

	seen := map[string]struct{}{}
	for _, id := range foodIds {
		if _, ok := s.catalog.Name(id); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownFood, id)
		}
		if _, duplicate := seen[id]; duplicate {
			return fmt.Errorf("food %s is listed twice", id)
		}
		seen[id] = struct{}{}
	}

	err = db.SetUserFoodPriorities(ctx, s.db, chatId, foodIds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set priorities")
		return err
	}
	return nil
}

// FoodPriorities returns a user's foods from the highest to the lowest
// priority.
func (s *Service) FoodPriorities(ctx context.Context, chatId int64) ([]catalog.Food, error) {
	ids, err := s.qry.GetUserFoodPriorities(ctx, chatId)
	if err != nil {
		return nil, err
	}
	foods := make([]catalog.Food, 0, len(ids))
	for _, id := range ids {
		name, ok := s.catalog.Name(id)
		if !ok {
			slog.WarnContext(ctx, "priority refers to a food missing from the cache", "food_id", id)
			continue
		}
		foods = append(foods, catalog.Food{Id: id, Name: name})
	}
	return foods, nil
}

// withSession runs fn with the cached session of `cred`, logging in if
// there is none. Sessions that fail in a way that suggests they expired
// are dropped so the next call logs in again.
func (s *Service) withSession(ctx context.Context, cred scraper.Credential, fn func(session *scraper.Session) error) error {
	session, err := s.sessions.Get(ctx, cred)
	if err != nil {
		s.sessions.EvictOnFailure(cred.Identifier, err)
		return err
	}
	err = fn(session)
	if err != nil {
		s.sessions.EvictOnFailure(cred.Identifier, err)
	}
	return err
}

// ListFoods lists the foods served at a place using the admin account.
func (s *Service) ListFoods(ctx context.Context, placeId string) (scraper.FoodSet, error) {
	ctx, span := tracer.Start(ctx, "ListFoods")
	defer span.End()
	span.SetAttributes(attribute.String("place_id", placeId))

	var foods scraper.FoodSet
	err := s.withSession(ctx, s.admin, func(session *scraper.Session) error {
		var err error
		foods, err = session.ListFoods(ctx, placeId)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list foods")
		return nil, err
	}
	return foods, nil
}

// adminLister lists foods through the admin session, dropping it if it
// turns out to be stale.
type adminLister struct {
	service *Service
}

func (l adminLister) ListFoods(ctx context.Context, placeId string) (scraper.FoodSet, error) {
	return l.service.ListFoods(ctx, placeId)
}

// Synchronize reconciles the catalog against every configured place.
func (s *Service) Synchronize(ctx context.Context) (catalog.Result, error) {
	ctx, span := tracer.Start(ctx, "Synchronize")
	defer span.End()

	// fail fast if the admin account cannot log in at all, rather than
	// once per place
	_, err := s.sessions.Get(ctx, s.admin)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "admin login failed")
		return catalog.Result{}, err
	}

	result := s.catalog.Synchronize(ctx, adminLister{service: s}, s.places)
	span.SetAttributes(attribute.Int("added", result.AddedCount()))
	return result, nil
}

// Reserve reserves a food for a registered user with their own account.
func (s *Service) Reserve(ctx context.Context, chatId int64, placeId, foodId string) (scraper.Confirmation, error) {
	ctx, span := tracer.Start(ctx, "Reserve")
	defer span.End()

	user, err := s.getUser(ctx, chatId)
	if err != nil {
		span.RecordError(err)
		return scraper.Confirmation{}, err
	}

	var confirmation scraper.Confirmation
	err = s.withSession(ctx, user.credential(), func(session *scraper.Session) error {
		var err error
		confirmation, err = session.ReserveFood(ctx, session.UserId(), placeId, foodId)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reserve food")
	}
	return confirmation, err
}

// Cancel cancels a reservation of a registered user.
func (s *Service) Cancel(ctx context.Context, chatId int64, foodId string) (scraper.Confirmation, error) {
	ctx, span := tracer.Start(ctx, "Cancel")
	defer span.End()

	user, err := s.getUser(ctx, chatId)
	if err != nil {
		span.RecordError(err)
		return scraper.Confirmation{}, err
	}

	var confirmation scraper.Confirmation
	err = s.withSession(ctx, user.credential(), func(session *scraper.Session) error {
		var err error
		confirmation, err = session.CancelFood(ctx, session.UserId(), foodId)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to cancel food")
	}
	return confirmation, err
}
