package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/mikios34/pickup-availability/entity"
	"github.com/mikios34/pickup-availability/events"
	sessionpkg "github.com/mikios34/pickup-availability/session"
)

// sessionService implements session.Service. It is the single writer of
// favorite pickups.
type sessionService struct {
	repo      sessionpkg.Repository
	publisher events.Publisher

	mu          sync.RWMutex
	subscribers []func(sessionID uuid.UUID)
}

// NewSessionService constructs a session.Service backed by repo. Applied
// intents are published on publisher.
func NewSessionService(repo sessionpkg.Repository, publisher events.Publisher) sessionpkg.Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &sessionService{repo: repo, publisher: publisher}
}

func (s *sessionService) CreateSession(ctx context.Context, firebaseUID string) (*entity.Session, error) {
	if firebaseUID != "" {
		existing, err := s.repo.GetSessionByFirebaseUID(ctx, firebaseUID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}
	sess := &entity.Session{ID: uuid.New()}
	if firebaseUID != "" {
		uid := firebaseUID
		sess.FirebaseUID = &uid
	}
	return s.repo.StoreSession(ctx, sess)
}

func (s *sessionService) FavoritePickup(ctx context.Context, sessionID uuid.UUID) (*entity.FavoritePickup, error) {
	return s.repo.GetFavoritePickup(ctx, sessionID)
}

func (s *sessionService) Subscribe(fn func(sessionID uuid.UUID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Dispatch validates and applies intent, then publishes it and notifies subscribers.
func (s *sessionService) Dispatch(ctx context.Context, intent sessionpkg.Intent) error {
	if intent.SessionID == uuid.Nil {
		return fmt.Errorf("%w: missing session id", sessionpkg.ErrInvalidIntent)
	}
	sess, err := s.repo.GetSessionByID(ctx, intent.SessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return sessionpkg.ErrSessionNotFound
	}

	switch intent.Type {
	case sessionpkg.SetFavoritePickup:
		fav, err := validateFavorite(intent.Args)
		if err != nil {
			return err
		}
		fav.ID = uuid.New()
		fav.SessionID = intent.SessionID
		if err := s.repo.UpsertFavoritePickup(ctx, fav); err != nil {
			return err
		}
	case sessionpkg.ClearFavoritePickup:
		if err := s.repo.DeleteFavoritePickup(ctx, intent.SessionID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown type %q", sessionpkg.ErrInvalidIntent, intent.Type)
	}

	// the write is committed; a lost event must not undo it
	if err := s.publisher.Publish(ctx, intent.SessionID.String(), intent); err != nil {
		log.Printf("session: publish %s for %s failed: %v", intent.Type, intent.SessionID, err)
	}
	s.notify(intent.SessionID)
	return nil
}

func (s *sessionService) notify(sessionID uuid.UUID) {
	s.mu.RLock()
	subs := append([]func(uuid.UUID){}, s.subscribers...)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(sessionID)
	}
}

// validateFavorite returns a copy of args that is safe to store.
func validateFavorite(args *entity.FavoritePickup) (*entity.FavoritePickup, error) {
	if args == nil {
		return nil, fmt.Errorf("%w: missing favorite pickup", sessionpkg.ErrInvalidIntent)
	}
	if args.Address.AddressID == "" {
		return nil, fmt.Errorf("%w: favorite pickup has no addressId", sessionpkg.ErrInvalidIntent)
	}
	if _, _, ok := args.Address.LongLat(); !ok {
		return nil, fmt.Errorf("%w: favorite pickup has no geo coordinates", sessionpkg.ErrInvalidIntent)
	}
	fav := *args
	fav.Address.GeoCoordinates = append([]float64(nil), args.Address.GeoCoordinates...)
	return &fav, nil
}
