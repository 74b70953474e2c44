package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikios34/pickup-availability/entity"
	sessionpkg "github.com/mikios34/pickup-availability/session"
)

type memoryRepo struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*entity.Session
	favorites map[uuid.UUID]*entity.FavoritePickup
	failWrite bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		sessions:  make(map[uuid.UUID]*entity.Session),
		favorites: make(map[uuid.UUID]*entity.FavoritePickup),
	}
}

func (m *memoryRepo) StoreSession(ctx context.Context, s *entity.Session) (*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return s, nil
}

func (m *memoryRepo) GetSessionByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id], nil
}

func (m *memoryRepo) GetSessionByFirebaseUID(ctx context.Context, uid string) (*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.FirebaseUID != nil && *s.FirebaseUID == uid {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memoryRepo) GetFavoritePickup(ctx context.Context, sessionID uuid.UUID) (*entity.FavoritePickup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.favorites[sessionID], nil
}

func (m *memoryRepo) UpsertFavoritePickup(ctx context.Context, f *entity.FavoritePickup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return errors.New("simulated DB failure")
	}
	m.favorites[f.SessionID] = f
	return nil
}

func (m *memoryRepo) DeleteFavoritePickup(ctx context.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.favorites, sessionID)
	return nil
}

type recordingPublisher struct {
	keys   []string
	values []any
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, value any) error {
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func botafogo() *entity.FavoritePickup {
	number := "300"
	return &entity.FavoritePickup{
		CacheID: "ppbotafogo",
		Name:    "Pickup Botafogo",
		Address: entity.Address{
			AddressID:      "ppbotafogo",
			Street:         "Praia de Botafogo",
			Number:         &number,
			Country:        "BRA",
			GeoCoordinates: []float64{-43, -20},
		},
	}
}

func TestCreateSession_ReusesFirebaseSession(t *testing.T) {
	svc := NewSessionService(newMemoryRepo(), nil)
	ctx := context.Background()

	anon, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, anon.FirebaseUID)

	first, err := svc.CreateSession(ctx, "uid-1")
	require.NoError(t, err)
	second, err := svc.CreateSession(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, anon.ID, first.ID)
}

func TestDispatch_SetAndClear(t *testing.T) {
	repo := newMemoryRepo()
	pub := &recordingPublisher{}
	svc := NewSessionService(repo, pub)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)

	var notified []uuid.UUID
	svc.Subscribe(func(id uuid.UUID) { notified = append(notified, id) })

	require.NoError(t, svc.Dispatch(ctx, sessionpkg.SetFavorite(sess.ID, botafogo())))
	fav, err := svc.FavoritePickup(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, fav)
	assert.Equal(t, "ppbotafogo", fav.Address.AddressID)
	assert.Equal(t, sess.ID, fav.SessionID)

	require.NoError(t, svc.Dispatch(ctx, sessionpkg.ClearFavorite(sess.ID)))
	fav, err = svc.FavoritePickup(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, fav)

	assert.Equal(t, []uuid.UUID{sess.ID, sess.ID}, notified)
	require.Len(t, pub.values, 2)
	assert.Equal(t, sessionpkg.SetFavoritePickup, pub.values[0].(sessionpkg.Intent).Type)
	assert.Equal(t, sessionpkg.ClearFavoritePickup, pub.values[1].(sessionpkg.Intent).Type)
	assert.Equal(t, sess.ID.String(), pub.keys[0])
}

func TestDispatch_DoesNotAliasArgs(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewSessionService(repo, nil)
	ctx := context.Background()
	sess, _ := svc.CreateSession(ctx, "")

	args := botafogo()
	require.NoError(t, svc.Dispatch(ctx, sessionpkg.SetFavorite(sess.ID, args)))
	args.Address.GeoCoordinates[0] = 0

	fav, _ := svc.FavoritePickup(ctx, sess.ID)
	assert.Equal(t, []float64{-43, -20}, fav.Address.GeoCoordinates)
}

func TestDispatch_Rejects(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewSessionService(repo, nil)
	ctx := context.Background()
	sess, _ := svc.CreateSession(ctx, "")

	noGeo := botafogo()
	noGeo.Address.GeoCoordinates = nil
	noAddress := botafogo()
	noAddress.Address.AddressID = ""

	tests := []struct {
		name   string
		intent sessionpkg.Intent
		want   error
	}{
		{"missing session", sessionpkg.ClearFavorite(uuid.Nil), sessionpkg.ErrInvalidIntent},
		{"unknown session", sessionpkg.ClearFavorite(uuid.New()), sessionpkg.ErrSessionNotFound},
		{"missing args", sessionpkg.SetFavorite(sess.ID, nil), sessionpkg.ErrInvalidIntent},
		{"missing geo", sessionpkg.SetFavorite(sess.ID, noGeo), sessionpkg.ErrInvalidIntent},
		{"missing addressId", sessionpkg.SetFavorite(sess.ID, noAddress), sessionpkg.ErrInvalidIntent},
		{"unknown type", sessionpkg.Intent{Type: "RENAME", SessionID: sess.ID}, sessionpkg.ErrInvalidIntent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Dispatch(ctx, tt.intent)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDispatch_WriteFailureDoesNotNotify(t *testing.T) {
	repo := newMemoryRepo()
	pub := &recordingPublisher{}
	svc := NewSessionService(repo, pub)
	ctx := context.Background()
	sess, _ := svc.CreateSession(ctx, "")

	called := false
	svc.Subscribe(func(uuid.UUID) { called = true })
	repo.failWrite = true

	require.Error(t, svc.Dispatch(ctx, sessionpkg.SetFavorite(sess.ID, botafogo())))
	assert.False(t, called)
	assert.Empty(t, pub.values)
}
