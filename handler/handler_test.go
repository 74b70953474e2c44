package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authpkg "github.com/mikios34/pickup-availability/auth"
	"github.com/mikios34/pickup-availability/entity"
	"github.com/mikios34/pickup-availability/logistics"
	"github.com/mikios34/pickup-availability/middleware"
	pickuppkg "github.com/mikios34/pickup-availability/pickup"
	"github.com/mikios34/pickup-availability/session"
)

const secret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

type fakePickupService struct {
	evaluated []pickuppkg.Inputs
	state     pickuppkg.UIState
	selected  *entity.PickupCandidate
	cleared   bool
	err       error
}

func (f *fakePickupService) Evaluate(_ context.Context, in pickuppkg.Inputs) pickuppkg.UIState {
	f.evaluated = append(f.evaluated, in)
	return f.state
}

func (f *fakePickupService) SelectPickup(_ context.Context, _ uuid.UUID, c entity.PickupCandidate) error {
	f.selected = &c
	return f.err
}

func (f *fakePickupService) ClearPickup(context.Context, uuid.UUID) error {
	f.cleared = true
	return f.err
}

type fakeLive struct {
	updates []pickuppkg.Inputs
	view    pickuppkg.StateView
}

func (f *fakeLive) Update(_ context.Context, in pickuppkg.Inputs) pickuppkg.StateView {
	f.updates = append(f.updates, in)
	return f.view
}

func (f *fakeLive) Current(uuid.UUID) (pickuppkg.StateView, bool) { return f.view, true }
func (f *fakeLive) Forget(uuid.UUID)                              {}

type presence bool

func (p presence) Connected(string) bool { return bool(p) }

func tokenFor(t *testing.T, id uuid.UUID) string {
	t.Helper()
	token, err := authpkg.SignJWT(secret, id.String(), "", time.Hour)
	require.NoError(t, err)
	return token
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func pickupRouter(svc *fakePickupService, live *fakeLive, connected bool) *gin.Engine {
	h := NewPickupHandler(svc, live, presence(connected), "BRA", pickuppkg.DefaultMaxVisible)
	r := gin.New()
	g := r.Group("/api/v1/pickup", middleware.RequireSession(secret))
	g.POST("/state", h.State())
	g.PUT("/favorite", h.SelectPickup())
	g.DELETE("/favorite", h.ClearPickup())
	return r
}

func TestStateWithoutSocketEvaluatesOnce(t *testing.T) {
	cands := []entity.PickupCandidate{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	svc := &fakePickupService{state: pickuppkg.ChooseStore(cands, "")}
	live := &fakeLive{}
	r := pickupRouter(svc, live, false)
	id := uuid.New()

	w := do(t, r, http.MethodPost, "/api/v1/pickup/state", tokenFor(t, id), gin.H{
		"selectedItem": gin.H{"itemId": "1", "sellers": []gin.H{{"sellerId": "1"}}},
		"skuSelector":  gin.H{"isVisible": false},
		"location":     gin.H{"lat": "-22.97", "long": "-43.18"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.evaluated, 1)
	in := svc.evaluated[0]
	assert.Equal(t, id, in.SessionID)
	assert.Equal(t, "BRA", in.Country)
	assert.Equal(t, "1", in.SelectedItem.SellerID())
	assert.Equal(t, pickuppkg.Coordinates{Lat: "-22.97", Long: "-43.18"}, in.Location)
	assert.Empty(t, live.updates)

	var view pickuppkg.StateView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, pickuppkg.StateChooseStore, view.State.Kind)
	require.NotNil(t, view.Overflow)
	assert.Len(t, view.Overflow.Visible, 3)
	assert.True(t, view.Overflow.OverflowAvailable)
}

func TestStateWithSocketIsTracked(t *testing.T) {
	svc := &fakePickupService{}
	live := &fakeLive{view: pickuppkg.View(pickuppkg.Loading(), 3)}
	r := pickupRouter(svc, live, true)

	w := do(t, r, http.MethodPost, "/api/v1/pickup/state", tokenFor(t, uuid.New()), gin.H{"country": "ARG"})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, live.updates, 1)
	assert.Equal(t, "ARG", live.updates[0].Country)
	assert.Empty(t, svc.evaluated)
	assert.JSONEq(t, `{"state":{"kind":"loading"}}`, w.Body.String())
}

func TestStateRequiresSession(t *testing.T) {
	r := pickupRouter(&fakePickupService{}, &fakeLive{}, false)
	assert.Equal(t, http.StatusUnauthorized, do(t, r, http.MethodPost, "/api/v1/pickup/state", "", gin.H{}).Code)
}

func TestSelectPickup(t *testing.T) {
	svc := &fakePickupService{}
	r := pickupRouter(svc, &fakeLive{}, false)

	w := do(t, r, http.MethodPut, "/api/v1/pickup/favorite", tokenFor(t, uuid.New()), gin.H{
		"candidate": gin.H{
			"id":           "1_ppbotafogo",
			"friendlyName": "Pickup Botafogo",
			"address":      gin.H{"addressId": "ppbotafogo", "street": "Praia de Botafogo", "number": "300", "geoCoordinates": []float64{-43, -20}},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.selected)
	assert.Equal(t, "ppbotafogo", svc.selected.Address.AddressID)
	assert.Equal(t, []float64{-43, -20}, svc.selected.Address.GeoCoordinates)
}

func TestDispatchErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: missing addressId", session.ErrInvalidIntent), http.StatusBadRequest},
		{session.ErrSessionNotFound, http.StatusNotFound},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc := &fakePickupService{err: tt.err}
			r := pickupRouter(svc, &fakeLive{}, false)

			w := do(t, r, http.MethodDelete, "/api/v1/pickup/favorite", tokenFor(t, uuid.New()), nil)
			assert.Equal(t, tt.want, w.Code)
			assert.True(t, svc.cleared)
		})
	}
}

type fakeSessions struct {
	session.Service
	created  []string
	favorite *entity.FavoritePickup
}

func (f *fakeSessions) CreateSession(_ context.Context, firebaseUID string) (*entity.Session, error) {
	f.created = append(f.created, firebaseUID)
	return &entity.Session{ID: uuid.New()}, nil
}

func (f *fakeSessions) FavoritePickup(context.Context, uuid.UUID) (*entity.FavoritePickup, error) {
	return f.favorite, nil
}

func TestCreateAndGetSession(t *testing.T) {
	sessions := &fakeSessions{favorite: &entity.FavoritePickup{Name: "Pickup Botafogo", Address: entity.Address{AddressID: "ppbotafogo"}}}
	h := NewSessionHandler(sessions, secret, time.Hour)
	r := gin.New()
	r.POST("/api/v1/sessions", h.CreateSession())
	r.GET("/api/v1/session", middleware.RequireSession(secret), h.GetSession())

	w := do(t, r, http.MethodPost, "/api/v1/sessions", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Session struct {
			ID uuid.UUID `json:"id"`
		} `json:"session"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, []string{""}, sessions.created)

	claims, err := authpkg.ParseAndValidate(secret, created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.Session.ID.String(), claims.SessionID)

	w = do(t, r, http.MethodGet, "/api/v1/session", created.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		FavoritePickup *entity.FavoritePickup `json:"favoritePickup"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.NotNil(t, got.FavoritePickup)
	assert.Equal(t, "ppbotafogo", got.FavoritePickup.Address.AddressID)
}

type fakeLogistics struct {
	l   *logistics.Logistics
	err error
}

func (f fakeLogistics) Logistics(context.Context) (*logistics.Logistics, error) { return f.l, f.err }

func TestGetLogistics(t *testing.T) {
	route := func(src fakeLogistics, fallback string) *httptest.ResponseRecorder {
		r := gin.New()
		r.GET("/api/v1/logistics", NewLogisticsHandler(src, fallback).GetLogistics())
		return do(t, r, http.MethodGet, "/api/v1/logistics", "", nil)
	}

	w := route(fakeLogistics{l: &logistics.Logistics{GoogleMapsKey: "aaaaa"}}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"logistics":{"googleMapsKey":"aaaaa"}}`, w.Body.String())

	w = route(fakeLogistics{err: logistics.ErrUpstream}, "local")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"logistics":{"googleMapsKey":"local"}}`, w.Body.String())

	assert.Equal(t, http.StatusBadGateway, route(fakeLogistics{err: logistics.ErrUpstream}, "").Code)
}
