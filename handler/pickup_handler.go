package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mikios34/pickup-availability/entity"
	pickuppkg "github.com/mikios34/pickup-availability/pickup"
)

// liveState is the part of the live tracker handlers use.
type liveState interface {
	Update(ctx context.Context, in pickuppkg.Inputs) pickuppkg.StateView
	Current(sessionID uuid.UUID) (pickuppkg.StateView, bool)
	Forget(sessionID uuid.UUID)
}

// PickupHandler serves the pickup availability state of a product page.
type PickupHandler struct {
	service    pickuppkg.Service
	live       liveState
	presence   interface{ Connected(sessionID string) bool }
	country    string
	maxVisible int
}

// NewPickupHandler constructs a PickupHandler. country is used when a
// request does not name one.
func NewPickupHandler(svc pickuppkg.Service, live liveState, presence interface{ Connected(sessionID string) bool }, country string, maxVisible int) *PickupHandler {
	return &PickupHandler{service: svc, live: live, presence: presence, country: country, maxVisible: maxVisible}
}

// statePayload is what the product page sends for each render.
type statePayload struct {
	SelectedItem *pickuppkg.SelectedItem   `json:"selectedItem"`
	SkuSelector  pickuppkg.SkuSelectorState `json:"skuSelector"`
	Location     pickuppkg.Coordinates      `json:"location"`
	Country      string                     `json:"country"`
}

func (p statePayload) inputs(sessionID uuid.UUID, defaultCountry string) pickuppkg.Inputs {
	country := p.Country
	if country == "" {
		country = defaultCountry
	}
	return pickuppkg.Inputs{
		SessionID:    sessionID,
		SelectedItem: p.SelectedItem,
		SkuSelector:  p.SkuSelector,
		Location:     p.Location,
		Country:      country,
	}
}

// State evaluates the page inputs. When the session has a websocket open,
// the inputs are tracked and later changes are pushed over it.
func (h *PickupHandler) State() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sessionID(c)
		if !ok {
			return
		}
		var p statePayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}

		in := p.inputs(id, h.country)
		if h.presence != nil && h.presence.Connected(id.String()) {
			c.JSON(http.StatusOK, h.live.Update(c.Request.Context(), in))
			return
		}
		c.JSON(http.StatusOK, pickuppkg.View(h.service.Evaluate(c.Request.Context(), in), h.maxVisible))
	}
}

type selectPickupPayload struct {
	Candidate entity.PickupCandidate `json:"candidate"`
}

// SelectPickup makes a candidate the session's favorite pickup.
func (h *PickupHandler) SelectPickup() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sessionID(c)
		if !ok {
			return
		}
		var p selectPickupPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		if err := h.service.SelectPickup(ctx, id, p.Candidate); err != nil {
			writeDispatchError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "favorite pickup set", "addressId": p.Candidate.Address.AddressID})
	}
}

// ClearPickup removes the session's favorite pickup.
func (h *PickupHandler) ClearPickup() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sessionID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		if err := h.service.ClearPickup(ctx, id); err != nil {
			writeDispatchError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "favorite pickup cleared"})
	}
}
