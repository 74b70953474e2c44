package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mikios34/pickup-availability/logistics"
)

// LogisticsHandler exposes the store's logistics configuration (the maps key
// used for the location picker).
type LogisticsHandler struct {
	source interface {
		Logistics(ctx context.Context) (*logistics.Logistics, error)
	}
	fallbackMapsKey string
}

func NewLogisticsHandler(source interface {
	Logistics(ctx context.Context) (*logistics.Logistics, error)
}, fallbackMapsKey string) *LogisticsHandler {
	return &LogisticsHandler{source: source, fallbackMapsKey: fallbackMapsKey}
}

// GetLogistics returns the logistics configuration, falling back to the
// locally configured maps key when upstream is unavailable.
func (h *LogisticsHandler) GetLogistics() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		l, err := h.source.Logistics(ctx)
		if err != nil {
			if h.fallbackMapsKey != "" {
				log.Printf("logistics: upstream failed, serving configured maps key: %v", err)
				c.JSON(http.StatusOK, gin.H{"logistics": logistics.Logistics{GoogleMapsKey: h.fallbackMapsKey}})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch logistics", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"logistics": l})
	}
}
