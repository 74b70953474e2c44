package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	authpkg "github.com/mikios34/pickup-availability/auth"
	"github.com/mikios34/pickup-availability/config"
	"github.com/mikios34/pickup-availability/events"
	api "github.com/mikios34/pickup-availability/handler"
	"github.com/mikios34/pickup-availability/logistics"
	mw "github.com/mikios34/pickup-availability/middleware"
	pickupsvc "github.com/mikios34/pickup-availability/pickup/service"
	"github.com/mikios34/pickup-availability/query"
	"github.com/mikios34/pickup-availability/realtime"
	sessionrepo "github.com/mikios34/pickup-availability/session/repository"
	sessionsvc "github.com/mikios34/pickup-availability/session/service"
)

const sessionTokenTTL = 30 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}
	logger := logr.FromSlogHandler(slog.NewJSONHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := setupDatabase(cfg)

	// intents are published when a broker is configured
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.KafkaBroker != "" {
		publisher = events.NewKafkaProducer(cfg.KafkaBroker, cfg.KafkaTopic)
	}
	defer publisher.Close()

	// setup session repository + service
	sessionRepo := sessionrepo.NewGormSessionRepo(db)
	sessionService := sessionsvc.NewSessionService(sessionRepo, publisher)

	// queries share one pool and cache
	pool := query.NewPool(query.PoolOptions{
		WorkerCount:  cfg.QueryWorkers,
		Cache:        expirable.NewLRU[string, *query.Result](4096, nil, cfg.QueryTTL),
		RefreshAfter: cfg.QueryRefresh,
		Logger:       logger.WithName("query"),
	})
	upstream := logistics.NewClient(cfg.LogisticsURL, cfg.LogisticsToken, nil)
	availability := query.NewAvailabilityQuery(pool, upstream)
	favorites := query.NewFavoriteQuery(pool, sessionService)

	orchestrator := pickupsvc.NewOrchestrator(availability, favorites, sessionService, logger.WithName("orchestrator"))

	hub := realtime.NewHub()
	tracker := pickupsvc.NewLiveTracker(orchestrator, hub, cfg.MaxVisibleStores, logger.WithName("live"))

	// the cached favorite must be dropped before sessions are re-evaluated
	sessionService.Subscribe(favorites.Invalidate)
	sessionService.Subscribe(func(sessionID uuid.UUID) {
		tracker.RefreshSession(context.Background(), sessionID)
	})
	pool.OnSettled(tracker.OnSettled)

	firebaseClient, err := authpkg.InitFirebaseAuth(ctx, cfg.FirebaseCredentials)
	if err != nil {
		log.Fatal("failed to init firebase auth:", err)
	}
	var verifier mw.TokenVerifier
	if firebaseClient != nil {
		verifier = firebaseClient
	}

	sessionHandler := api.NewSessionHandler(sessionService, cfg.JWTSecret, sessionTokenTTL)
	pickupHandler := api.NewPickupHandler(orchestrator, tracker, hub, cfg.Country, cfg.MaxVisibleStores)
	logisticsHandler := api.NewLogisticsHandler(upstream, cfg.GoogleMapsKey)
	wsHandler := api.NewWSHandler(hub, tracker, cfg.Country)

	r := gin.New()
	r.Use(gin.Recovery(), gin.Logger())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.POST("/sessions", mw.OptionalFirebaseAuth(verifier), sessionHandler.CreateSession())
		v1.GET("/logistics", logisticsHandler.GetLogistics())

		authed := v1.Group("", mw.RequireSession(cfg.JWTSecret))
		authed.GET("/session", sessionHandler.GetSession())
		authed.POST("/pickup/state", pickupHandler.State())
		authed.PUT("/pickup/favorite", pickupHandler.SelectPickup())
		authed.DELETE("/pickup/favorite", pickupHandler.ClearPickup())
		authed.GET("/ws", wsHandler.SessionSocket())
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pool.Start(gctx)
	})
	g.Go(func() error {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server error:", err)
	}
}
