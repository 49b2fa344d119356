// README: Entry point; loads config, wires services, starts HTTP server and background schedulers.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"wander/internal/ai"
	"wander/internal/config"
	httptransport "wander/internal/http"
	"wander/internal/infra"
	"wander/internal/logger"
	"wander/internal/modules/hotspot"
	"wander/internal/modules/location"
	"wander/internal/modules/match"
	"wander/internal/modules/suggestion"
	"wander/internal/modules/trip"
	"wander/internal/notify"
	"wander/internal/places"
	"wander/internal/service"
	"wander/internal/social"
)

func main() {
	cfg := config.Load()
	appLog := logger.New(cfg.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := infra.Migrate(cfg.PostgresURL(), appLog); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.PostgresURL())
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr, cfg.Redis.Password)

	socialStore := social.NewStore(dbPool)
	locCache := location.NewRedisCache(redisClient)

	// External collaborators are optional; the features degrade when the
	// corresponding credentials are absent.
	var catalog places.Catalog
	if cfg.Maps.APIKey != "" {
		gp, err := places.NewGooglePlaces(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("google places: %v", err)
		}
		catalog = gp
	}

	var textGen ai.TextGenerator
	if cfg.AI.GeminiKey != "" {
		gemini, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.Fatalf("gemini: %v", err)
		}
		defer gemini.Close()
		textGen = gemini
	}

	var pushSink notify.Sink
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := notify.NewFCMSink(ctx, cfg.Firebase.CredentialsFile, socialStore)
		if err != nil {
			log.Fatalf("fcm: %v", err)
		}
		pushSink = fcm
	}

	tripStore := trip.NewStore(dbPool)
	matchStore := match.NewStore(dbPool)
	locationStore := location.NewStore(dbPool)
	suggestionStore := suggestion.NewStore(dbPool)
	hotspotStore := hotspot.NewStore(dbPool)

	matchSvc := match.NewService(matchStore, tripStore, socialStore, logger.New("match"))
	tripSvc := trip.NewService(tripStore, matchSvc, locCache, logger.New("trip"))
	tracker := match.NewTracker(matchStore, locCache, socialStore, logger.New("proximity"))
	locationSvc := location.NewService(locationStore, locCache, tripSvc, logger.New("location"))
	suggestionSvc := suggestion.NewService(suggestionStore, logger.New("suggestion"))

	var tipEngine *suggestion.Engine
	if catalog != nil && textGen != nil {
		tipEngine = suggestion.NewEngine(suggestionStore, catalog, textGen, logger.New("suggestion"))
	}

	detector := hotspot.NewDetector(
		cfg.Hotspot,
		hotspotStore,
		tripStore,
		locationStore,
		catalog,
		suggestionStore,
		socialStore,
		pushSink,
		logger.New("hotspot"),
	)

	var tips service.TipGenerator
	if tipEngine != nil {
		tips = tipEngine
	}
	pipeline := service.NewLocationPipeline(
		locationSvc, tripSvc, tracker, detector, tips, logger.New("pipeline"))

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Trips:       tripSvc,
		Matches:     matchSvc,
		Tracker:     tracker,
		Locations:   locationSvc,
		Pipeline:    pipeline,
		Suggestions: suggestionSvc,
		Hotspots:    hotspotStore,
		Log:         appLog,
	})

	go tracker.RunCleanupScheduler(ctx)
	go locationSvc.RunCleanupScheduler(ctx)

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	appLog.Info("listening", logger.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
