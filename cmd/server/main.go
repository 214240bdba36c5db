package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/yourorg/wanderplan/internal/accounts"
	"github.com/yourorg/wanderplan/internal/advisor"
	"github.com/yourorg/wanderplan/internal/cache"
	"github.com/yourorg/wanderplan/internal/config"
	appdb "github.com/yourorg/wanderplan/internal/db"
	"github.com/yourorg/wanderplan/internal/events"
	"github.com/yourorg/wanderplan/internal/graphhopper"
	"github.com/yourorg/wanderplan/internal/handlers"
	"github.com/yourorg/wanderplan/internal/itinerary"
	"github.com/yourorg/wanderplan/internal/middleware"
	"github.com/yourorg/wanderplan/internal/routes"
	"github.com/yourorg/wanderplan/internal/routing"
)

func main() {
	cfg := config.Load()

	secret, err := accounts.ResolveSecret(cfg.JWTSecret, cfg.IsProduction())
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	// ============================================================================
	// DB CONNECTION
	// ============================================================================
	db, err := appdb.Open(cfg.DB)
	if err != nil {
		log.Fatalf("❌ db open: %v", err)
	}
	defer db.Close()

	// MySQL may still be starting; retry for a while before giving up
	for attempt := 1; ; attempt++ {
		err = appdb.EnsureSchema(db, cfg.DB.SkipSchema)
		if err == nil {
			break
		}
		if attempt == 12 {
			log.Fatalf("❌ ensure schema: %v", err)
		}
		log.Printf("ensure schema error: %v (retrying in 5s)", err)
		time.Sleep(5 * time.Second)
	}
	log.Printf("✅ Database ready (%s)", db.DriverName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ============================================================================
	// SERVICES
	// ============================================================================
	tripCache := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	hub := events.NewHub()
	go hub.Run(ctx)

	store := itinerary.NewStore(db, tripCache, itinerary.WithPublisher(hub))
	accountsSvc := accounts.NewService(db, secret, cfg.TokenTTL)

	engine := graphhopper.NewClient(cfg.GraphHopperURL, cfg.GraphHopperProfile)
	if err := engine.HealthCheck(ctx); err != nil {
		log.Printf("⚠️  GraphHopper not reachable at %s: %v", cfg.GraphHopperURL, err)
		log.Println("   The server keeps running but /api/directions may fail")
	} else {
		log.Println("✅ GraphHopper reachable")
	}

	var optimizer advisor.Provider = advisor.NearestNeighbor{}
	if cfg.OpenAIKey != "" {
		optimizer = advisor.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		log.Printf("✅ Route optimizer: OpenAI (%s)", cfg.OpenAIModel)
	} else {
		log.Println("ℹ️  OPENAI_API_KEY not set, route optimizer uses the nearest-neighbour heuristic")
	}

	stats := middleware.NewRequestStats()
	handlers.Setup(handlers.Deps{
		DB:         db,
		Store:      store,
		Accounts:   accountsSvc,
		Cache:      tripCache,
		Hub:        hub,
		Stats:      stats,
		Directions: routing.NewGraphHopper(engine),
		Engine:     engine,
		Optimizer:  optimizer,
	})

	// ============================================================================
	// HTTP
	// ============================================================================
	app := fiber.New(fiber.Config{
		AppName:      "wanderplan",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(middleware.GlobalRateLimiter())
	app.Use(middleware.MetricsMiddleware(stats))

	routes.Register(app, accountsSvc, hub, routes.Options{ServiceToken: cfg.APIToken})
	if cfg.APIToken == "" {
		log.Println("⚠️  API_TOKEN not set, provider endpoints are open")
	}

	// ============================================================================
	// GRACEFUL SHUTDOWN
	// ============================================================================
	go func() {
		<-ctx.Done()
		log.Println("🛑 Shutdown signal received, closing server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️  Error closing server: %v", err)
		}
	}()

	log.Printf("🚀 Server listening on :%s", cfg.Port)
	log.Println("📍 Endpoints:")
	log.Println("   POST /api/register, /api/login")
	log.Println("   /api/trips[/:id[/timeline|/calendar.ics|/order|/items]]")
	log.Println("   /api/items/:id")
	log.Println("   POST /api/directions        - GraphHopper directions")
	log.Println("   POST /api/route-optimizer   - day order suggestions")
	log.Println("   GET  /ws/trips              - change feed")

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("❌ listen: %v", err)
	}
	log.Println("✅ Server closed")
}
