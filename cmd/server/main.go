package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/moodmirror/backend/internal/config"
	"github.com/moodmirror/backend/internal/database"
	"github.com/moodmirror/backend/internal/handlers"
	"github.com/moodmirror/backend/internal/middleware"
	"github.com/moodmirror/backend/internal/reflection"
	"github.com/moodmirror/backend/internal/routes"
	"github.com/moodmirror/backend/internal/services"
	"github.com/moodmirror/backend/internal/workflow"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	if cfg.ReflectionAPIKey == "" {
		log.Println("⚠️  WARNING: REFLECTION_API_KEY not set. Reflections will use the fallback text.")
	}

	// Connect to PostgreSQL
	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Connect to MongoDB
	log.Printf("Connecting to MongoDB...")
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	if err := database.EnsureMoodEntryIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB mood entry indexes: %v", err)
	} else {
		log.Println("✅ MongoDB mood entry indexes ensured")
	}

	// Start the Redis subscriber that feeds live WebSocket updates
	services.StartMoodEventSubscriber(context.Background())

	// Wire the submission workflow: Mongo store + reflection client
	generator := &reflection.Client{
		APIKey:  cfg.ReflectionAPIKey,
		BaseURL: cfg.ReflectionBaseURL,
		Model:   cfg.ReflectionModel,
	}
	manager := workflow.NewManager(&services.MoodEntryStore{}, generator)
	handlers.InitMoodHandlers(manager, cfg.TrendLocation)
	log.Printf("✅ Submission workflow ready (trend timezone: %s)", cfg.TrendLocation)

	// Setup router
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP + login rate limiting)")
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}

	// Health check (no rate limit)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r)

	log.Println("📋 Registered routes:")
	log.Println("  GET  /health")
	log.Println("  POST /api/auth/signup")
	log.Println("  POST /api/auth/signin")
	log.Println("  POST /api/auth/signout")
	log.Println("  GET  /api/auth/me")
	log.Println("  GET  /api/moods/options")
	log.Println("  GET  /api/moods/draft")
	log.Println("  POST /api/moods/draft/mood")
	log.Println("  POST /api/moods/draft/compose")
	log.Println("  PUT  /api/moods/draft/journal")
	log.Println("  POST /api/moods/draft/submit")
	log.Println("  DELETE /api/moods/draft")
	log.Println("  GET  /api/moods")
	log.Println("  GET  /api/moods/trend")
	log.Println("  GET  /ws/moods")

	log.Printf("🚀 MoodMirror backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
