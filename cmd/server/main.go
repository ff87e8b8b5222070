package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/voicescribe/voicescribe/internal/cache"
	"github.com/voicescribe/voicescribe/internal/cleanup"
	"github.com/voicescribe/voicescribe/internal/handlers"
	"github.com/voicescribe/voicescribe/internal/queue"
	"github.com/voicescribe/voicescribe/internal/transcription"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Transcriber struct {
		Backend         string `yaml:"backend"` // whisper, openai, googlespeech
		Model           string `yaml:"model"`
		Language        string `yaml:"language"`
		TimeoutSeconds  int    `yaml:"timeout_seconds"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"transcriber"`

	Cache struct {
		Backend string `yaml:"backend"` // sqlite, memory
		Path    string `yaml:"path"`
		TTLDays int    `yaml:"ttl_days"`
	} `yaml:"cache"`

	Queue struct {
		MaxPending int `yaml:"max_pending"` // 0 = unbounded
	} `yaml:"queue"`

	Storage struct {
		TempDir string `yaml:"temp_dir"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		TempMaxAgeHours int `yaml:"temp_max_age_hours"`
	} `yaml:"cleanup"`

	Limits struct {
		MaxFileSizeMB      int `yaml:"max_file_size_mb"`
		MaxDurationSeconds int `yaml:"max_duration_seconds"`
	} `yaml:"limits"`
}

func main() {
	// API keys come from the environment, optionally via .env
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	config, err := loadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cleanup.EnsureTempDirExists(config.Storage.TempDir); err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}

	log.Println("Initializing components...")

	// Cache store
	ttl := time.Duration(config.Cache.TTLDays) * 24 * time.Hour
	var store cache.Store
	switch config.Cache.Backend {
	case "memory":
		store = cache.NewMemoryStore(ttl)
		log.Println("Using in-memory cache (transcriptions are lost on restart)")
	case "sqlite", "":
		store, err = cache.NewSQLiteStore(config.Cache.Path, ttl)
		if err != nil {
			log.Fatalf("Failed to initialize cache database: %v", err)
		}
	default:
		log.Fatalf("Unknown cache backend: %s", config.Cache.Backend)
	}
	defer store.Close()

	// Transcriber backend
	var transcriber transcription.Transcriber
	switch config.Transcriber.Backend {
	case "openai":
		transcriber, err = transcription.NewOpenAITranscriber(
			os.Getenv("OPENAI_API_KEY"), config.Transcriber.Model)
	case "googlespeech":
		transcriber, err = transcription.NewGoogleSpeechTranscriber(
			config.Transcriber.CredentialsFile,
			config.Transcriber.Language,
			config.Storage.TempDir,
		)
	case "whisper", "":
		transcriber, err = transcription.NewWhisperTranscriber(
			config.Transcriber.Model,
			config.Transcriber.Language,
			config.Storage.TempDir,
		)
	default:
		log.Fatalf("Unknown transcriber backend: %s", config.Transcriber.Backend)
	}
	if err != nil {
		log.Fatalf("Failed to initialize transcriber: %v", err)
	}

	// Queue, coordinator and the single sequential worker
	jobQueue := queue.NewQueue(config.Queue.MaxPending)
	coordinator := queue.NewCoordinator(store, jobQueue)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	worker := coordinator.Worker(transcriber,
		time.Duration(config.Transcriber.TimeoutSeconds)*time.Second)
	go worker.Run(workerCtx)

	// Cleanup scheduler
	cleanupScheduler := cleanup.NewScheduler(
		store,
		config.Storage.TempDir,
		config.Cleanup.IntervalMinutes,
		config.Cleanup.TempMaxAgeHours,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: config.Limits.MaxFileSizeMB * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Initialize handlers
	transcribeHandler := handlers.NewTranscribeHandler(
		coordinator,
		config.Storage.TempDir,
		config.Limits.MaxFileSizeMB,
		config.Limits.MaxDurationSeconds,
	)
	statusHandler := handlers.NewStatusHandler(store, coordinator)
	wsHandler := handlers.NewWSHandler(store, coordinator)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/transcribe", transcribeHandler.Handle)
	app.Get("/transcriptions", statusHandler.List)
	app.Get("/transcriptions/:identity", statusHandler.Status)
	app.Get("/stats", statusHandler.Stats)

	// WebSocket route
	app.Get("/ws/transcriptions/:identity", websocket.New(wsHandler.Handle))

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   POST /transcribe                     - Submit a voice note")
	log.Println("   GET  /transcriptions                 - List cached transcriptions")
	log.Println("   GET  /transcriptions/:identity       - Poll a transcription")
	log.Println("   GET  /ws/transcriptions/:identity    - Await a transcription")
	log.Println("   GET  /stats                          - Queue statistics")
	log.Println("   GET  /health                         - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		stopWorker()
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig loads configuration from YAML file
func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	// Defaults that keep a sparse config usable
	if config.Cache.TTLDays == 0 {
		config.Cache.TTLDays = 7
	}
	if config.Cache.Path == "" {
		config.Cache.Path = "data/transcriptions.db"
	}
	if config.Limits.MaxFileSizeMB == 0 {
		config.Limits.MaxFileSizeMB = 25
	}
	if config.Cleanup.IntervalMinutes == 0 {
		config.Cleanup.IntervalMinutes = 180
	}
	if config.Cleanup.TempMaxAgeHours == 0 {
		config.Cleanup.TempMaxAgeHours = 24
	}

	return &config, nil
}
