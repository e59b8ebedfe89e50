package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/larsjuhl/kantine-kiosk/canteen"
	"github.com/larsjuhl/kantine-kiosk/config"
	"github.com/larsjuhl/kantine-kiosk/controllers"
	"github.com/larsjuhl/kantine-kiosk/middlewares"
	"github.com/larsjuhl/kantine-kiosk/router"
	"github.com/larsjuhl/kantine-kiosk/services"
	"github.com/larsjuhl/kantine-kiosk/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InitLogger()

	configPath := os.Getenv("KIOSK_CONFIG")
	if configPath == "" {
		configPath = "kiosk.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load configuration: %v", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to resolve timezone: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	client := canteen.NewClient(canteen.Config{
		BaseURL: cfg.BackendURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.HTTPTimeout.Std(),
	})

	var journal *services.OrderJournal
	if cfg.JournalPath != "" {
		journal, err = services.OpenJournal(cfg.JournalPath)
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to open order journal: %v", err)
		}
	}

	mode := services.ModeActivity
	exists := services.ExistsFunc(client.ActivityExists)
	if cfg.Mode == "room" {
		mode = services.ModeRoom
		exists = client.RoomExists
	}

	station := services.NewStation(
		services.StationConfig{
			Mode:                 mode,
			ContextID:            cfg.ContextID,
			Location:             loc,
			CatalogInterval:      cfg.CatalogInterval.Std(),
			AvailabilityInterval: cfg.AvailabilityInterval.Std(),
			SessionInterval:      cfg.SessionInterval.Std(),
			PollInterval:         cfg.PollInterval.Std(),
			PollTimeout:          cfg.PollTimeout.Std(),
		},
		services.Backends{
			Catalog:       client,
			Orders:        client,
			Kiosk:         client,
			ContextExists: exists,
		},
		journal,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	station.Start(ctx)
	defer station.Stop()

	rateLimiter := middlewares.NewRateLimiter(50, 1)
	r := router.SetupRouter(controllers.NewKioskController(station), rateLimiter)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	go func() {
		utils.InfoLogger.Printf("Kiosk gateway listening on %s (backend %s)", cfg.ListenAddr, cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Forced shutdown: %v", err)
	}
}
