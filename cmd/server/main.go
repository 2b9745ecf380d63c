package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/inkwell/newsletter-platform/internal/api"
	"github.com/inkwell/newsletter-platform/internal/auth"
	"github.com/inkwell/newsletter-platform/internal/config"
	"github.com/inkwell/newsletter-platform/internal/render"
	"github.com/inkwell/newsletter-platform/internal/repository/postgres"
	"github.com/inkwell/newsletter-platform/internal/service/dispatch"
	"github.com/inkwell/newsletter-platform/internal/service/newsletter"
	"github.com/inkwell/newsletter-platform/internal/service/subscriber"
	"github.com/inkwell/newsletter-platform/internal/transport"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

// buildSender selects the outbound email transport from config.
func buildSender(ctx context.Context, cfg config.EmailConfig) (transport.Sender, error) {
	switch cfg.Provider {
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("resend provider selected but resend_api_key is empty")
		}
		return transport.NewResendSender(cfg.ResendAPIKey), nil
	case "ses":
		return transport.NewSESSender(ctx, cfg.SES.AccessKey, cfg.SES.SecretKey, cfg.SES.Region, cfg.SES.Timeout())
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

func main() {
	configPath := "config/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("database.url (or DATABASE_URL) is required")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender, err := buildSender(ctx, cfg.Email)
	if err != nil {
		log.Fatalf("Failed to build email transport: %v", err)
	}
	log.Printf("Email transport: %s", cfg.Email.Provider)

	renderer, err := render.New(cfg.Server.BaseURL, cfg.Email.SenderName)
	if err != nil {
		log.Fatalf("Failed to build renderer: %v", err)
	}

	newsletterRepo := postgres.NewNewsletterRepo(db)
	subscriberRepo := postgres.NewSubscriberRepo(db)
	deliveryRepo := postgres.NewDeliveryRepo(db)

	newsletterSvc := newsletter.NewService(newsletterRepo)
	subscriberSvc := subscriber.NewService(subscriberRepo)
	dispatchSvc := dispatch.NewService(
		newsletterRepo,
		subscriberRepo,
		deliveryRepo,
		renderer,
		sender,
		dispatch.Config{
			FromName:      cfg.Email.FromName,
			FromEmail:     cfg.Email.FromEmail,
			ReplyTo:       cfg.Email.ReplyTo,
			MaxConcurrent: cfg.Dispatch.MaxConcurrent,
		},
	)

	// Session store: Redis when configured so any instance can resolve a
	// cookie, in-process otherwise.
	var sessionStore auth.SessionStore
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to ping redis: %v", err)
		}
		sessionStore = auth.NewRedisStore(redisClient)
		log.Printf("Session store: redis (%s)", cfg.Redis.Addr)
	} else {
		sessionStore = auth.NewMemoryStore()
		log.Println("Session store: in-memory")
	}

	var authManager *auth.Manager
	if cfg.Auth.Enabled && cfg.Auth.GoogleClientID != "" {
		authManager = auth.NewManager(&cfg.Auth, sessionStore, cfg.Server.BaseURL)
		log.Println("Authentication: enabled (Google OAuth)")
	} else {
		log.Println("Authentication: DISABLED - /api routes are open")
	}

	handlers := api.NewHandlers(newsletterSvc, subscriberSvc, dispatchSvc, cfg.Server.BaseURL)
	server := api.NewServer(cfg.Server, handlers, authManager, []string{cfg.Server.BaseURL})

	addr := fmt.Sprintf("%s:%d", host, port)
	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
