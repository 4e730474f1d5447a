package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openclaw/pokerhall/internal/cache"
	"github.com/openclaw/pokerhall/internal/config"
	"github.com/openclaw/pokerhall/internal/db"
	"github.com/openclaw/pokerhall/internal/events"
	"github.com/openclaw/pokerhall/internal/httperr"
	"github.com/openclaw/pokerhall/internal/httpserver"
	"github.com/openclaw/pokerhall/internal/logging"
	"github.com/openclaw/pokerhall/internal/middleware"
	"github.com/openclaw/pokerhall/internal/repo"
	"github.com/openclaw/pokerhall/internal/search"
	"github.com/openclaw/pokerhall/internal/service"
	"github.com/openclaw/pokerhall/internal/tokens"

	"github.com/elastic/go-elasticsearch/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	codec, err := tokens.NewCodec(cfg.JWTSecret, cfg.RefreshSecret)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	database, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	producer := events.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	var esClient *elasticsearch.Client
	if cfg.ESURL != "" {
		esClient, err = search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
	}

	lbCache, err := cache.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer lbCache.Close()

	gormRepo := repo.New(database)
	authSvc := &service.AuthService{Repo: gormRepo, Codec: codec}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.HTTPErrorHandler = httperr.Handler(cfg.IsDevelopment())
	e.Use(middleware.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Auth: middleware.NewAuth(codec),
		AuthHandler: &httpserver.AuthHandler{
			Svc:           authSvc,
			Producer:      producer,
			SecureCookies: !cfg.IsDevelopment(),
		},
		Tournaments: &httpserver.TournamentHandler{
			Repo:     gormRepo,
			Producer: producer,
			ES:       esClient,
			Cache:    lbCache,
		},
		Matches: &httpserver.MatchHandler{
			Repo:     gormRepo,
			Producer: producer,
		},
		Leaderboard: &httpserver.LeaderboardHandler{
			Repo:  gormRepo,
			Cache: lbCache,
		},
		AllowedOrigins: cfg.AllowedOrigins,
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()
	logger.Info("server started", "port", cfg.ServerPort, "env", cfg.Env)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
