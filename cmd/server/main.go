// cmd/server/main.go
package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/teamdraw/teamdraw-service/internal/auth"
	"github.com/teamdraw/teamdraw-service/internal/config"
	"github.com/teamdraw/teamdraw-service/internal/coordinator"
	"github.com/teamdraw/teamdraw-service/internal/handlers"
	"github.com/teamdraw/teamdraw-service/internal/history"
	"github.com/teamdraw/teamdraw-service/internal/middleware"
	"github.com/teamdraw/teamdraw-service/internal/room"
)

func main() {
	auth.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	var publisher *history.Publisher
	if cfg.HistoryEnabled() {
		publisher, err = history.NewPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.HistoryQueue)
		if err != nil {
			log.Fatalf("history publisher error: %v", err)
		}
		defer publisher.Close()
		logger.Infof("assignment history enabled, queue %q at %s", cfg.HistoryQueue, cfg.RedisAddr)
	} else {
		logger.Info("REDIS_ADDR not set, assignment history disabled")
	}

	// The store and the coordinator guard their rng with different mutexes,
	// so they must not share one *rand.Rand.
	store := room.NewStore(rand.New(rand.NewSource(time.Now().UnixNano())))
	co := coordinator.New(store, rand.New(rand.NewSource(time.Now().UnixNano()+1)), logger, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go co.RunReaper(ctx)

	mux := http.NewServeMux()

	// The websocket route skips LogMiddleware: the status-recording wrapper
	// hides the http.Hijacker the upgrade needs.
	mux.Handle("/ws", handlers.RoomWSHandler(logger, co))

	mux.Handle("/rooms", middleware.LogMiddleware(logger)(handlers.ListRoomsHandler(store)))
	mux.Handle("/healthz", middleware.LogMiddleware(logger)(handlers.HealthHandler(logger)))

	addr := ":" + cfg.Port
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
