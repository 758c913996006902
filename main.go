package main

import (
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"kanban-flow/api"
	"kanban-flow/board"
	"kanban-flow/storage"
	"kanban-flow/stream"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	var store storage.CardStore
	if connStr := os.Getenv("REDIS_CONNECTION_STRING"); connStr != "" {
		opts, err := redis.ParseURL(connStr)
		if err != nil {
			log.Fatalf("invalid REDIS_CONNECTION_STRING: %v", err)
		}
		store = storage.NewRedis(redis.NewClient(opts))
		log.Info("using redis card store")
	} else {
		store = storage.NewMemory()
		log.Info("using in-memory card store")
	}

	sseBuffer := stream.DefaultBuffer
	if v := os.Getenv("SSE_BUFFER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Fatalf("invalid SSE_BUFFER: %q", v)
		}
		sseBuffer = n
	}

	logger := log.New()
	broker := stream.NewBroker(sseBuffer, logger)
	svc := board.NewService(store, broker, logger)

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(api.GzipRequestMiddleware())

	passcode := os.Getenv("BOARD_PASSCODE")
	if passcode == "" {
		log.Warn("BOARD_PASSCODE not set, board is open")
	}
	api.Register(e, svc, broker, logger, passcode)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}
	if val, ok := os.LookupEnv("LISTEN_ADDR"); ok {
		listenAddr = val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}
