package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v9"

	"stockledger/internal/client"
	"stockledger/internal/configuration"
	"stockledger/internal/database"
	"stockledger/internal/feed"
	"stockledger/internal/ledger"
	"stockledger/internal/logger"
	"stockledger/internal/ratelimit"
	"stockledger/internal/server"
)

func main() {
	if err := runApp(); err != nil {
		time.Sleep(10 * time.Second)
		os.Exit(1)
	}
}

func runApp() error {
	appContext := context.Background()
	logOutput := io.Writer(os.Stdout)
	appLogger := logger.NewLogger(logger.LevelError, logOutput)

	defer func() {
		if r := recover(); r != nil {
			appLogger.Errorf("APPLICATION CRASHED: %+v", r)
		}
	}()

	config, err := configuration.GetConfig("config.toml")
	if err != nil {
		appLogger.Error("Error getting configuration from config.toml:", err)
		return err
	}

	if config.LogToFile {
		logFile, err := os.OpenFile("stockledger_backend.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			appLogger.Error("Error opening log file:", err)
			return err
		}
		defer func() {
			if err := logFile.Close(); err != nil {
				appLogger.Error("Error closing log file:", err)
			}
		}()
		logOutput = io.MultiWriter(logOutput, logFile)
	}
	appLogger = logger.NewLogger(config.LogLevel, logOutput)

	if config.LogLevel >= logger.LevelDebug {
		conf, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			appLogger.Error("Error marshalling Config to JSON:", err)
			return err
		}
		appLogger.Debugf("Config:\n%s", conf)
	}

	appLogger.Info("Connecting to DB at", config.DatabaseURI)
	dbConn, err := database.ConnectDB(appContext, config.DatabaseURI)
	if err != nil {
		appLogger.Error("Error connecting to DB:", err)
		return err
	}
	defer func() {
		if err := dbConn.Disconnect(appContext); err != nil {
			appLogger.Error("Error disconnecting from DB:", err)
		}
	}()
	db := database.Database{Database: dbConn.Database(database.Name)}

	var limiter ratelimit.Limiter
	if config.RedisAddress != "" {
		appLogger.Info("Connecting to Redis at", config.RedisAddress)
		redisClient := redis.NewClient(&redis.Options{Addr: config.RedisAddress})
		if err := redisClient.Ping(appContext).Err(); err != nil {
			appLogger.Error("Error connecting to Redis:", err)
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				appLogger.Error("Error closing Redis client:", err)
			}
		}()
		limiter = ratelimit.NewRedisLimiter(redisClient, ratelimit.DefaultWindow, ratelimit.DefaultMax)
	} else {
		appLogger.Info("No Redis address configured, using in-process rate limiter")
		limiter = ratelimit.NewMemoryLimiter(ratelimit.DefaultWindow, ratelimit.DefaultMax)
	}

	hub := feed.NewHub()
	srv := server.Server{
		DB: db,
		Ledger: &ledger.Ledger{
			Store:  db,
			Feed:   hub,
			Logger: appLogger,
		},
		Hub: hub,
		Client: client.Client{
			Client:       &http.Client{Timeout: 15 * time.Second},
			VisionAPIURL: config.VisionAPIURL,
			VisionAPIKey: config.VisionAPIKey,
			Logger:       appLogger,
		},
		Limiter:       limiter,
		Logger:        appLogger,
		AuthSecretKey: config.AuthSecretKey,
	}

	httpSrv := &http.Server{
		Handler:      srv.Router(),
		Addr:         config.ServerAddress,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	appLogger.Info("Serving on", httpSrv.Addr)
	return httpSrv.ListenAndServe()
}
