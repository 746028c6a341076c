package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"notesync/config"
	"notesync/internal/devserver"
	"notesync/pkg/logger"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables from OS")
	}
	logger.Init()
	defer logger.Log.Sync()

	cfg := config.Load()

	store := devserver.NewStore()
	router := devserver.NewRouter(store, cfg.JWTSecret)

	logger.Sugar.Infof("Devserver listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		logger.Sugar.Fatalf("Devserver stopped: %v", err)
	}
}
