package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"bingebase/config"
	"bingebase/handlers"
	"bingebase/services/metadata"
	"bingebase/services/prefs"
	"bingebase/services/ratings"
	"bingebase/services/viewer"
	"bingebase/utils"
)

func main() {
	configPath := flag.String("config", "settings.json", "path to the settings file")
	assetsDir := flag.String("assets", "web", "directory with the frontend assets")
	flag.Parse()

	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfgManager := config.NewManager(*configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("[main] failed to load settings: %v", err)
	}

	if err := os.MkdirAll(settings.DataDir, 0o755); err != nil {
		log.Fatalf("[main] failed to create data dir: %v", err)
	}

	log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   filepath.Join(settings.DataDir, "logs", "bingebase.log"),
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     14, // days
	}))

	metadataSvc := metadata.NewService(settings.TMDBAPIKey, settings.Language, settings.DataDir, &http.Client{})

	ratingStore, err := ratings.NewStore(settings.DataDir)
	if err != nil {
		log.Fatalf("[main] failed to open rating store: %v", err)
	}
	defer ratingStore.Close()
	ratingSvc := ratings.NewService(settings.OMDBAPIKey, ratingStore, nil)

	prefStore, err := prefs.NewService(nil, settings.DataDir)
	if err != nil {
		log.Fatalf("[main] failed to open preference store: %v", err)
	}

	controller := viewer.NewController(metadataSvc, ratingSvc, prefStore)

	// Validate the key and warm the home feed cache in the background.
	// A bad or missing key doesn't stop the static server; the app
	// reports the problem when it loads.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := controller.Start(ctx); err != nil {
			log.Printf("[main] api key validation failed: %v", err)
			return
		}
		log.Printf("[main] home feed warmed")
	}()

	router := utils.NewRouter()
	router.PathPrefix("/").Handler(handlers.NewStaticHandler(*assetsDir, settings.TMDBAPIKey))

	addr := fmt.Sprintf(":%d", settings.Port)
	log.Printf("[main] serving %s on %s", *assetsDir, addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("[main] server error: %v", err)
	}
}
