package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// setupServer mounts the gateway routes behind CORS and returns the HTTP
// server, unstarted.
func setupServer(config *Config, services *Services) *http.Server {
	mux := http.NewServeMux()
	services.Gateway.RegisterRoutes(mux)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	})

	addr := fmt.Sprintf(":%s", config.Port)
	log.Info().Str("addr", addr).Msg("http server configured")

	return &http.Server{
		Addr:              addr,
		Handler:           corsHandler.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
