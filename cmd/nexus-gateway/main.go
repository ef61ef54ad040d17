// Command nexus-gateway runs the HTTP API gateway: it loads a Gateway
// Configuration, wires a broker client adapter pointed at the
// out-of-process service broker, and serves until terminated.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/broker"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/config"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/gateway"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/logging"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		log.Printf("Nexus Gateway version: %s", Version)
		os.Exit(0)
	}

	configPath := getEnv("GATEWAY_CONFIG_FILE", "gateway.yaml")
	brokerBaseURL := getEnv("BROKER_BASE_URL", "http://localhost:8080")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load gateway config: %v", err)
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if ip := os.Getenv("IP"); ip != "" {
		cfg.IP = ip
	}
	if cfg.Port == "" {
		cfg.Port = "8090"
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{Transport: transport, Timeout: 30 * time.Second}

	logger := logging.New()
	brokerClient := broker.NewRestyClient(brokerBaseURL, httpClient)

	gw, err := gateway.New(cfg, brokerClient, logger)
	if err != nil {
		logger.Error(err, "failed to construct gateway")
		os.Exit(1)
	}

	gw.Created()
	if err := gw.Started(); err != nil {
		logger.Error(err, "failed to start gateway")
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), gateway.ShutdownGrace+time.Second)
	defer cancel()
	if err := gw.Stopped(ctx); err != nil {
		logger.Error(err, "error during gateway shutdown")
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
