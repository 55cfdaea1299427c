package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tripgo-dev/tripgo"
	"github.com/tripgo-dev/tripgo/pkg/a2a"
	"github.com/tripgo-dev/tripgo/pkg/config"
	"github.com/tripgo-dev/tripgo/pkg/observability"
)

var (
	// Version information (set via ldflags)
	Version = "dev"

	// Command line flags
	configFile = flag.String("config", getEnv("CONFIG_FILE", ""), "Configuration file")
	obsPort    = flag.Int("obs-port", getEnvInt("OBS_PORT", 0), "Observability server port (overrides config)")
	query      = flag.String("query", "", "Run one recommendation request and exit")
	authToken  = flag.String("token", getEnv("TRIPGO_TOKEN", ""), "Auth token for the recommendation skill")
	stream     = flag.Bool("stream", false, "Stream progress chunks for -query")
)

func main() {
	flag.Parse()

	log.Printf("Starting tripgo agent v%s", Version)

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	agent, err := tripgo.New(cfg)
	if err != nil {
		log.Fatalf("Startup error: %v", err)
	}

	if *query != "" {
		runOnce(agent, *query, *authToken, *stream)
		shutdown(agent, nil)
		return
	}

	// Initialize observability
	observability.InitMetrics()
	checker := observability.NewHealthChecker(Version)
	checker.Register(observability.PingProbe())
	checker.Register(observability.ProviderProbe("provider", agent.CheckProvider))

	port := cfg.Server.ObservabilityPort
	if *obsPort != 0 {
		port = *obsPort
	}

	obsServer := observability.NewServer(port, checker,
		observability.WithAgentCard(agent.Card()),
	)

	collectCtx, stopCollect := context.WithCancel(context.Background())
	defer stopCollect()
	go observability.CollectRuntimeMetrics(collectCtx, 15*time.Second)

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Starting observability server on :%d", port)
		if err := obsServer.Start(); err != nil {
			errChan <- fmt.Errorf("observability server error: %w", err)
		}
	}()

	card, _ := json.Marshal(agent.Card())
	log.Printf("Agent card: %s", card)

	// Wait for shutdown signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Printf("Error: %v", err)
	case <-quit:
		log.Println("Shutting down agent...")
	}

	shutdown(agent, obsServer)
	log.Println("Agent stopped")
}

func loadConfig() (*config.Config, error) {
	if *configFile == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(*configFile)
}

// runOnce executes a single recommendation request and prints the result.
func runOnce(agent *tripgo.Agent, query, token string, streaming bool) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	req := &a2a.ExecuteRequest{
		SkillID:   a2a.SkillRecommendation,
		AuthToken: token,
		InputData: map[string]any{"query": query},
	}

	if streaming {
		for chunk := range agent.ExecuteStream(ctx, req) {
			printJSON(chunk)
		}
		return
	}

	printJSON(agent.Execute(ctx, req))
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("Encoding error: %v", err)
		return
	}
	fmt.Println(string(data))
}

func shutdown(agent *tripgo.Agent, obsServer *observability.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if obsServer != nil {
		if err := obsServer.Shutdown(ctx); err != nil {
			log.Printf("Observability server shutdown error: %v", err)
		}
	}
	if err := agent.Close(ctx); err != nil {
		log.Printf("Agent shutdown error: %v", err)
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
