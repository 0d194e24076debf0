package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/KseniyaZaitseva1/bloggpt/internal/app"
	"github.com/KseniyaZaitseva1/bloggpt/internal/config"

	"github.com/joho/godotenv"
)

// Generates one post for -topic and prints it as JSON on stdout.
func main() {
	topic := flag.String("topic", "", "topic to write about")
	pretty := flag.Bool("pretty", false, "indent JSON output")
	flag.Parse()

	godotenv.Load()

	os.Exit(run(*topic, *pretty))
}

func run(topic string, pretty bool) int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("error loading config: %v", err)
		return 1
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	application, err := app.New(cfg)
	if err != nil {
		log.Printf("error building app: %v", err)
		return 1
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.JobTimeout)
	defer cancel()

	post, err := application.Pipeline.Generate(ctx, topic)
	if err != nil {
		slog.Error("error generating post", "topic", topic, "error", err)
		return 1
	}

	out := map[string]string{
		"title":            post.Title,
		"meta_description": post.MetaDescription,
		"post_content":     post.Body,
	}

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		slog.Error("error writing output", "error", err)
		return 1
	}
	return 0
}
