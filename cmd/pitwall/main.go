// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/pitwall"
	"github.com/poiesic/pitwall/ai"
	"github.com/poiesic/pitwall/chat"
	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/ingestion"
	"github.com/poiesic/pitwall/server"
	"github.com/poiesic/pitwall/storage/astra"
)

func main() {
	if err := loadDotEnv(".env"); err != nil {
		log.Fatal(err)
	}
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadDotEnv must run before flag parsing so EnvVars can see the values.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:   "pitwall",
		Usage:  "Retrieval-augmented Formula One chat assistant",
		Flags:  globalFlags(),
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Fetch the source pages, embed them and load the vector collection",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of sources processed concurrently",
						Value: 1,
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Show a progress bar on stderr",
					},
					&cli.BoolFlag{
						Name:  "dedup",
						Usage: "Key chunks by content hash so re-runs skip existing text",
					},
					&cli.DurationFlag{
						Name:  "source-timeout",
						Usage: "Upper bound on the time spent on one source",
						Value: ingestion.DefaultSourceTimeout,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the chat API over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Listen address",
						Value:   server.DefaultAddr,
						EnvVars: []string{"PITWALL_ADDR"},
					},
					&cli.DurationFlag{
						Name:  "request-timeout",
						Usage: "Deadline for answering one chat request",
						Value: chat.DefaultTimeout,
					},
					&cli.StringSliceFlag{
						Name:    "allowed-origin",
						Usage:   "Origin allowed by CORS (repeatable; default any)",
						EnvVars: []string{"PITWALL_ALLOWED_ORIGINS"},
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask a single question and print the answer",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "show-context",
						Usage: "Print the retrieved context before the answer",
					},
				},
			},
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   "Set logging level (debug, info, warn, error)",
			Value:   "info",
		},
		&cli.StringFlag{
			Name:    "store",
			Usage:   "Collection store backend (astra, badger, postgres)",
			Value:   string(pitwall.StoreAstra),
			EnvVars: []string{"PITWALL_STORE"},
		},
		&cli.StringFlag{
			Name:    "collection",
			Usage:   "Name of the vector collection",
			EnvVars: []string{"ASTRA_DB_COLLECTION", "ASTRA_DB_Collection"},
		},
		&cli.StringFlag{
			Name:  "metric",
			Usage: "Similarity metric used when creating the collection (cosine, euclidean, dot_product)",
			Value: string(core.DefaultMetric),
		},
		&cli.StringFlag{
			Name:    "astra-endpoint",
			Usage:   "Astra Data API endpoint",
			EnvVars: []string{"ASTRA_DB_API_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:    "astra-token",
			Usage:   "Astra application token",
			EnvVars: []string{"ASTRA_DB_APPLICATION_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "astra-keyspace",
			Usage:   "Astra keyspace holding the collection",
			Value:   astra.DefaultKeyspace,
			EnvVars: []string{"ASTRA_DB_NAMESPACE"},
		},
		&cli.StringFlag{
			Name:    "badger-path",
			Usage:   "Path to the BadgerDB directory when --store=badger",
			Value:   pitwall.DefaultBadgerPath,
			EnvVars: []string{"PITWALL_BADGER_PATH"},
		},
		&cli.StringFlag{
			Name:    "postgres-dsn",
			Usage:   "PostgreSQL connection string when --store=postgres",
			EnvVars: []string{"PITWALL_POSTGRES_DSN"},
		},
		&cli.StringFlag{
			Name:    "gemini-api-key",
			Usage:   "Google Gemini API key",
			EnvVars: []string{"GEMINI_API_KEY"},
		},
		&cli.StringFlag{
			Name:  "chat-model",
			Usage: "Gemini chat model",
			Value: ai.DefaultConfig().ChatModel,
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Gemini embedding model",
			Value: ai.DefaultConfig().EmbeddingModel,
		},
	}
}

// configFromContext assembles and validates the configuration named by the global flags.
func configFromContext(c *cli.Context) (*pitwall.Config, error) {
	metric, err := core.ParseSimilarityMetric(strings.TrimSpace(c.String("metric")))
	if err != nil {
		return nil, err
	}

	cfg := pitwall.NewConfig(
		pitwall.WithStore(pitwall.StoreType(c.String("store"))),
		pitwall.WithCollection(c.String("collection")),
		pitwall.WithMetric(metric),
		pitwall.WithAstra(astra.Config{
			Endpoint: c.String("astra-endpoint"),
			Keyspace: c.String("astra-keyspace"),
			Token:    c.String("astra-token"),
		}),
		pitwall.WithBadgerPath(c.String("badger-path")),
		pitwall.WithPostgresDSN(c.String("postgres-dsn")),
		pitwall.WithAIConfig(ai.NewConfig(
			ai.WithAPIKey(c.String("gemini-api-key")),
			ai.WithChatModel(c.String("chat-model")),
			ai.WithEmbeddingModel(c.String("embedding-model")),
		)),
	)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openApp(c *cli.Context) (*pitwall.App, error) {
	cfg, err := configFromContext(c)
	if err != nil {
		return nil, err
	}
	app, err := pitwall.Open(c.Context, cfg, pitwall.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store, err)
	}
	return app, nil
}

func setupLogger(c *cli.Context) error {
	level, err := parseLevel(c.String("log-level"))
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
	}
}

func formatDuration(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}
