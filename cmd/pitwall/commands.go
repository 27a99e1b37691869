package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/pitwall/chat"
	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/ingestion"
	"github.com/poiesic/pitwall/server"
)

func ingestCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	workers := c.Int("workers")
	if workers <= 0 {
		return fmt.Errorf("workers must be greater than 0")
	}

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	sources := ingestion.DefaultSources
	opts := []ingestion.Option{
		ingestion.WithWorkers(workers),
		ingestion.WithDedup(c.Bool("dedup")),
		ingestion.WithSourceTimeout(c.Duration("source-timeout")),
	}
	if c.Bool("progress") {
		bar := newProgressBar(len(sources))
		opts = append(opts, ingestion.WithSourceCallback(func(string) {
			_ = bar.Add(1)
		}))
		defer bar.Finish()
	}

	pipeline, err := app.NewIngestionPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	spec := app.CollectionSpec()
	fmt.Fprintf(os.Stderr, "Store: %s\n", app.Config().Store)
	fmt.Fprintf(os.Stderr, "Collection: %s (%d dims, %s)\n", spec.Name, spec.Dimension, spec.Metric)
	fmt.Fprintf(os.Stderr, "Sources: %d, workers: %d\n", len(sources), workers)
	fmt.Fprintln(os.Stderr)

	report, err := pipeline.Run(ctx, sources)
	if report != nil {
		printReport(report)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

func printReport(r *ingestion.Report) {
	fmt.Fprintf(os.Stderr, "Run %s finished in %s\n", r.RunID, formatDuration(r.Duration))
	fmt.Fprintf(os.Stderr, "  sources:   %d (%d without text)\n", r.Sources, r.SourcesSkipped)
	fmt.Fprintf(os.Stderr, "  chunks:    %d (%d too short)\n", r.Chunks, r.ChunksDiscarded)
	fmt.Fprintf(os.Stderr, "  inserted:  %d\n", r.Inserted)
	if r.Duplicates > 0 {
		fmt.Fprintf(os.Stderr, "  duplicates: %d\n", r.Duplicates)
	}
	if r.Failed > 0 {
		fmt.Fprintf(os.Stderr, "  failed:    %d\n", r.Failed)
	}
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	service, err := app.NewChatService(chat.WithTimeout(c.Duration("request-timeout")))
	if err != nil {
		return fmt.Errorf("failed to create chat service: %w", err)
	}

	srv, err := server.New(service,
		server.WithAddr(c.String("addr")),
		server.WithAllowedOrigins(c.StringSlice("allowed-origin")...),
		server.WithLogger(slog.Default()),
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.ListenAndServe(ctx)
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("a question is required")
	}

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	service, err := app.NewChatService()
	if err != nil {
		return fmt.Errorf("failed to create chat service: %w", err)
	}

	monitor := newLoggingMonitor(slog.Default())
	if c.Bool("show-context") {
		monitor.out = os.Stderr
	}

	answer, err := service.ReplyWithMonitor(c.Context,
		[]core.ChatMessage{{Role: core.RoleUser, Content: question}}, monitor)
	if err != nil {
		return fmt.Errorf("failed to answer: %w", err)
	}
	fmt.Fprintln(c.App.Writer, answer)
	return nil
}
