package ingestion

import (
	"log/slog"
	"sync"
	"time"
)

// Report summarises one ingestion run.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration

	Sources         int // sources attempted
	SourcesSkipped  int // sources that produced no text
	Chunks          int // chunks produced by the splitter
	ChunksDiscarded int // chunks too short to embed
	Inserted        int
	Duplicates      int // chunks already present under --dedup
	Failed          int // chunks whose embedding or insert failed
}

// sourceReport holds the counters for a single source.
type sourceReport struct {
	skipped    bool
	chunks     int
	discarded  int
	inserted   int
	duplicates int
	failed     int
}

type reportBuilder struct {
	mu     sync.Mutex
	report Report
}

func (b *reportBuilder) add(s sourceReport) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.report.Sources++
	if s.skipped {
		b.report.SourcesSkipped++
	}
	b.report.Chunks += s.chunks
	b.report.ChunksDiscarded += s.discarded
	b.report.Inserted += s.inserted
	b.report.Duplicates += s.duplicates
	b.report.Failed += s.failed
}

func (b *reportBuilder) finish() *Report {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := b.report
	r.Duration = time.Since(r.Started)
	return &r
}

// LogValue renders the report as a group of attributes.
func (r *Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", r.RunID),
		slog.Duration("duration", r.Duration),
		slog.Int("sources", r.Sources),
		slog.Int("sources_skipped", r.SourcesSkipped),
		slog.Int("chunks", r.Chunks),
		slog.Int("chunks_discarded", r.ChunksDiscarded),
		slog.Int("inserted", r.Inserted),
		slog.Int("duplicates", r.Duplicates),
		slog.Int("failed", r.Failed),
	)
}
