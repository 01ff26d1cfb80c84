package corpus

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/hybrid/ai"
	"github.com/poiesic/hybrid/core"
	"github.com/poiesic/hybrid/retry"
	"github.com/poiesic/hybrid/storage"
)

// maxLineSize bounds a single fixture line.
const maxLineSize = 16 * 1024 * 1024

// Loader embeds fixture records and writes them to a passage store.
type Loader struct {
	store          storage.PassageStore
	embedder       ai.Embedder
	checkpoints    storage.CheckpointStore
	batchSize      int
	policy         retry.Policy
	progress       io.Writer
	reportInterval int
	logger         *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader) error

// WithBatchSize sets how many records are embedded per call.
// Default is 100.
func WithBatchSize(size int) Option {
	return func(l *Loader) error {
		if size < 1 {
			return errors.New("batch size must be greater than 0")
		}
		l.batchSize = size
		return nil
	}
}

// WithRetryPolicy sets the retry policy for embedding calls.
// Default is three attempts starting one second apart.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(l *Loader) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		l.policy = policy
		return nil
	}
}

// WithCheckpoints enables resuming named loads from store.
func WithCheckpoints(store storage.CheckpointStore) Option {
	return func(l *Loader) error {
		l.checkpoints = store
		return nil
	}
}

// WithProgress reports progress to w every interval records.
func WithProgress(w io.Writer, interval int) Option {
	return func(l *Loader) error {
		l.progress = w
		l.reportInterval = interval
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// NewLoader creates a Loader writing to store.
func NewLoader(store storage.PassageStore, embedder ai.Embedder, opts ...Option) (*Loader, error) {
	if store == nil {
		return nil, ErrPassageStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	l := &Loader{
		store:          store,
		embedder:       embedder,
		batchSize:      100,
		policy:         retry.Policy{MaxAttempts: 3, BaseDelay: time.Second},
		progress:       io.Discard,
		reportInterval: 100,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	l.logger = l.logger.With("component", "loader")
	return l, nil
}

// Stats summarizes a load.
type Stats struct {
	// Loaded is the number of records written by this call.
	Loaded int
	// Resumed is the number of records skipped because an earlier load
	// under the same name had committed them.
	Resumed int
	Elapsed time.Duration
}

// LoadFile loads the fixture file at path, named after its base name.
func (l *Loader) LoadFile(ctx context.Context, path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, err
	}
	defer f.Close()

	total, err := countRecords(f)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count records: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Stats{}, err
	}
	return l.load(ctx, filepath.Base(path), f, total)
}

// Load reads fixture records from r. With checkpoints enabled, records an
// earlier load of the same name committed are skipped. Loading stops at the
// first invalid record or failed batch; batches written before it stay
// committed.
func (l *Loader) Load(ctx context.Context, name string, r io.Reader) (Stats, error) {
	return l.load(ctx, name, r, 0)
}

func (l *Loader) load(ctx context.Context, name string, r io.Reader, total int) (Stats, error) {
	var stats Stats
	offset, err := l.resumeOffset(ctx, name)
	if err != nil {
		return stats, err
	}
	stats.Resumed = offset
	if offset > 0 {
		l.logger.Info("resuming_load", "name", name, "offset", offset)
	}

	tracker := NewProgressTracker(l.progress, total, l.reportInterval)
	tracker.Start(offset)

	committed := offset
	batch := make([]*core.Passage, 0, l.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.writeBatch(ctx, batch); err != nil {
			return err
		}
		committed += len(batch)
		stats.Loaded += len(batch)
		tracker.Increment(len(batch))
		batch = batch[:0]
		return l.saveCheckpoint(ctx, name, committed)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line, record := 0, 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		record++
		if record <= offset {
			continue
		}

		rec, err := DecodeRecord(raw)
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", line, err)
		}
		p, err := rec.Passage()
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, p)
		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, err
	}
	if err := flush(); err != nil {
		return stats, err
	}

	tracker.Finish()
	stats.Elapsed = tracker.Elapsed()
	l.logger.Info("load_completed", "name", name, "loaded", stats.Loaded,
		"resumed", stats.Resumed, "duration_ms", stats.Elapsed.Milliseconds())
	return stats, nil
}

func (l *Loader) writeBatch(ctx context.Context, batch []*core.Passage) error {
	texts := make([]string, len(batch))
	for i, p := range batch {
		texts[i] = p.Text
	}

	var embeddings [][]float32
	err := l.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		embeddings, err = l.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", l.policy.MaxAttempts, err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingMismatch, len(batch), len(embeddings))
	}
	for i := range batch {
		batch[i].Vector = embeddings[i]
	}

	if err := l.store.PutPassages(ctx, batch...); err != nil {
		return fmt.Errorf("failed to store passages: %w", err)
	}
	l.logger.Debug("batch_stored", "passages", len(batch))
	return nil
}

func (l *Loader) resumeOffset(ctx context.Context, name string) (int, error) {
	if l.checkpoints == nil {
		return 0, nil
	}
	cp, err := l.checkpoints.LoadCheckpoint(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if cp == nil {
		return 0, nil
	}
	return int(cp.Offset), nil
}

func (l *Loader) saveCheckpoint(ctx context.Context, name string, committed int) error {
	if l.checkpoints == nil {
		return nil
	}
	if err := l.checkpoints.SaveCheckpoint(ctx, &storage.Checkpoint{Name: name, Offset: int64(committed)}); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// countRecords counts the non-blank lines of r.
func countRecords(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) > 0 {
			n++
		}
	}
	return n, scanner.Err()
}
