package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"assistant/internal/catalog"
	"assistant/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// VectorCache persists phrase vectors across restarts, keyed by a corpus
// hash covering the catalog phrases and the embedding model.
type VectorCache interface {
	LoadIntentVectors(ctx context.Context, corpusHash string) ([]model.IntentVector, error)
	SaveIntentVectors(ctx context.Context, corpusHash, embeddingModel string, vectors []model.IntentVector) error
}

// IntentTable is the immutable lookup of unit-normalized phrase vectors,
// one slice of vectors per intent in catalog order.
type IntentTable struct {
	intents []model.Intent
	vectors [][][]float32
	hash    string
}

// Len returns the number of intents in the table
func (t *IntentTable) Len() int {
	return len(t.intents)
}

// Hash returns the corpus hash the table was built for
func (t *IntentTable) Hash() string {
	return t.hash
}

// BuildIntentTable embeds every catalog phrase. Vectors are taken from
// cache when it holds a complete set for this corpus; otherwise they are
// computed with at most concurrency provider calls in flight and saved back.
func BuildIntentTable(
	ctx context.Context,
	cat *catalog.Catalog,
	embedder Embedder,
	cache VectorCache,
	concurrency int,
	logger *zap.Logger,
) (*IntentTable, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}

	intents := cat.Intents()
	hash := cat.Hash(embedder.Model())
	table := &IntentTable{
		intents: intents,
		vectors: make([][][]float32, len(intents)),
		hash:    hash,
	}

	if cache != nil {
		cached, err := cache.LoadIntentVectors(ctx, hash)
		if err != nil {
			logger.Warn("Intent vector cache load failed, embedding from scratch", zap.Error(err))
		} else if table.fill(cached) {
			logger.Info("Intent vectors loaded from cache",
				zap.Int("intents", len(intents)),
				zap.String("corpus_hash", hash[:12]))
			return table, nil
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, intent := range intents {
		g.Go(func() error {
			vecs, err := embedder.Embed(gctx, intent.Phrases)
			if err != nil {
				return fmt.Errorf("embed intent %q: %w", intent.Name, err)
			}
			if len(vecs) != len(intent.Phrases) {
				return fmt.Errorf("embed intent %q: got %d vectors for %d phrases", intent.Name, len(vecs), len(intent.Phrases))
			}
			for _, v := range vecs {
				normalize(v)
			}
			table.vectors[i] = vecs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		embedFailuresTotal.WithLabelValues("warm").Inc()
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	logger.Info("Intent vectors computed",
		zap.Int("intents", len(intents)),
		zap.Int("phrases", cat.PhraseCount()),
		zap.String("model", embedder.Model()))

	if cache != nil {
		if err := cache.SaveIntentVectors(ctx, hash, embedder.Model(), table.flatten()); err != nil {
			logger.Warn("Failed to persist intent vectors", zap.Error(err))
		}
	}
	return table, nil
}

// fill loads cached vectors and reports whether every phrase was covered
func (t *IntentTable) fill(cached []model.IntentVector) bool {
	if len(cached) == 0 {
		return false
	}
	index := make(map[string]int, len(t.intents))
	vectors := make([][][]float32, len(t.intents))
	for i, intent := range t.intents {
		index[intent.Name] = i
		vectors[i] = make([][]float32, len(intent.Phrases))
	}
	for _, v := range cached {
		i, ok := index[v.Intent]
		if !ok || v.PhraseIndex < 0 || v.PhraseIndex >= len(vectors[i]) {
			return false
		}
		vectors[i][v.PhraseIndex] = v.Embedding
	}
	for _, vecs := range vectors {
		for _, v := range vecs {
			if v == nil {
				return false
			}
		}
	}
	t.vectors = vectors
	return true
}

func (t *IntentTable) flatten() []model.IntentVector {
	var out []model.IntentVector
	for i, intent := range t.intents {
		for j, v := range t.vectors[i] {
			out = append(out, model.IntentVector{
				Intent:      intent.Name,
				PhraseIndex: j,
				Phrase:      intent.Phrases[j],
				Embedding:   v,
			})
		}
	}
	return out
}

// ClassifierOptions tunes the intent classifier
type ClassifierOptions struct {
	Threshold float64       // a score must exceed this to count as a match
	Timeout   time.Duration // deadline for the per-message embedding call
}

// IntentClassifier matches a message against the intent table by cosine
// similarity. It is safe for concurrent use.
type IntentClassifier struct {
	embedder Embedder
	opts     ClassifierOptions
	logger   *zap.Logger

	table  atomic.Pointer[IntentTable]
	warmMu sync.Mutex
}

// NewIntentClassifier creates a classifier; call Warm before Classify
func NewIntentClassifier(embedder Embedder, opts ClassifierOptions, logger *zap.Logger) *IntentClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	return &IntentClassifier{
		embedder: embedder,
		opts:     opts,
		logger:   logger.Named("classifier"),
	}
}

// Warm builds the intent table once. Later calls are no-ops after a
// success, so a failed startup warm-up may simply be retried.
func (c *IntentClassifier) Warm(ctx context.Context, cat *catalog.Catalog, cache VectorCache, concurrency int) error {
	c.warmMu.Lock()
	defer c.warmMu.Unlock()

	if c.table.Load() != nil {
		return nil
	}
	table, err := BuildIntentTable(ctx, cat, c.embedder, cache, concurrency, c.logger)
	if err != nil {
		return err
	}
	c.table.Store(table)
	return nil
}

// WarmUntilReady retries Warm every interval until it succeeds or ctx ends
func (c *IntentClassifier) WarmUntilReady(ctx context.Context, cat *catalog.Catalog, cache VectorCache, concurrency int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := c.Warm(ctx, cat, cache, concurrency)
		if err == nil {
			c.logger.Info("Intent classifier ready")
			return
		}
		c.logger.Warn("Intent classifier warm-up failed, will retry",
			zap.Duration("interval", interval),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Ready reports whether the intent table has been built
func (c *IntentClassifier) Ready() bool {
	return c.table.Load() != nil
}

// Model names the embedding model in use
func (c *IntentClassifier) Model() string {
	return c.embedder.Model()
}

// Classify returns the best-matching intent for text. When the provider
// fails, times out or the table is not built yet, it returns an empty
// classification and an error wrapping ErrProviderUnavailable.
func (c *IntentClassifier) Classify(ctx context.Context, text string) (model.Classification, error) {
	start := time.Now()
	defer func() { classifyLatencySeconds.Observe(time.Since(start).Seconds()) }()

	table := c.table.Load()
	if table == nil {
		return model.Classification{}, fmt.Errorf("%w: intent vectors not ready", ErrProviderUnavailable)
	}

	embedCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	vecs, err := c.embedder.Embed(embedCtx, []string{text})
	if err != nil {
		embedFailuresTotal.WithLabelValues("query").Inc()
		if errors.Is(err, ErrProviderUnavailable) {
			return model.Classification{}, err
		}
		return model.Classification{}, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		embedFailuresTotal.WithLabelValues("query").Inc()
		return model.Classification{}, fmt.Errorf("%w: empty query embedding", ErrProviderUnavailable)
	}
	query := vecs[0]

	// Per-intent maxima are independent; the reduction below runs in
	// catalog order so ties go to the earlier intent.
	scores := make([]float64, table.Len())
	var g errgroup.Group
	for i := range table.intents {
		g.Go(func() error {
			best := 0.0
			for _, v := range table.vectors[i] {
				if s := cosineSimilarity(query, v); s > best {
					best = s
				}
			}
			scores[i] = best
			return nil
		})
	}
	_ = g.Wait()

	bestIdx, bestScore := -1, 0.0
	for i, s := range scores {
		if s > bestScore {
			bestIdx, bestScore = i, s
		}
	}
	bestScore = clamp01(bestScore)

	if bestIdx < 0 || bestScore <= c.opts.Threshold {
		intentTotal.WithLabelValues("none").Inc()
		return model.Classification{}, nil
	}

	name := table.intents[bestIdx].Name
	intentTotal.WithLabelValues(name).Inc()
	c.logger.Debug("Intent classified",
		zap.String("intent", name),
		zap.Float64("confidence", bestScore))
	return model.Classification{Intent: name, Confidence: bestScore}, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
