package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
	"github.com/custodia-labs/shelfwise/internal/logger"
	"github.com/custodia-labs/shelfwise/internal/vectorindex"
)

// IndexBuilderConfig configures rebuilds.
type IndexBuilderConfig struct {
	// Name is the storage location prefix of the persisted generation.
	Name string

	// Concurrency bounds parallel embedding calls. Values below 1 mean 1.
	Concurrency int

	// Timeout bounds a whole rebuild. Zero means no limit.
	Timeout time.Duration
}

// IndexBuilder turns product records into a published index generation.
// Only one rebuild or load runs at a time per builder; a RebuildLock
// extends that to other processes sharing the same storage.
type IndexBuilder struct {
	embedder    driven.EmbeddingService
	store       driven.BlobStore
	lock        driven.RebuildLock
	generations *Generations
	cfg         IndexBuilderConfig

	mu sync.Mutex
}

// NewIndexBuilder creates an index builder.
// The store is optional; without it generations live in memory only.
func NewIndexBuilder(
	embedder driven.EmbeddingService,
	store driven.BlobStore,
	generations *Generations,
	cfg IndexBuilderConfig,
) *IndexBuilder {
	if cfg.Name == "" {
		cfg.Name = domain.DefaultAppSettings().Index.Name
	}
	return &IndexBuilder{
		embedder:    embedder,
		store:       store,
		generations: generations,
		cfg:         cfg,
	}
}

// SetRebuildLock sets the cross-process lock taken around rebuilds and loads.
func (b *IndexBuilder) SetRebuildLock(lock driven.RebuildLock) {
	b.lock = lock
}

// Rebuild embeds records into a new generation, persists it and publishes it.
// Any failure leaves the published generation untouched.
func (b *IndexBuilder) Rebuild(ctx context.Context, records []domain.ProductRecord) (*Generation, error) {
	logger.Section("Index Rebuild")
	defer logger.Timer("rebuild")()

	release, err := b.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}

	gen, err := b.build(ctx, records)
	if err != nil {
		logger.Error("rebuild aborted: %v", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.RebuildError{Err: err}
	}
	if err := b.persist(ctx, gen, records); err != nil {
		logger.Error("rebuild aborted: %v", err)
		return nil, &domain.RebuildError{Err: err}
	}

	b.generations.Publish(gen)
	logger.Info("Published generation %s (%d documents, model %s)",
		gen.Index.Generation(), gen.Index.Len(), gen.Index.ModelID())
	return gen, nil
}

// Load publishes the persisted generation.
// Returns domain.ErrNotFound if nothing was persisted yet.
func (b *IndexBuilder) Load(ctx context.Context) (*Generation, error) {
	logger.Section("Index Load")

	if b.store == nil {
		return nil, fmt.Errorf("load index: %w: no index storage configured", domain.ErrNotFound)
	}

	release, err := b.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	data, err := b.store.Read(ctx, b.cfg.Name+indexSuffix)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	idx, err := vectorindex.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}

	if cur := b.generations.Current(); cur != nil && cur.Index.Generation() == idx.Generation() {
		logger.Debug("Generation %s already published", idx.Generation())
		return cur, nil
	}

	data, err = b.store.Read(ctx, recordsLocation(b.cfg.Name, idx.Generation()))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("load index: %w: records snapshot missing", domain.ErrCorruptIndex)
		}
		return nil, fmt.Errorf("load index: %w", err)
	}
	snap, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	if snap.Generation != idx.Generation() {
		return nil, fmt.Errorf("load index: %w: records belong to generation %s, index to %s",
			domain.ErrCorruptIndex, snap.Generation, idx.Generation())
	}

	gen, err := newGeneration(idx, snap.Records)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}

	if idx.ModelID() != b.embedder.ModelName() {
		logger.Warn("Index %s was built with %q but the embedding model is %q; questions will fail until it is rebuilt",
			idx.Generation(), idx.ModelID(), b.embedder.ModelName())
	}

	b.generations.Publish(gen)
	logger.Info("Loaded generation %s (%d documents)", idx.Generation(), idx.Len())
	return gen, nil
}

func (b *IndexBuilder) acquire(ctx context.Context) (func(), error) {
	if !b.mu.TryLock() {
		return nil, domain.ErrRebuildInProgress
	}
	if b.lock == nil {
		return b.mu.Unlock, nil
	}

	unlock, err := b.lock.Acquire(ctx)
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	return func() {
		if err := unlock(); err != nil {
			logger.Warn("releasing rebuild lock: %v", err)
		}
		b.mu.Unlock()
	}, nil
}

func (b *IndexBuilder) build(ctx context.Context, records []domain.ProductRecord) (*Generation, error) {
	if len(records) == 0 {
		return nil, &domain.RebuildError{Err: fmt.Errorf("%w: no product records", domain.ErrEmptyInput)}
	}

	seen := make(map[string]struct{}, len(records))
	texts := make([]string, len(records))
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, &domain.RebuildError{Identifier: strings.TrimSpace(r.ID), Err: err}
		}
		if _, dup := seen[r.ID]; dup {
			return nil, &domain.RebuildError{Identifier: r.ID, Err: domain.ErrDuplicateRecord}
		}
		seen[r.ID] = struct{}{}
		texts[i] = BuildDocumentText(r)
	}
	logger.Debug("Built %d documents", len(texts))

	embeddings, err := b.embedAll(ctx, records, texts)
	if err != nil {
		return nil, err
	}

	entries := make([]vectorindex.Entry, len(records))
	for i, r := range records {
		entries[i] = vectorindex.Entry{SourceID: r.ID, Embedding: embeddings[i]}
	}

	idx, err := vectorindex.Build(entries, vectorindex.Meta{ModelID: b.embedder.ModelName()})
	if err != nil {
		var dm *domain.DimensionMismatchError
		if errors.As(err, &dm) && dm.Position >= 0 && dm.Position < len(records) {
			return nil, &domain.RebuildError{Identifier: records[dm.Position].ID, Err: err}
		}
		return nil, &domain.RebuildError{Err: err}
	}

	gen, err := newGeneration(idx, records)
	if err != nil {
		return nil, &domain.RebuildError{Err: err}
	}
	return gen, nil
}

// embedAll embeds texts with bounded concurrency. The first failure cancels
// outstanding calls and names the record it came from.
func (b *IndexBuilder) embedAll(ctx context.Context, records []domain.ProductRecord, texts []string) ([][]float32, error) {
	defer logger.Timer("embed documents")()

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, b.cfg.Concurrency))

	for i := range texts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			vec, err := b.embedder.Embed(gctx, texts[i])
			if err != nil {
				return &domain.RebuildError{Identifier: records[i].ID, Err: err}
			}
			out[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.RebuildError{Err: err}
	}
	return out, nil
}

// persist writes the generation's records under their own location before
// switching the index blob, so the stored index always points at complete
// records.
func (b *IndexBuilder) persist(ctx context.Context, gen *Generation, records []domain.ProductRecord) error {
	if b.store == nil {
		return nil
	}
	defer logger.Timer("persist generation")()

	id := gen.Index.Generation()
	recData, err := encodeRecords(id, records)
	if err != nil {
		return err
	}
	idxData, err := vectorindex.Encode(gen.Index)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	prev := b.persistedGeneration(ctx)

	if err := b.store.Write(ctx, recordsLocation(b.cfg.Name, id), recData); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	if err := b.store.Write(ctx, b.cfg.Name+indexSuffix, idxData); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	logger.Debug("Persisted generation %s (%d bytes)", id, len(recData)+len(idxData))

	if prev != "" && prev != id {
		err := b.store.Delete(ctx, recordsLocation(b.cfg.Name, prev))
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("removing records of generation %s: %v", prev, err)
		}
	}
	return nil
}

// persistedGeneration returns the generation the stored index blob points
// at, which may have been published by another process. When the blob
// cannot be read it falls back to the generation published here.
func (b *IndexBuilder) persistedGeneration(ctx context.Context) string {
	data, err := b.store.Read(ctx, b.cfg.Name+indexSuffix)
	if err == nil {
		if id, err := vectorindex.GenerationOf(data); err == nil {
			return id
		}
	} else if errors.Is(err, domain.ErrNotFound) {
		return ""
	}
	if cur := b.generations.Current(); cur != nil {
		return cur.Index.Generation()
	}
	return ""
}
