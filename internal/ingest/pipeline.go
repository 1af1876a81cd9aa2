package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"medication-agent/internal/label"
	"medication-agent/internal/model"
	"medication-agent/internal/platform/qdrant"
)

// Embedder turns chunk text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is the slice of the vector store the pipeline writes to.
type VectorIndex interface {
	EnsureCollection(ctx context.Context, dimension int, recreate bool) error
	UpsertPoints(ctx context.Context, points []qdrant.Point) error
	DeletePoints(ctx context.Context, ids []string) error
}

type ProductStore interface {
	Upsert(ctx context.Context, product *model.Product) error
}

type AliasStore interface {
	Insert(ctx context.Context, alias, itemSeq string) error
	ListByItemSeq(ctx context.Context, itemSeq string) ([]string, error)
}

type IngredientStore interface {
	InsertAll(ctx context.Context, itemSeq string, ingredients []string) error
	ListByItemSeq(ctx context.Context, itemSeq string) ([]string, error)
}

type SectionStore interface {
	UpsertChunks(ctx context.Context, itemSeq, section string, texts []string) error
	Count(ctx context.Context, itemSeq, section string) (int, error)
	DeleteTail(ctx context.Context, itemSeq, section string, fromIdx int) error
}

// EnumCache is invalidated after a run so the alias/ingredient pickers see
// the new data before their TTL expires.
type EnumCache interface {
	Invalidate(ctx context.Context) error
}

// RecordError reports one failed source record in a batch report.
type RecordError struct {
	ItemSeq string `json:"item_seq"`
	Alias   string `json:"alias,omitempty"`
	Reason  string `json:"reason"`
}

// Report is the outcome of one batch run.
type Report struct {
	Processed int           `json:"processed_count"`
	Errors    []RecordError `json:"errors"`
}

// Options tune the pipeline; zero values pick the defaults.
type Options struct {
	VectorDim          int
	MaxChunkLen        int
	Workers            int
	RecreateCollection bool
}

const (
	defaultVectorDim = 1536
	defaultWorkers   = 4
)

// Pipeline converts raw label records into relational rows plus embedding
// points. Records are processed concurrently across items; all records of one
// item run serially so its alias/ingredient accumulation never interleaves.
type Pipeline struct {
	products    ProductStore
	aliases     AliasStore
	ingredients IngredientStore
	sections    SectionStore
	embedder    Embedder
	index       VectorIndex
	enumCache   EnumCache

	vectorDim   int
	maxChunkLen int
	workers     int
	recreate    bool
}

func NewPipeline(
	products ProductStore,
	aliases AliasStore,
	ingredients IngredientStore,
	sections SectionStore,
	embedder Embedder,
	index VectorIndex,
	opts Options,
) *Pipeline {
	if opts.VectorDim <= 0 {
		opts.VectorDim = defaultVectorDim
	}
	if opts.MaxChunkLen <= 0 {
		opts.MaxChunkLen = label.DefaultMaxChunkLen
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Pipeline{
		products:    products,
		aliases:     aliases,
		ingredients: ingredients,
		sections:    sections,
		embedder:    embedder,
		index:       index,
		vectorDim:   opts.VectorDim,
		maxChunkLen: opts.MaxChunkLen,
		workers:     opts.Workers,
		recreate:    opts.RecreateCollection,
	}
}

// SetEnumCache attaches an optional enumeration cache to invalidate after runs.
func (p *Pipeline) SetEnumCache(cache EnumCache) {
	p.enumCache = cache
}

// sectionFields binds each source label field to its record accessor. The
// seven entries are the closed section enumeration; everything else in the
// record carries no label text.
var sectionFields = []struct {
	field string
	text  func(*Record) string
}{
	{"efcyQesitm", func(r *Record) string { return r.EfcyQesitm }},
	{"useMethodQesitm", func(r *Record) string { return r.UseMethodQesitm }},
	{"atpnWarnQesitm", func(r *Record) string { return r.AtpnWarnQesitm }},
	{"atpnQesitm", func(r *Record) string { return r.AtpnQesitm }},
	{"intrcQesitm", func(r *Record) string { return r.IntrcQesitm }},
	{"seQesitm", func(r *Record) string { return r.SeQesitm }},
	{"depositMethodQesitm", func(r *Record) string { return r.DepositMethodQesitm }},
}

// Run ingests the batch. A failing record is logged, reported, and skipped;
// only collection bootstrap failure or context cancellation aborts the run.
func (p *Pipeline) Run(ctx context.Context, batch Batch) (*Report, error) {
	if err := p.index.EnsureCollection(ctx, p.vectorDim, p.recreate); err != nil {
		return nil, fmt.Errorf("bootstrap collection failed: %w", err)
	}

	type task struct {
		alias  string
		record Record
	}
	report := &Report{}
	groups := make(map[string][]task)
	var order []string
	for alias, records := range batch {
		for _, record := range records {
			if record.ItemSeq == "" {
				log.Printf("ingest: skipping record under alias %q: missing itemSeq", alias)
				report.Errors = append(report.Errors, RecordError{Alias: alias, Reason: "missing itemSeq"})
				continue
			}
			if _, ok := groups[record.ItemSeq]; !ok {
				order = append(order, record.ItemSeq)
			}
			groups[record.ItemSeq] = append(groups[record.ItemSeq], task{alias: alias, record: record})
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, itemSeq := range order {
		tasks := groups[itemSeq]
		g.Go(func() error {
			for _, t := range tasks {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := p.processRecord(gctx, t.alias, t.record); err != nil {
					log.Printf("ingest: record %s (alias %q) failed: %v", t.record.ItemSeq, t.alias, err)
					mu.Lock()
					report.Errors = append(report.Errors, RecordError{
						ItemSeq: t.record.ItemSeq,
						Alias:   t.alias,
						Reason:  err.Error(),
					})
					mu.Unlock()
					continue
				}
				mu.Lock()
				report.Processed++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	if p.enumCache != nil {
		if err := p.enumCache.Invalidate(ctx); err != nil {
			log.Printf("ingest: invalidate enumeration cache failed: %v", err)
		}
	}
	return report, nil
}

func (p *Pipeline) processRecord(ctx context.Context, alias string, record Record) error {
	product := &model.Product{
		ItemSeq:   record.ItemSeq,
		EntpName:  record.EntpName,
		ItemName:  record.ItemName,
		ItemImage: record.ItemImage,
		Bizrno:    record.Bizrno,
		OpenDe:    clipDate(record.OpenDe),
		UpdateDe:  clipDate(record.UpdateDe),
		RawJSON:   record.Raw(),
	}
	if err := p.products.Upsert(ctx, product); err != nil {
		return err
	}
	if err := p.aliases.Insert(ctx, alias, record.ItemSeq); err != nil {
		return err
	}
	if err := p.ingredients.InsertAll(ctx, record.ItemSeq, label.ExtractIngredients(record.ItemName)); err != nil {
		return err
	}

	// Read back the full sets so every point payload carries the accumulated
	// aliases/ingredients for the item, not just this pass's alias.
	aliasSet, err := p.aliases.ListByItemSeq(ctx, record.ItemSeq)
	if err != nil {
		return err
	}
	ingredientSet, err := p.ingredients.ListByItemSeq(ctx, record.ItemSeq)
	if err != nil {
		return err
	}

	for _, f := range sectionFields {
		section, ok := label.SectionFromSourceField(f.field)
		if !ok {
			continue
		}
		text := strings.TrimSpace(f.text(&record))
		if text == "" {
			continue
		}
		if err := p.ingestSection(ctx, record, section, text, aliasSet, ingredientSet); err != nil {
			return fmt.Errorf("section %s: %w", section, err)
		}
	}
	return nil
}

func (p *Pipeline) ingestSection(
	ctx context.Context,
	record Record,
	section label.Section,
	text string,
	aliasSet, ingredientSet []string,
) error {
	prevCount, err := p.sections.Count(ctx, record.ItemSeq, section.String())
	if err != nil {
		return err
	}

	parts := label.SplitText(text, p.maxChunkLen)
	if err := p.sections.UpsertChunks(ctx, record.ItemSeq, section.String(), parts); err != nil {
		return err
	}

	points := make([]qdrant.Point, 0, len(parts))
	for idx, part := range parts {
		vector, err := p.embedder.Embed(ctx, part)
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", idx, err)
		}
		points = append(points, qdrant.Point{
			ID:     PointID(record.ItemSeq, section.String(), idx),
			Vector: vector,
			Payload: model.ChunkPayload{
				ItemSeq:     record.ItemSeq,
				Section:     section.String(),
				PartIdx:     idx,
				EntpName:    record.EntpName,
				ItemName:    record.ItemName,
				Aliases:     aliasSet,
				Ingredients: ingredientSet,
				IsOTC:       true, // the source dataset covers OTC products only
				UpdateDe:    clipDate(record.UpdateDe),
				Text:        part,
			},
		})
	}
	if err := p.index.UpsertPoints(ctx, points); err != nil {
		return err
	}

	// A shorter re-ingest leaves stale chunks past the new count; drop them
	// from both stores.
	if prevCount > len(parts) {
		if err := p.sections.DeleteTail(ctx, record.ItemSeq, section.String(), len(parts)); err != nil {
			return err
		}
		staleIDs := make([]string, 0, prevCount-len(parts))
		for idx := len(parts); idx < prevCount; idx++ {
			staleIDs = append(staleIDs, PointID(record.ItemSeq, section.String(), idx))
		}
		if err := p.index.DeletePoints(ctx, staleIDs); err != nil {
			return err
		}
	}
	return nil
}
