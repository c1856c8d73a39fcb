package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lueurxax/extraction-engine/ai"
	"github.com/lueurxax/extraction-engine/model"
	"github.com/lueurxax/extraction-engine/recall"
	"github.com/lueurxax/extraction-engine/store"
)

const (
	extractMaxRetries     = 2
	maxPageContentChars   = 6_000
	minRecallHitsNoExpand = 3
)

// Extractor turns a recall pool into evidence-grounded Extractions: classify
// the query, optionally expand it, recall candidate summaries, partition
// them into distinct items, and extract each partition independently.
type Extractor struct {
	client    ai.Client
	store     store.PageStore
	cfg       Config
	recallCfg recall.Config
}

// New constructs an Extractor.
func New(client ai.Client, s store.PageStore, cfg Config, recallCfg recall.Config) *Extractor {
	return &Extractor{client: client, store: s, cfg: cfg, recallCfg: recallCfg}
}

// Extract runs the full pipeline for query, returning one Extraction per
// partition: Singular queries return exactly one (or the empty-recall
// sentinel); Collection and Narrative queries go through partitioning and
// may return several.
func (e *Extractor) Extract(ctx context.Context, query string, filter model.QueryFilter, hints []string) ([]model.Extraction, error) {
	classification, err := Classify(ctx, e.client, query)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	summaries, err := e.store.GetSummaries(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("extract: get summaries: %w", err)
	}

	if len(summaries) == 0 {
		return []model.Extraction{model.EmptyExtraction()}, nil
	}

	recalled, err := e.recall(ctx, query, summaries)
	if err != nil {
		return nil, fmt.Errorf("extract: recall: %w", err)
	}

	if len(recalled) == 0 {
		return []model.Extraction{model.EmptyExtraction()}, nil
	}

	partitions, err := e.partitions(ctx, classification.Strategy, query, recalled)
	if err != nil {
		return nil, fmt.Errorf("extract: partition: %w", err)
	}

	extractions := make([]model.Extraction, 0, len(partitions))

	for _, part := range partitions {
		select {
		case <-ctx.Done():
			return extractions, fmt.Errorf("extract: %w", ctx.Err())
		default:
		}

		ext, err := e.extractPartition(ctx, classification.Strategy, query, part.URLs, hints)
		if err != nil {
			continue
		}

		extractions = append(extractions, ext)
	}

	if len(extractions) == 0 {
		return []model.Extraction{model.EmptyExtraction()}, nil
	}

	return extractions, nil
}

// recall runs hybrid recall over summaries, expanding the query with related
// terms and re-ranking if the initial pass comes back too thin to trust.
func (e *Extractor) recall(ctx context.Context, query string, summaries []model.Summary) ([]model.Summary, error) {
	embedding, err := e.client.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	recalled := recall.HybridRecall(query, embedding.Vector, summaries, e.recallCfg)
	if len(recalled) >= minRecallHitsNoExpand {
		return recalled, nil
	}

	terms, err := ExpandQuery(ctx, e.client, query)
	if err != nil || len(terms) == 0 {
		return recalled, nil
	}

	expandedQuery := query + " " + strings.Join(terms, " ")

	semanticWeight, keywordWeight := recall.CalculateWeights(query, e.recallCfg)
	semantic := recall.RankByEmbedding(embedding.Vector, summaries, e.recallCfg.Limit*2)
	keyword := recall.RankByKeyword(expandedQuery, summaries, e.recallCfg.Limit*2)

	return recall.HybridRank(semantic, keyword, semanticWeight, keywordWeight, e.recallCfg.Limit), nil
}

// partitions groups recalled summaries into the items Collection/Narrative
// strategies extract one by one. Singular strategy never partitions: the
// whole recall set is the sole item.
func (e *Extractor) partitions(ctx context.Context, strategy model.QueryStrategy, query string, recalled []model.Summary) ([]model.Partition, error) {
	if strategy == model.StrategySingular {
		return []model.Partition{singlePartition(recalled)}, nil
	}

	parts, err := Partition(ctx, e.client, query, recalled)
	if err != nil || len(parts) == 0 {
		return []model.Partition{singlePartition(recalled)}, nil
	}

	return parts, nil
}

func singlePartition(summaries []model.Summary) model.Partition {
	urls := make([]string, 0, len(summaries))
	for _, s := range summaries {
		urls = append(urls, s.URL)
	}

	return model.Partition{Title: "all", URLs: urls}
}

// extractPartition retrieves the cached pages backing urls and dispatches to
// the strategy-specific extraction prompt.
func (e *Extractor) extractPartition(ctx context.Context, strategy model.QueryStrategy, query string, urls []string, hints []string) (model.Extraction, error) {
	pages, err := e.store.GetPages(ctx, urls)
	if err != nil {
		return model.Extraction{}, fmt.Errorf("get pages: %w", err)
	}

	if len(pages) == 0 {
		return model.Extraction{}, fmt.Errorf("no pages for partition")
	}

	pairs := make([]summaryPair, 0, len(pages))
	byURL := make(map[string]model.CachedPage, len(pages))

	for _, p := range pages {
		content := p.Content
		if len(content) > maxPageContentChars {
			content = content[:maxPageContentChars]
		}

		pairs = append(pairs, summaryPair{URL: p.URL, Text: content})
		byURL[p.URL] = p
	}

	fetchedAt := time.Now().UTC()
	if len(pages) > 0 {
		fetchedAt = pages[0].FetchedAt
	}

	switch strategy {
	case model.StrategySingular:
		return e.extractSingular(ctx, query, pairs, byURL, fetchedAt)
	case model.StrategyNarrative:
		return e.extractNarrative(ctx, query, pairs, byURL, fetchedAt)
	default:
		return e.extractCollection(ctx, query, pairs, hints, fetchedAt)
	}
}

type evidenceJSON struct {
	Quote     string `json:"quote"`
	SourceURL string `json:"source_url"`
}

type claimJSON struct {
	Statement string         `json:"statement"`
	Evidence  []evidenceJSON `json:"evidence"`
	Grounding string         `json:"grounding"`
}

type conflictClaimJSON struct {
	Statement string `json:"statement"`
	SourceURL string `json:"source_url"`
}

type conflictJSON struct {
	Topic  string              `json:"topic"`
	Claims []conflictClaimJSON `json:"claims"`
}

type gapJSON struct {
	Field string `json:"field"`
	Query string `json:"query"`
}

type collectionResponse struct {
	Content   string         `json:"content"`
	Claims    []claimJSON    `json:"claims"`
	Gaps      []gapJSON      `json:"gaps"`
	Conflicts []conflictJSON `json:"conflicts"`
}

func (e *Extractor) extractCollection(ctx context.Context, query string, pairs []summaryPair, hints []string, fetchedAt time.Time) (model.Extraction, error) {
	raw, err := ai.CompleteJSON(ctx, e.client, "", formatExtractPrompt(query, pairs, hints), extractMaxRetries)
	if err != nil {
		return model.Extraction{}, fmt.Errorf("collection extract: %w", err)
	}

	var parsed collectionResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return model.Extraction{}, fmt.Errorf("collection extract: parse response: %w", err)
	}

	claims := toClaims(parsed.Claims)
	conflicts := toConflicts(parsed.Conflicts)
	conflicts = mergeConflicts(conflicts, DetectConflicts(claims))

	filtered := FilterClaims(claims, e.cfg)
	sources := AggregateSources(filtered, fetchedAt)
	grade := CalculateGrounding(sources, conflicts, filtered, e.cfg)

	return model.Extraction{
		Content:   parsed.Content,
		Claims:    filtered,
		Sources:   sources,
		Gaps:      toGaps(parsed.Gaps),
		Conflicts: conflicts,
		Grade:     grade,
	}, nil
}

type singularSourceJSON struct {
	URL   string `json:"url"`
	Quote string `json:"quote"`
}

type singularResponse struct {
	Content   string             `json:"content"`
	Found     bool               `json:"found"`
	Source    singularSourceJSON `json:"source"`
	Conflicts []conflictJSON     `json:"conflicts"`
}

func (e *Extractor) extractSingular(ctx context.Context, query string, pairs []summaryPair, byURL map[string]model.CachedPage, fetchedAt time.Time) (model.Extraction, error) {
	raw, err := ai.CompleteJSON(ctx, e.client, "", formatExtractSinglePrompt(query, pairs), extractMaxRetries)
	if err != nil {
		return model.Extraction{}, fmt.Errorf("singular extract: %w", err)
	}

	var parsed singularResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return model.Extraction{}, fmt.Errorf("singular extract: parse response: %w", err)
	}

	var (
		claims  []model.Claim
		sources []model.Source
		gaps    []model.Gap
	)

	if parsed.Found && parsed.Source.URL != "" {
		claims = []model.Claim{{
			Statement: parsed.Content,
			Evidence:  []model.Evidence{{Quote: parsed.Source.Quote, SourceURL: parsed.Source.URL}},
			Grounding: model.GroundingDirect,
		}}

		sources = []model.Source{{
			URL:       parsed.Source.URL,
			Title:     byURL[parsed.Source.URL].Title,
			FetchedAt: pageFetchedAt(byURL, parsed.Source.URL, fetchedAt),
			Role:      model.SourceRolePrimary,
			Metadata:  map[string]string{},
		}}
	} else {
		gaps = []model.Gap{{Field: query, Query: query}}
	}

	conflicts := toConflicts(parsed.Conflicts)
	filtered := FilterClaims(claims, e.cfg)
	grade := CalculateGrounding(sources, conflicts, filtered, e.cfg)

	return model.Extraction{
		Content:   parsed.Content,
		Claims:    filtered,
		Sources:   sources,
		Gaps:      gaps,
		Conflicts: conflicts,
		Grade:     grade,
	}, nil
}

type narrativeSourceJSON struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
	Title  string `json:"title"`
}

type narrativeResponse struct {
	Content   string                `json:"content"`
	Sources   []narrativeSourceJSON `json:"sources"`
	KeyPoints []string              `json:"key_points"`
	Conflicts []conflictJSON        `json:"conflicts"`
}

func (e *Extractor) extractNarrative(ctx context.Context, query string, pairs []summaryPair, byURL map[string]model.CachedPage, fetchedAt time.Time) (model.Extraction, error) {
	raw, err := ai.CompleteJSON(ctx, e.client, "", formatExtractNarrativePrompt(query, pairs), extractMaxRetries)
	if err != nil {
		return model.Extraction{}, fmt.Errorf("narrative extract: %w", err)
	}

	var parsed narrativeResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return model.Extraction{}, fmt.Errorf("narrative extract: parse response: %w", err)
	}

	claims := make([]model.Claim, 0, len(parsed.KeyPoints))
	for _, kp := range parsed.KeyPoints {
		claims = append(claims, model.Claim{Statement: kp, Grounding: model.GroundingInferred})
	}

	sources := make([]model.Source, 0, len(parsed.Sources))
	for i, s := range parsed.Sources {
		sources = append(sources, model.Source{
			URL:       s.URL,
			Title:     s.Title,
			FetchedAt: pageFetchedAt(byURL, s.URL, fetchedAt),
			Role:      roleForRank(i),
			Metadata:  map[string]string{},
		})
	}

	conflicts := toConflicts(parsed.Conflicts)
	filtered := FilterClaims(claims, e.cfg)
	grade := CalculateGrounding(sources, conflicts, filtered, e.cfg)

	return model.Extraction{
		Content:   parsed.Content,
		Claims:    filtered,
		Sources:   sources,
		Conflicts: conflicts,
		Grade:     grade,
	}, nil
}

func pageFetchedAt(byURL map[string]model.CachedPage, url string, fallback time.Time) time.Time {
	if p, ok := byURL[url]; ok {
		return p.FetchedAt
	}

	return fallback
}

func toClaims(in []claimJSON) []model.Claim {
	out := make([]model.Claim, 0, len(in))

	for _, c := range in {
		evidence := make([]model.Evidence, 0, len(c.Evidence))
		for _, e := range c.Evidence {
			evidence = append(evidence, model.Evidence{Quote: e.Quote, SourceURL: e.SourceURL})
		}

		out = append(out, model.Claim{
			Statement: c.Statement,
			Evidence:  evidence,
			Grounding: model.Grounding(c.Grounding),
		})
	}

	return out
}

func toGaps(in []gapJSON) []model.Gap {
	out := make([]model.Gap, 0, len(in))
	for _, g := range in {
		out = append(out, model.Gap{Field: g.Field, Query: g.Query})
	}

	return out
}

func toConflicts(in []conflictJSON) []model.Conflict {
	out := make([]model.Conflict, 0, len(in))

	for _, c := range in {
		claims := make([]model.ConflictingClaim, 0, len(c.Claims))
		for _, cc := range c.Claims {
			claims = append(claims, model.ConflictingClaim{Statement: cc.Statement, SourceURL: cc.SourceURL})
		}

		out = append(out, model.Conflict{Topic: c.Topic, Claims: claims})
	}

	return out
}

// mergeConflicts appends conflicts from extra whose topic isn't already
// present in base, supplementing whatever the AI response itself flagged
// with any overlap DetectConflicts catches independently.
func mergeConflicts(base, extra []model.Conflict) []model.Conflict {
	seen := make(map[string]struct{}, len(base))
	for _, c := range base {
		seen[c.Topic] = struct{}{}
	}

	out := base

	for _, c := range extra {
		if _, ok := seen[c.Topic]; ok {
			continue
		}

		out = append(out, c)
		seen[c.Topic] = struct{}{}
	}

	return out
}
