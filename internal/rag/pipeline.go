// Package rag orchestrates the ingest and query flows: extract, chunk, embed
// and index a document into a fresh session, then answer questions against it
// with retrieval-augmented generation.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"docchat/internal/chunker"
	"docchat/internal/ingest"
	"docchat/internal/session"
	"docchat/internal/vectorindex"
	"docchat/provider"
)

// External error kinds. Stage-internal failures are logged but never exposed
// beyond these.
var (
	// ErrIngestionFailed covers every ingest-side failure: unreadable
	// document, empty text, embedding failure, index build failure.
	ErrIngestionFailed = errors.New("cannot process document")
	// ErrSessionNotFound means the caller must re-upload to get a session.
	ErrSessionNotFound = errors.New("session expired or not found")
	// ErrGenerationUnavailable means the session is still valid and the
	// caller may retry the same query.
	ErrGenerationUnavailable = errors.New("answer generation unavailable")
	// ErrEmptyQuery rejects blank query text.
	ErrEmptyQuery = errors.New("query text is empty")
)

const promptFormat = "Context:\n%s\n\nQuestion: %s\nAnswer:"

// Options tune chunking and retrieval.
type Options struct {
	TopK         int
	ChunkSize    int
	ChunkOverlap int
}

// IngestResult is returned to the caller after a successful upload.
type IngestResult struct {
	SessionID string `json:"session_id"`
	Chunks    int    `json:"chunks"`
}

// Pipeline wires the ingestor, provider and session store together.
type Pipeline struct {
	ingestor ingest.Ingestor
	provider provider.Provider
	sessions *session.Store
	opts     Options
	logger   *log.Logger
	metrics  *Metrics
}

func NewPipeline(ingestor ingest.Ingestor, prov provider.Provider, sessions *session.Store, opts Options, logger *log.Logger, metrics *Metrics) *Pipeline {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1000
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = 200
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[RAG] ", log.LstdFlags)
	}
	return &Pipeline{
		ingestor: ingestor,
		provider: prov,
		sessions: sessions,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
	}
}

// Ingest runs extract -> chunk -> embed -> build -> create session. The flow
// is all-or-nothing: no session exists until the index is fully built, and
// any stage failure surfaces as ErrIngestionFailed.
func (p *Pipeline) Ingest(ctx context.Context, data []byte, password string) (IngestResult, error) {
	pages, err := p.ingestor.Extract(data, password)
	if err != nil {
		return p.ingestFailed("extract", err)
	}

	chunks, err := chunker.Split(pages, p.opts.ChunkSize, p.opts.ChunkOverlap)
	if err != nil {
		return p.ingestFailed("chunk", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.provider.CreateEmbedding(ctx, texts)
	if err != nil {
		return p.ingestFailed("embed", err)
	}

	index, err := vectorindex.Build(chunks, vectors)
	if err != nil {
		return p.ingestFailed("index", err)
	}

	id := p.sessions.Create(index)
	p.metrics.ingest("ok")
	p.logger.Printf("ingested document: session=%s pages=%d chunks=%d dim=%d", id, len(pages), len(chunks), index.Dim())
	return IngestResult{SessionID: id, Chunks: len(chunks)}, nil
}

func (p *Pipeline) ingestFailed(stage string, err error) (IngestResult, error) {
	p.metrics.ingest("failed")
	p.logger.Printf("ingest failed at %s stage: %v", stage, err)
	return IngestResult{}, ErrIngestionFailed
}

// Query answers a question against a live session: embed the query, retrieve
// the closest chunks, assemble the prompt and generate an answer.
func (p *Pipeline) Query(ctx context.Context, sessionID, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		p.metrics.query("empty")
		return "", ErrEmptyQuery
	}

	entry, err := p.sessions.Acquire(sessionID)
	if err != nil {
		p.metrics.query("not_found")
		return "", ErrSessionNotFound
	}

	vectors, err := p.provider.CreateEmbedding(ctx, []string{query})
	if err != nil || len(vectors) != 1 {
		p.metrics.query("unavailable")
		p.logger.Printf("query embedding failed: session=%s err=%v", sessionID, err)
		return "", ErrGenerationUnavailable
	}

	hits, err := entry.Index().Search(vectors[0], p.opts.TopK)
	if err != nil {
		p.metrics.query("unavailable")
		p.logger.Printf("search failed: session=%s err=%v", sessionID, err)
		return "", ErrGenerationUnavailable
	}

	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Chunk.Text
	}
	prompt := fmt.Sprintf(promptFormat, strings.Join(parts, "\n\n"), query)

	answer, err := p.provider.Generate(ctx, prompt)
	if err != nil {
		p.metrics.query("unavailable")
		p.logger.Printf("generation failed: session=%s err=%v", sessionID, err)
		return "", ErrGenerationUnavailable
	}

	p.metrics.query("ok")
	return answer, nil
}
