package rag

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"docchat/internal/ingest"
	"docchat/internal/session"
)

type stubIngestor struct {
	pages []ingest.Page
	err   error
}

func (s *stubIngestor) Extract(data []byte, password string) ([]ingest.Page, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pages, nil
}

// stubProvider embeds texts into a keyword-count space so retrieval order is
// predictable, and records the prompt passed to Generate.
type stubProvider struct {
	embedErr    error
	generateErr error
	answer      string
	lastPrompt  string
}

func (s *stubProvider) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		vecs[i] = []float32{
			float32(strings.Count(lower, "apollo")),
			float32(strings.Count(lower, "banana")),
			1,
		}
	}
	return vecs, nil
}

func (s *stubProvider) Generate(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.generateErr != nil {
		return "", s.generateErr
	}
	return s.answer, nil
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func newTestPipeline(ing ingest.Ingestor, prov *stubProvider, store *session.Store, opts Options) *Pipeline {
	return NewPipeline(ing, prov, store, opts, quietLogger(), nil)
}

func TestPipeline_RoundTrip(t *testing.T) {
	ing := &stubIngestor{pages: []ingest.Page{
		{Text: "Apollo launched in 1969.", Index: 0},
		{Text: "Bananas are yellow and sweet.", Index: 1},
	}}
	prov := &stubProvider{answer: "In 1969."}
	store := session.NewStore()
	p := newTestPipeline(ing, prov, store, Options{TopK: 1, ChunkSize: 30, ChunkOverlap: 1})

	result, err := p.Ingest(context.Background(), []byte("raw"), "")
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if result.SessionID == "" {
		t.Fatal("no session id returned")
	}
	if result.Chunks < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", result.Chunks)
	}
	if store.Len() != 1 {
		t.Fatalf("store should hold 1 session, got %d", store.Len())
	}

	answer, err := p.Query(context.Background(), result.SessionID, "When did Apollo launch?")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if answer != "In 1969." {
		t.Errorf("unexpected answer: %q", answer)
	}
	if !strings.Contains(prov.lastPrompt, "Apollo launched in 1969.") {
		t.Errorf("prompt should contain the source chunk, got:\n%s", prov.lastPrompt)
	}
	if !strings.HasPrefix(prov.lastPrompt, "Context:\n") {
		t.Errorf("prompt missing context header:\n%s", prov.lastPrompt)
	}
	if !strings.Contains(prov.lastPrompt, "\n\nQuestion: When did Apollo launch?\nAnswer:") {
		t.Errorf("prompt missing question/answer tail:\n%s", prov.lastPrompt)
	}
}

func TestPipeline_EmptyPayload(t *testing.T) {
	store := session.NewStore()
	p := newTestPipeline(ingest.NewAutoDetect(), &stubProvider{}, store, Options{})

	_, err := p.Ingest(context.Background(), nil, "")
	if !errors.Is(err, ErrIngestionFailed) {
		t.Fatalf("expected ErrIngestionFailed, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("no session should exist after failed ingest, got %d", store.Len())
	}
}

func TestPipeline_EmbedFailureDuringIngest(t *testing.T) {
	ing := &stubIngestor{pages: []ingest.Page{{Text: "some text", Index: 0}}}
	prov := &stubProvider{embedErr: errors.New("model offline")}
	store := session.NewStore()
	p := newTestPipeline(ing, prov, store, Options{})

	_, err := p.Ingest(context.Background(), []byte("raw"), "")
	if !errors.Is(err, ErrIngestionFailed) {
		t.Fatalf("expected ErrIngestionFailed, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("embedding failure must not leave a partial session, got %d", store.Len())
	}
}

func TestPipeline_UnknownSession(t *testing.T) {
	store := session.NewStore()
	p := newTestPipeline(&stubIngestor{}, &stubProvider{}, store, Options{})

	_, err := p.Query(context.Background(), uuid.NewString(), "anything")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestPipeline_EmptyQuery(t *testing.T) {
	store := session.NewStore()
	p := newTestPipeline(&stubIngestor{}, &stubProvider{}, store, Options{})

	if _, err := p.Query(context.Background(), "whatever", "   "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestPipeline_GeneratorFailureKeepsSession(t *testing.T) {
	ing := &stubIngestor{pages: []ingest.Page{{Text: "Apollo launched in 1969.", Index: 0}}}
	prov := &stubProvider{generateErr: errors.New("generator down"), answer: "ok"}
	store := session.NewStore()
	p := newTestPipeline(ing, prov, store, Options{})

	result, err := p.Ingest(context.Background(), []byte("raw"), "")
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	_, err = p.Query(context.Background(), result.SessionID, "When?")
	if !errors.Is(err, ErrGenerationUnavailable) {
		t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("session should survive generator failure, got %d", store.Len())
	}

	// Caller may retry the same query against the same session.
	prov.generateErr = nil
	if _, err := p.Query(context.Background(), result.SessionID, "When?"); err != nil {
		t.Errorf("retry after generator recovery failed: %v", err)
	}
}

func TestPipeline_QueryAfterTTLReap(t *testing.T) {
	clock := time.Unix(1000, 0)
	store := session.NewStoreWithClock(func() time.Time { return clock })
	ttl := 300 * time.Second

	ing := &stubIngestor{pages: []ingest.Page{{Text: "Apollo launched in 1969.", Index: 0}}}
	prov := &stubProvider{answer: "ok"}
	p := newTestPipeline(ing, prov, store, Options{})

	result, err := p.Ingest(context.Background(), []byte("raw"), "")
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	// First query refreshes the idle clock.
	clock = clock.Add(100 * time.Second)
	if _, err := p.Query(context.Background(), result.SessionID, "When?"); err != nil {
		t.Fatalf("first query failed: %v", err)
	}

	// Idle for TTL+1: the reaper run in between removes the session.
	clock = clock.Add(ttl + time.Second)
	if n := store.Reap(ttl); n != 1 {
		t.Fatalf("expected reap to evict 1 session, got %d", n)
	}
	if _, err := p.Query(context.Background(), result.SessionID, "When?"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after reap, got %v", err)
	}
}

func TestPipeline_MetricsRegistration(t *testing.T) {
	store := session.NewStore()
	metrics := NewMetrics(prometheus.NewRegistry(), func() float64 { return float64(store.Len()) })
	ing := &stubIngestor{pages: []ingest.Page{{Text: "some text", Index: 0}}}
	p := NewPipeline(ing, &stubProvider{answer: "ok"}, store, Options{}, quietLogger(), metrics)

	if _, err := p.Ingest(context.Background(), []byte("raw"), ""); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
}
