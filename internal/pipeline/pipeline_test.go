package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/54b3r/ragbridge/internal/rag"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	texts  []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeSearcher struct {
	docs   []rag.Document
	vector []float32
}

func (f *fakeSearcher) Search(_ context.Context, vector []float32) ([]rag.Document, error) {
	f.vector = vector
	return f.docs, nil
}

type fakeGenerator struct {
	answer string
	err    error
	query  string
	docs   []rag.Document
}

func (f *fakeGenerator) Generate(_ context.Context, query string, docs []rag.Document) (string, error) {
	f.query = query
	f.docs = docs
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeExtractor struct {
	raws []rag.RawRecord
	err  error
}

func (f *fakeExtractor) Extract(_ context.Context) ([]rag.RawRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.raws, nil
}

type fakeUpserter struct {
	records []rag.Record
	written int
	err     error
	calls   int
}

func (f *fakeUpserter) Upsert(_ context.Context, records []rag.Record) (int, error) {
	f.calls++
	f.records = records
	if f.err != nil {
		return 0, f.err
	}
	return f.written, nil
}

func TestNewQueryPipelineRejectsNilStages(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{}
	searcher := &fakeSearcher{}
	generator := &fakeGenerator{}

	if _, err := NewQueryPipeline(nil, searcher, generator); err == nil {
		t.Fatal("expected error for nil embedder")
	}
	if _, err := NewQueryPipeline(embedder, nil, generator); err == nil {
		t.Fatal("expected error for nil searcher")
	}
	if _, err := NewQueryPipeline(embedder, searcher, nil); err == nil {
		t.Fatal("expected error for nil generator")
	}
	if _, err := NewQueryPipeline(embedder, searcher, generator); err != nil {
		t.Fatalf("NewQueryPipeline: %v", err)
	}
}

func TestQueryPipelineRun(t *testing.T) {
	t.Parallel()

	docs := []rag.Document{
		{Title: "Sample Document 1", Content: "first", Score: 0.95},
		{Title: "Sample Document 2", Content: "second", Score: 0.87},
	}
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	searcher := &fakeSearcher{docs: docs}
	generator := &fakeGenerator{answer: "the answer"}

	p := &QueryPipeline{Embedder: embedder, Searcher: searcher, Generator: generator}
	result, err := p.Run(context.Background(), "what is this?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Response != "the answer" {
		t.Errorf("response = %q, want %q", result.Response, "the answer")
	}
	if len(result.Sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(result.Sources))
	}
	if result.Sources[0].Score < result.Sources[1].Score {
		t.Error("source order not preserved from search")
	}
	if result.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}

	if len(searcher.vector) != 2 {
		t.Error("searcher did not receive the query vector")
	}
	if generator.query != "what is this?" {
		t.Errorf("generator received query %q", generator.query)
	}
	if len(generator.docs) != 2 || generator.docs[0].Title != "Sample Document 1" {
		t.Error("generator did not receive the retrieved documents in order")
	}
}

func TestQueryPipelineEmbeddingFailureAborts(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{docs: []rag.Document{{Title: "unused"}}}
	generator := &fakeGenerator{answer: "unused"}
	p := &QueryPipeline{
		Embedder:  &fakeEmbedder{err: rag.ErrEmbeddingFailed},
		Searcher:  searcher,
		Generator: generator,
	}

	_, err := p.Run(context.Background(), "q")
	if !errors.Is(err, rag.ErrEmbeddingFailed) {
		t.Fatalf("err = %v, want ErrEmbeddingFailed", err)
	}
	if searcher.vector != nil {
		t.Error("search ran after embedding failed")
	}
	if generator.query != "" {
		t.Error("generation ran after embedding failed")
	}
}

func TestQueryPipelineGenerationFailure(t *testing.T) {
	t.Parallel()

	p := &QueryPipeline{
		Embedder:  &fakeEmbedder{vector: []float32{1}},
		Searcher:  &fakeSearcher{},
		Generator: &fakeGenerator{err: rag.ErrGenerationFailed},
	}

	_, err := p.Run(context.Background(), "q")
	if !errors.Is(err, rag.ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
}

func TestIngestPipelineRun(t *testing.T) {
	t.Parallel()

	raws := []rag.RawRecord{
		{"name": "alice", "age": float64(30)},
		{"name": "bob", "age": float64(25)},
		{"name": "carol", "age": float64(41)},
	}
	embedder := &fakeEmbedder{vector: []float32{0.5}}
	upserter := &fakeUpserter{written: 3}

	p := &IngestPipeline{
		Extractor: &fakeExtractor{raws: raws},
		Embedder:  embedder,
		Upserter:  upserter,
	}
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.Success {
		t.Error("expected Success")
	}
	if result.DocumentsProcessed != 3 || result.VectorsCreated != 3 {
		t.Errorf("counts = %d/%d, want 3/3", result.DocumentsProcessed, result.VectorsCreated)
	}
	if len(embedder.texts) != 3 {
		t.Fatalf("embedder called %d times, want 3", len(embedder.texts))
	}
	if !strings.Contains(embedder.texts[0], `"alice"`) {
		t.Errorf("record text not serialized as JSON: %q", embedder.texts[0])
	}

	if upserter.calls != 1 {
		t.Fatalf("upsert called %d times, want 1", upserter.calls)
	}
	for i, rec := range upserter.records {
		wantID := []string{"doc_0", "doc_1", "doc_2"}[i]
		if rec.ID != wantID {
			t.Errorf("record %d id = %q, want %q", i, rec.ID, wantID)
		}
		if rec.Metadata["source"] != "ingestion" {
			t.Errorf("record %d metadata source = %v", i, rec.Metadata["source"])
		}
		if rec.Metadata["doc_index"] != i {
			t.Errorf("record %d metadata doc_index = %v", i, rec.Metadata["doc_index"])
		}
		if rec.Metadata["content_preview"] == "" {
			t.Errorf("record %d missing content preview", i)
		}
	}
}

func TestIngestPipelineNoRecords(t *testing.T) {
	t.Parallel()

	upserter := &fakeUpserter{}
	p := &IngestPipeline{
		Extractor: &fakeExtractor{},
		Embedder:  &fakeEmbedder{vector: []float32{1}},
		Upserter:  upserter,
	}

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Success {
		t.Error("expected Success=false for empty extraction")
	}
	if result.DocumentsProcessed != 0 || result.VectorsCreated != 0 {
		t.Errorf("counts = %d/%d, want 0/0", result.DocumentsProcessed, result.VectorsCreated)
	}
	if upserter.calls != 0 {
		t.Error("upsert ran for an empty extraction")
	}
}

func TestIngestPipelineExtractionFailure(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{vector: []float32{1}}
	p := &IngestPipeline{
		Extractor: &fakeExtractor{err: rag.ErrExtractionFailed},
		Embedder:  embedder,
		Upserter:  &fakeUpserter{},
	}

	_, err := p.Run(context.Background())
	if !errors.Is(err, rag.ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}
	if len(embedder.texts) != 0 {
		t.Error("embedding ran after extraction failed")
	}
}

func TestIngestPipelineEmbeddingFailureAbortsBeforeWrite(t *testing.T) {
	t.Parallel()

	upserter := &fakeUpserter{}
	p := &IngestPipeline{
		Extractor: &fakeExtractor{raws: []rag.RawRecord{{"id": "1"}}},
		Embedder:  &fakeEmbedder{err: rag.ErrEmbeddingFailed},
		Upserter:  upserter,
	}

	_, err := p.Run(context.Background())
	if !errors.Is(err, rag.ErrEmbeddingFailed) {
		t.Fatalf("err = %v, want ErrEmbeddingFailed", err)
	}
	if upserter.calls != 0 {
		t.Error("upsert ran after an embedding failure")
	}
}

func TestContentPreviewTruncates(t *testing.T) {
	t.Parallel()

	short := "short text"
	if got := contentPreview(short); got != short {
		t.Errorf("contentPreview(short) = %q", got)
	}

	long := strings.Repeat("x", 500)
	got := contentPreview(long)
	if len(got) != contentPreviewLimit+3 {
		t.Errorf("preview length = %d, want %d", len(got), contentPreviewLimit+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("truncated preview missing ellipsis")
	}
}
