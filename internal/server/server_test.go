package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hoybrett99/StudyBuddy/internal/agent"
	"github.com/hoybrett99/StudyBuddy/internal/config"
	"github.com/hoybrett99/StudyBuddy/internal/db"
	"github.com/hoybrett99/StudyBuddy/internal/embeddings"
	"github.com/hoybrett99/StudyBuddy/internal/ingest"
	"github.com/hoybrett99/StudyBuddy/internal/llm"
	"github.com/hoybrett99/StudyBuddy/internal/rag"
	"github.com/hoybrett99/StudyBuddy/internal/vectordb"
)

type mockEmbedder struct {
	dims int
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, m.dims)
		for j, ch := range text {
			vec[(int(ch)+j)%m.dims] += 1.0
		}
		results[i] = vec
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

type mockProvider struct {
	response string
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: m.response}, nil
}

func (m *mockProvider) CompleteWithTools(_ context.Context, _ llm.ToolRequest) (*llm.ToolResponse, error) {
	return &llm.ToolResponse{Text: m.response, StopReason: "end_turn"}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.UploadDir = t.TempDir()
	cfg.ChunkSize = 200
	cfg.ChunkOverlap = 40
	return newTestServerWithConfig(t, cfg)
}

func newTestServerWithConfig(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	embedder := &mockEmbedder{dims: 32}
	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	registry, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { registry.Close() })

	svc := embeddings.NewService(embedder)
	provider := &mockProvider{response: "the answer"}
	answerer := rag.NewAnswerer(svc, store, provider, rag.Options{})
	orchestrator := agent.NewOrchestrator(provider, answerer, "test-model")
	pipeline := ingest.NewPipeline(cfg, svc, store, registry)

	return New(cfg, pipeline, answerer, orchestrator, store, registry)
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func uploadFile(t *testing.T, srv *Server, filename, content string) uploadResponse {
	t.Helper()
	body, contentType := multipartBody(t, "file", filename, content)
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp uploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal upload response: %v", err)
	}
	return resp
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestUploadAndAsk(t *testing.T) {
	srv := newTestServer(t)

	up := uploadFile(t, srv, "notes.txt", strings.Repeat("Mitochondria produce ATP for the cell. ", 15))
	if !up.Success || up.ChunksCreated == 0 || up.DocumentID == "" {
		t.Fatalf("unexpected upload response: %+v", up)
	}

	askBody, _ := json.Marshal(askRequest{Question: "What produces ATP?"})
	req := httptest.NewRequest("POST", "/ask", bytes.NewReader(askBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("ask: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp askResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal ask response: %v", err)
	}
	if resp.Answer != "the answer" {
		t.Errorf("unexpected answer: %q", resp.Answer)
	}
	if len(resp.Sources) == 0 {
		t.Error("expected sources in ask response")
	}
}

func TestAskValidationError(t *testing.T) {
	srv := newTestServer(t)

	askBody, _ := json.Marshal(askRequest{Question: "   "})
	req := httptest.NewRequest("POST", "/ask", bytes.NewReader(askBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank question, got %d", w.Code)
	}
}

func TestAskWithNoDocuments(t *testing.T) {
	srv := newTestServer(t)

	askBody, _ := json.Marshal(askRequest{Question: "anything?"})
	req := httptest.NewRequest("POST", "/ask", bytes.NewReader(askBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty store, got %d", w.Code)
	}
	var resp askResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Sources) != 0 {
		t.Error("expected no sources from empty store")
	}
	if resp.Answer == "the answer" {
		t.Error("model must not be invoked when retrieval is empty")
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, "file", "deck.pptx", "content")
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported type, got %d", w.Code)
	}
}

func TestUploadRequiresFileField(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, "wrong_field", "notes.txt", "content")
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing file field, got %d", w.Code)
	}
}

func TestAgentAsk(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(agentAskRequest{Question: "hello"})
	req := httptest.NewRequest("POST", "/agent/ask", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("agent ask: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp agentAskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Answer != "the answer" {
		t.Errorf("unexpected answer: %q", resp.Answer)
	}
	if resp.ToolCallCount != 0 {
		t.Errorf("mock planner calls no tools, got %d", resp.ToolCallCount)
	}
}

func TestPreview(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, "file", "notes.txt", "line one\nline two with words\n")
	req := httptest.NewRequest("POST", "/preview", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("preview: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var stats map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if stats["chars"] == nil || stats["words"] == nil {
		t.Errorf("missing extraction stats: %v", stats)
	}
}

func TestPreviewUppercaseExtension(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, "file", "NOTES.TXT", "line one\nline two with words\n")
	req := httptest.NewRequest("POST", "/preview", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("preview: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStatsAndQueryCounter(t *testing.T) {
	srv := newTestServer(t)

	uploadFile(t, srv, "notes.txt", strings.Repeat("Study material about cells. ", 15))

	askBody, _ := json.Marshal(askRequest{Question: "What is a cell?"})
	req := httptest.NewRequest("POST", "/ask", bytes.NewReader(askBody))
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest("GET", "/stats", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", w.Code)
	}
	var stats statsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if stats.TotalDocuments != 1 {
		t.Errorf("total_documents: got %d, want 1", stats.TotalDocuments)
	}
	if stats.TotalChunks == 0 {
		t.Error("expected nonzero total_chunks")
	}
	if stats.TotalQueries != 1 {
		t.Errorf("total_queries: got %d, want 1", stats.TotalQueries)
	}
}

func TestListAndDeleteDocuments(t *testing.T) {
	srv := newTestServer(t)

	up := uploadFile(t, srv, "notes.txt", strings.Repeat("Material to delete later. ", 15))

	req := httptest.NewRequest("GET", "/documents/", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var docs []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &docs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}

	req = httptest.NewRequest("DELETE", "/documents/"+up.DocumentID, nil)
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d: %s", w.Code, w.Body.String())
	}

	// Deleting again is a 404.
	req = httptest.NewRequest("DELETE", "/documents/"+up.DocumentID, nil)
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", w.Code)
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}
