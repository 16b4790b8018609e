package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hoybrett99/StudyBuddy/internal/document"
	"github.com/hoybrett99/StudyBuddy/internal/extract"
	"github.com/hoybrett99/StudyBuddy/internal/ingest"
	"github.com/hoybrett99/StudyBuddy/internal/llm"
	"github.com/hoybrett99/StudyBuddy/internal/rag"
	"github.com/hoybrett99/StudyBuddy/internal/vectordb"
)

type uploadResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Filename      string `json:"filename"`
	ChunksCreated int    `json:"chunks_created"`
	DocumentID    string `json:"document_id"`
}

type askRequest struct {
	Question    string   `json:"question"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	NumContexts int      `json:"num_contexts,omitempty"`
}

type askResponse struct {
	Answer           string       `json:"answer"`
	Sources          []rag.Source `json:"sources"`
	QueryTimeSeconds float64      `json:"query_time_seconds"`
}

type agentAskRequest struct {
	Question string        `json:"question"`
	History  []chatHistory `json:"conversation_history,omitempty"`
}

type chatHistory struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type agentAskResponse struct {
	Answer           string       `json:"answer"`
	Sources          []rag.Source `json:"sources"`
	ToolCallCount    int          `json:"tool_call_count"`
	QueryTimeSeconds float64      `json:"query_time_seconds"`
}

type statsResponse struct {
	TotalDocuments int `json:"total_documents"`
	TotalChunks    int `json:"total_chunks"`
	TotalQueries   int `json:"total_queries"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	filename, content, err := readMultipartFile(w, r, s.cfg.MaxFileSizeBytes())
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.pipeline.Ingest(r.Context(), filename, content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Success:       true,
		Message:       fmt.Sprintf("Processed %s into %d chunks", filename, res.ChunksCreated),
		Filename:      filename,
		ChunksCreated: res.ChunksCreated,
		DocumentID:    res.Document.ID,
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &rag.InvalidQueryError{Field: "body", Reason: "invalid JSON"})
		return
	}

	start := time.Now()
	ans, err := s.answerer.Answer(r.Context(), req.Question, req.NumContexts, req.DocumentIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	s.countQuery(r.Context())

	writeJSON(w, http.StatusOK, askResponse{
		Answer:           ans.Text,
		Sources:          ans.Sources,
		QueryTimeSeconds: time.Since(start).Seconds(),
	})
}

func (s *Server) handleAgentAsk(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		http.Error(w, `{"error":"agent is not configured"}`, http.StatusServiceUnavailable)
		return
	}

	var req agentAskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &rag.InvalidQueryError{Field: "body", Reason: "invalid JSON"})
		return
	}

	var history []llm.Message
	for _, h := range req.History {
		switch h.Role {
		case "user":
			history = append(history, llm.Message{Role: llm.RoleUser, Content: h.Content})
		case "assistant":
			history = append(history, llm.Message{Role: llm.RoleAssistant, Content: h.Content})
		}
	}

	start := time.Now()
	res, err := s.orchestrator.Process(r.Context(), req.Question, history)
	if err != nil {
		writeError(w, err)
		return
	}
	s.countQuery(r.Context())

	writeJSON(w, http.StatusOK, agentAskResponse{
		Answer:           res.Answer,
		Sources:          res.Sources,
		ToolCallCount:    res.ToolCallCount,
		QueryTimeSeconds: time.Since(start).Seconds(),
	})
}

// handlePreview extracts text and reports statistics without chunking or
// embedding anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	filename, content, err := readMultipartFile(w, r, s.cfg.MaxFileSizeBytes())
	if err != nil {
		writeError(w, err)
		return
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	fileType, err := document.ParseFileType(ext)
	if err != nil || !s.cfg.TypeAllowed(ext) {
		writeError(w, fmt.Errorf("%w: .%s", extract.ErrUnsupportedType, ext))
		return
	}

	text, err := extract.New().Extract(content, fileType)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, extract.TextStats(text))
}

// handleStats aggregates store and registry counts. A broken backend
// degrades the numbers to zero instead of failing the request.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{}

	if s.store != nil {
		resp.TotalChunks = s.store.Count()
		resp.TotalDocuments = len(s.store.DocumentIDs())
	}
	if s.registry != nil {
		if n, err := s.registry.CountDocuments(r.Context()); err == nil {
			resp.TotalDocuments = n
		}
		if n, err := s.registry.TotalQueries(r.Context()); err == nil {
			resp.TotalQueries = n
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.registry.ListDocuments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []document.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.registry.GetDocument(r.Context(), id); err != nil {
		http.Error(w, `{"error":"document not found"}`, http.StatusNotFound)
		return
	}

	if err := s.pipeline.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// countQuery bumps the persistent query counter; failures are logged, not
// surfaced, since the answer already succeeded.
func (s *Server) countQuery(ctx context.Context) {
	if s.registry == nil {
		return
	}
	if err := s.registry.IncrementQueries(ctx); err != nil {
		log.Printf("server: query counter: %v", err)
	}
}

// readMultipartFile pulls the "file" part out of a multipart upload.
func readMultipartFile(w http.ResponseWriter, r *http.Request, maxBytes int64) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return "", nil, &rag.InvalidQueryError{Field: "file", Reason: "invalid multipart body"}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, &rag.InvalidQueryError{Field: "file", Reason: "missing file field"}
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("reading upload: %w", err)
	}
	return header.Filename, content, nil
}

// writeError maps component error kinds to HTTP statuses: validation and
// bad-input errors are 4xx, backend failures 5xx.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var iqe *rag.InvalidQueryError
	var extErr *extract.ExtractionError
	var genErr *llm.GenerationError

	switch {
	case errors.As(err, &iqe),
		errors.Is(err, extract.ErrUnsupportedType),
		errors.Is(err, ingest.ErrFileTooLarge),
		errors.Is(err, ingest.ErrEmptyDocument):
		status = http.StatusBadRequest
	case errors.Is(err, vectordb.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	case errors.As(err, &genErr):
		status = http.StatusBadGateway
	case errors.As(err, &extErr):
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encoding response: %v", err)
	}
}
