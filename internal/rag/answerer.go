package rag

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hoybrett99/StudyBuddy/internal/embeddings"
	"github.com/hoybrett99/StudyBuddy/internal/llm"
	"github.com/hoybrett99/StudyBuddy/internal/vectordb"
)

// Source is one ranked citation backing an answer.
type Source struct {
	DocumentName   string  `json:"document_name"`
	ChunkID        string  `json:"chunk_id"`
	RelevanceScore float64 `json:"relevance_score"`
	ChunkText      string  `json:"chunk_text,omitempty"`
}

// Answer is the result of one grounded question. Token counts are kept
// out of the wire format; the CLI uses them for cost reporting.
type Answer struct {
	Text         string   `json:"answer"`
	Sources      []Source `json:"sources"`
	InputTokens  int      `json:"-"`
	OutputTokens int      `json:"-"`
}

// Options bound question validation and retrieval defaults.
type Options struct {
	Model           string
	DefaultContexts int
	MaxContexts     int
	MaxQuestionLen  int
}

func (o *Options) fillDefaults() {
	if o.DefaultContexts == 0 {
		o.DefaultContexts = 4
	}
	if o.MaxContexts == 0 {
		o.MaxContexts = 10
	}
	if o.MaxQuestionLen == 0 {
		o.MaxQuestionLen = 1000
	}
}

// Answerer runs the retrieval-augmented answering pipeline: embed the
// question, pull the nearest chunks, and ask the language model to answer
// from them.
type Answerer struct {
	embedder *embeddings.Service
	store    vectordb.Store
	provider llm.Provider
	opts     Options
}

func NewAnswerer(embedder *embeddings.Service, store vectordb.Store, provider llm.Provider, opts Options) *Answerer {
	opts.fillDefaults()
	return &Answerer{
		embedder: embedder,
		store:    store,
		provider: provider,
		opts:     opts,
	}
}

// MaxContexts reports the configured upper bound on retrieved contexts.
func (a *Answerer) MaxContexts() int {
	return a.opts.MaxContexts
}

// ValidateQuestion checks the question and context count without touching
// any backend. numContexts of 0 means "use the default".
func (a *Answerer) ValidateQuestion(question string, numContexts int) (string, int, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", 0, &InvalidQueryError{Field: "question", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(question) > a.opts.MaxQuestionLen {
		return "", 0, &InvalidQueryError{Field: "question", Reason: "exceeds maximum length"}
	}
	if numContexts == 0 {
		numContexts = a.opts.DefaultContexts
	}
	if numContexts < 1 || numContexts > a.opts.MaxContexts {
		return "", 0, &InvalidQueryError{Field: "num_contexts", Reason: "out of range"}
	}
	return question, numContexts, nil
}

// Answer runs the full pipeline for one question. documentIDs, when
// non-empty, restricts retrieval to those documents. Store failures carry
// vectordb.ErrStoreUnavailable and model failures carry
// llm.GenerationError, so callers can map them to distinct statuses.
func (a *Answerer) Answer(ctx context.Context, question string, numContexts int, documentIDs []string) (*Answer, error) {
	question, numContexts, err := a.ValidateQuestion(question, numContexts)
	if err != nil {
		return nil, err
	}

	results, err := a.Retrieve(ctx, question, numContexts, documentIDs)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &Answer{Text: NoInformationAnswer, Sources: []Source{}}, nil
	}

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Model: a.opts.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: answerSystemPrompt},
			{Role: llm.RoleUser, Content: buildAnswerPrompt(question, results)},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Answer{
		Text:         resp.Content,
		Sources:      SourcesFromResults(results),
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}, nil
}

// Retrieve embeds the question and returns the nearest chunks, validated
// but without answer synthesis. Used directly by search tools.
func (a *Answerer) Retrieve(ctx context.Context, question string, numContexts int, documentIDs []string) ([]vectordb.SearchResult, error) {
	vec, err := a.embedder.EmbedOne(ctx, question)
	if err != nil {
		return nil, err
	}
	return a.store.Query(ctx, vec, numContexts, documentIDs)
}

// PracticeQuestions retrieves material on a topic and asks the model to
// write numQuestions practice questions with answers from it.
func (a *Answerer) PracticeQuestions(ctx context.Context, topic string, numQuestions int) (*Answer, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, &InvalidQueryError{Field: "topic", Reason: "must not be empty"}
	}
	if numQuestions <= 0 {
		numQuestions = 5
	}

	results, err := a.Retrieve(ctx, topic, a.opts.MaxContexts, nil)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &Answer{Text: NoInformationAnswer, Sources: []Source{}}, nil
	}

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Model: a.opts.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: practiceSystemPrompt},
			{Role: llm.RoleUser, Content: buildPracticePrompt(topic, numQuestions, results)},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Answer{
		Text:         resp.Content,
		Sources:      SourcesFromResults(results),
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}, nil
}

// SourcesFromResults converts retrieval hits to ranked citations. Scores
// are clamped to [0, 1] and ordering is a stable sort by descending score,
// so ties keep their retrieval order.
func SourcesFromResults(results []vectordb.SearchResult) []Source {
	sources := make([]Source, len(results))
	for i, r := range results {
		sources[i] = Source{
			DocumentName:   r.DocumentName,
			ChunkID:        r.ChunkID,
			RelevanceScore: clampScore(r.Score),
			ChunkText:      r.Text,
		}
	}
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].RelevanceScore > sources[j].RelevanceScore
	})
	return sources
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
