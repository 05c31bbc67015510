package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
	"github.com/custodia-labs/shelfwise/internal/logger"
)

// charsPerToken is the rough token estimate used for the context budget.
const charsPerToken = 4

// minTopBlockChars is the least document text kept for the top-ranked
// result, however small the context budget. A citable source must have been
// shown to the model.
const minTopBlockChars = 256

// SynthesizerConfig configures answer synthesis.
type SynthesizerConfig struct {
	// MaxContextTokens is the budget for retrieved context. Zero means
	// unlimited. The top-ranked document always keeps at least
	// minTopBlockChars of text, so budgets below about 70 tokens are exceeded.
	MaxContextTokens int

	// MaxAnswerTokens caps the model reply.
	MaxAnswerTokens int

	// Temperature is passed to the model.
	Temperature float64

	// Timeout bounds the model call. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// Synthesizer turns retrieved documents into a grounded answer.
type Synthesizer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	cfg     SynthesizerConfig
}

// NewSynthesizer creates a synthesizer backed by llm.
func NewSynthesizer(llm driven.LLMService, cfg SynthesizerConfig) *Synthesizer {
	return &Synthesizer{llm: llm, cfg: cfg}
}

// SetPromptStore sets the store the answer prompt is loaded from.
// Without one the built-in prompt is used.
func (s *Synthesizer) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Answer asks the model to answer question from retrieved, then validates
// the reply. Citations outside the supplied context are removed and
// reported through Answer.Warning.
func (s *Synthesizer) Answer(ctx context.Context, question string, retrieved []domain.RetrievalResult) (*domain.Answer, error) {
	logger.Section("Answer Synthesis")

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("answer: %w: question is empty", domain.ErrEmptyInput)
	}
	if len(retrieved) == 0 {
		return nil, fmt.Errorf("answer: %w: no retrieved documents to ground on", domain.ErrEmptyInput)
	}

	contextText, used, truncated := s.assembleContext(retrieved)
	logger.Debug("Context: %d of %d documents, ~%d tokens, truncated=%v",
		len(used), len(retrieved), estimateTokens(contextText), truncated)

	prompt := strings.NewReplacer(
		driven.PlaceholderContext, contextText,
		driven.PlaceholderQuestion, question,
	).Replace(s.loadPrompt())

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	done := logger.Timer("model call")
	raw, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   s.cfg.MaxAnswerTokens,
		Temperature: s.cfg.Temperature,
		JSON:        true,
	})
	done()
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("answer: %w: %w", domain.ErrModelTimeout, err)
		}
		return nil, fmt.Errorf("answer: generate: %w", err)
	}

	reply, err := parseModelReply(raw)
	if err != nil {
		logger.Debug("Unparsable model reply: %q", raw)
		return nil, fmt.Errorf("answer: %w", err)
	}

	answer := &domain.Answer{
		Text:             strings.TrimSpace(*reply.Answer),
		Confidence:       reply.Confidence,
		ContextTruncated: truncated,
		Retrieved:        retrieved,
	}

	sources, dropped := groundCitations(*reply.Sources, used)
	answer.Sources = sources
	if len(dropped) > 0 {
		answer.Warning = &domain.UngroundedCitationWarning{Dropped: dropped}
		logger.Warn("Removed citations not in the retrieved context: %s", strings.Join(dropped, ", "))
	}

	return answer, nil
}

func (s *Synthesizer) loadPrompt() string {
	if s.prompts == nil {
		return driven.DefaultAnswerPrompt
	}
	prompt, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return driven.DefaultAnswerPrompt
	}
	return prompt
}

// assembleContext concatenates documents in rank order within the token
// budget. Lower-ranked documents are dropped first. The top-ranked document
// is always included, cut to the budget if it alone exceeds it.
func (s *Synthesizer) assembleContext(retrieved []domain.RetrievalResult) (string, []domain.RetrievalResult, bool) {
	ranked := slices.Clone(retrieved)
	slices.SortStableFunc(ranked, func(a, b domain.RetrievalResult) int {
		return a.Rank - b.Rank
	})

	budget := s.cfg.MaxContextTokens
	var b strings.Builder
	used := make([]domain.RetrievalResult, 0, len(ranked))
	truncated := false

	for i, r := range ranked {
		block := contextBlock(r.Document.SourceID, r.Document.Text)
		if budget > 0 && estimateTokens(b.String()+block) > budget {
			if i > 0 {
				truncated = true
				break
			}
			block = fitBlock(r.Document.SourceID, r.Document.Text, budget*charsPerToken)
			truncated = true
		}
		b.WriteString(block)
		used = append(used, r)
	}

	return strings.TrimRight(b.String(), "\n"), used, truncated
}

func contextBlock(id, text string) string {
	return "[source: " + id + "]\n" + text + "\n\n"
}

// fitBlock cuts text so the whole block fits in maxChars. The source tag is
// always kept along with at least minTopBlockChars of text, which may
// overrun a very small budget.
func fitBlock(id, text string, maxChars int) string {
	room := maxChars - len(contextBlock(id, ""))
	return contextBlock(id, truncateUTF8(text, max(room, minTopBlockChars)))
}

// truncateUTF8 returns the longest prefix of s of at most n bytes that ends
// on a rune boundary.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func estimateTokens(s string) int {
	return (len(s) + charsPerToken - 1) / charsPerToken
}

// modelReply is the JSON object the answer prompt asks for.
// Pointer fields distinguish missing from empty.
type modelReply struct {
	Answer     *string   `json:"answer"`
	Sources    *[]string `json:"sources"`
	Confidence *float64  `json:"confidence"`
}

// parseModelReply validates raw model output. Anything other than a single
// JSON object with an answer and a sources list fails with
// domain.ErrMalformedModelOutput.
func parseModelReply(raw string) (*modelReply, error) {
	text := stripCodeFence(strings.TrimSpace(raw))
	if text == "" {
		return nil, fmt.Errorf("%w: empty reply", domain.ErrMalformedModelOutput)
	}

	dec := json.NewDecoder(strings.NewReader(text))
	var reply modelReply
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedModelOutput, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected content after JSON object", domain.ErrMalformedModelOutput)
	}

	if reply.Answer == nil || strings.TrimSpace(*reply.Answer) == "" {
		return nil, fmt.Errorf("%w: missing answer", domain.ErrMalformedModelOutput)
	}
	if reply.Sources == nil {
		return nil, fmt.Errorf("%w: missing sources", domain.ErrMalformedModelOutput)
	}
	if c := reply.Confidence; c != nil && (*c < 0 || *c > 1) {
		return nil, fmt.Errorf("%w: confidence %v outside 0-1", domain.ErrMalformedModelOutput, *c)
	}
	return &reply, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// groundCitations keeps cited ids that were in the supplied context, in
// citation order without duplicates, and returns the rest as dropped.
func groundCitations(cited []string, supplied []domain.RetrievalResult) (sources, dropped []string) {
	known := make(map[string]struct{}, len(supplied))
	for _, r := range supplied {
		known[r.Document.SourceID] = struct{}{}
	}

	sources = []string{}
	seen := make(map[string]struct{}, len(cited))
	for _, id := range cited {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := known[id]; ok {
			sources = append(sources, id)
		} else {
			dropped = append(dropped, id)
		}
	}
	return sources, dropped
}

// isTimeout reports whether a model call failed because time ran out,
// either through the context deadline or a transport timeout.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
