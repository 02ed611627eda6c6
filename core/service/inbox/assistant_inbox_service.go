// Package inbox summarizes the user's recent unread mail with a bounded
// worker pool and caches the result per user.
package inbox

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/pool"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"assistant_server/core/agent/llm"
	"assistant_server/core/domain"
	"assistant_server/core/port/out"
	"assistant_server/pkg/apperr"
	"assistant_server/pkg/cache"
)

// summaryBodyLimit caps how much of each email body feeds the summarizer.
const summaryBodyLimit = 1000

const (
	parseFailureSummary = "Failed to parse summary from AI response."
	parseFailureIntent  = "Unknown"
)

type summarizeLLM interface {
	CompleteJSON(ctx context.Context, prompt string) (string, error)
}

// Service summarizes unread inbox messages.
type Service struct {
	llm         summarizeLLM
	cache       *cache.RedisCache
	workers     int
	windowHours int
	cacheTTL    time.Duration
	log         zerolog.Logger
}

// NewService creates an inbox summarization service. cache may be nil.
func NewService(client summarizeLLM, c *cache.RedisCache, workers, windowHours int, cacheTTL time.Duration) *Service {
	if workers <= 0 {
		workers = 5
	}
	if windowHours <= 0 {
		windowHours = 24
	}
	return &Service{
		llm:         client,
		cache:       c,
		workers:     workers,
		windowHours: windowHours,
		cacheTTL:    cacheTTL,
		log:         zlog.With().Str("component", "inbox_service").Logger(),
	}
}

// EmailIDHash derives the stable client-facing ID for a provider message ID.
func EmailIDHash(s string) string {
	var h uint32
	for _, c := range s {
		h = h*31 + uint32(c)
	}
	return strconv.FormatUint(uint64(h), 10)
}

func (s *Service) cacheKey(userEmail string) string {
	return "inbox:summaries:" + userEmail
}

// Summarize fetches and summarizes the user's recent unread mail. Results
// are served from cache unless refresh is set.
func (s *Service) Summarize(ctx context.Context, userEmail string, mail out.MailProviderPort, refresh bool) ([]domain.EmailSummary, error) {
	if s.cache != nil && !refresh {
		var cached []domain.EmailSummary
		if hit, err := s.cache.GetJSON(ctx, s.cacheKey(userEmail), &cached); err == nil && hit {
			return cached, nil
		}
	}

	since := time.Now().Add(-time.Duration(s.windowHours) * time.Hour)
	messages, err := mail.ListUnread(ctx, since)
	if err != nil {
		return nil, apperr.ProviderFailure("gmail", err)
	}

	worker := &summaryWorker{svc: s}
	p := pool.New[*out.MailMessage](s.workers, worker).WithContinueOnError()
	if err := p.Go(ctx); err != nil {
		return nil, apperr.InternalWithError(err)
	}
	for _, msg := range messages {
		p.Submit(msg)
	}
	if err := p.Close(ctx); err != nil {
		s.log.Warn().Err(err).Msg("summary pool closed with errors")
	}

	summaries := worker.results
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Received.After(summaries[j].Received)
	})

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, s.cacheKey(userEmail), summaries, s.cacheTTL); err != nil {
			s.log.Warn().Err(err).Msg("failed to cache inbox summaries")
		}
	}
	return summaries, nil
}

// Lookup resolves one summarized email by its client-facing ID.
func (s *Service) Lookup(ctx context.Context, userEmail, emailID string, mail out.MailProviderPort) (*domain.EmailSummary, error) {
	summaries, err := s.Summarize(ctx, userEmail, mail, false)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		if summaries[i].ID == emailID {
			return &summaries[i], nil
		}
	}
	return nil, apperr.NotFound("email " + emailID)
}

// FormatThreadHistory renders prior thread messages for prompting.
func FormatThreadHistory(entries []*out.ThreadEntry) []string {
	history := make([]string, 0, len(entries))
	for _, e := range entries {
		history = append(history, fmt.Sprintf("From: %s\nSnippet: %s", e.From, e.Snippet))
	}
	return history
}

// summaryWorker implements pool.Worker for per-message summarization.
type summaryWorker struct {
	svc     *Service
	mu      sync.Mutex
	results []domain.EmailSummary
}

// Do implements pool.Worker.
func (w *summaryWorker) Do(ctx context.Context, msg *out.MailMessage) error {
	summary, intent := w.svc.summarizeOne(ctx, msg)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.results = append(w.results, domain.EmailSummary{
		ID:        EmailIDHash(msg.Sender + msg.Subject),
		MessageID: msg.ID,
		ThreadID:  msg.ThreadID,
		Sender:    msg.Sender,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Summary:   summary,
		Intent:    intent,
		Received:  msg.Received,
	})
	return nil
}

// summarizeOne asks the model for a one-line summary and an intent label.
// Parse failures degrade to placeholder values rather than dropping the email.
func (s *Service) summarizeOne(ctx context.Context, msg *out.MailMessage) (string, string) {
	body := msg.Body
	if len(body) > summaryBodyLimit {
		body = body[:summaryBodyLimit]
	}

	prompt := fmt.Sprintf(`Summarize the following email in one sentence and classify its intent.

From: %s
Subject: %s
Body:
%s

The intent must be exactly one of:
%s

Respond with a JSON object: {"summary": "<one sentence>", "intent": "<one of the intents above>"}`,
		msg.Sender, msg.Subject, body, strings.Join(domain.KnownIntents(), "\n"))

	raw, err := s.llm.CompleteJSON(ctx, prompt)
	if err != nil {
		s.log.Warn().Err(err).Str("message_id", msg.ID).Msg("summarization call failed")
		return parseFailureSummary, parseFailureIntent
	}

	payload, ok := llm.ExtractJSONObject(raw)
	if !ok {
		return parseFailureSummary, parseFailureIntent
	}

	var parsed struct {
		Summary string `json:"summary"`
		Intent  string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil || parsed.Summary == "" {
		return parseFailureSummary, parseFailureIntent
	}
	return parsed.Summary, parsed.Intent
}
