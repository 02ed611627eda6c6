package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"assistant_server/core/agent/composer"
	"assistant_server/core/agent/llm"
	"assistant_server/core/agent/rag"
	"assistant_server/core/agent/responder"
	"assistant_server/core/agent/scheduler"
	"assistant_server/core/agent/tools"
	"assistant_server/core/consent"
	"assistant_server/core/domain"
	"assistant_server/core/port/out"
	"assistant_server/pkg/apperr"
)

// stubLLM satisfies every narrow model interface the pipeline uses.
type stubLLM struct {
	jsonReply   string
	jsonErr     error
	completion  string
	completeErr error
	convReply   string
	convErr     error
	panicOnJSON bool
}

func (s *stubLLM) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	if s.panicOnJSON {
		panic("model client corrupted")
	}
	return s.jsonReply, s.jsonErr
}

func (s *stubLLM) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.completion, s.completeErr
}

func (s *stubLLM) CompleteConversation(ctx context.Context, systemPrompt string, msgs []llm.Message, defs []tools.ToolDefinition) (string, []tools.ToolCall, error) {
	return s.convReply, nil, s.convErr
}

func (s *stubLLM) Embedding(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (s *stubLLM) EmbeddingBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0}
	}
	return vectors, nil
}

// countingMail tracks provider access.
type countingMail struct {
	sentBodies []string
	listCalls  int
}

func (m *countingMail) ListUnread(ctx context.Context, since time.Time) ([]*out.MailMessage, error) {
	return nil, nil
}

func (m *countingMail) ThreadHistory(ctx context.Context, threadID string) ([]*out.ThreadEntry, error) {
	return nil, nil
}

func (m *countingMail) ListSentBodies(ctx context.Context, since time.Time, max int) ([]string, error) {
	m.listCalls++
	return m.sentBodies, nil
}

func (m *countingMail) Send(ctx context.Context, req *out.SendRequest) error { return nil }
func (m *countingMail) MarkRead(ctx context.Context, messageID string) error { return nil }

type stubCalendar struct{}

func (stubCalendar) FreeBusy(ctx context.Context, req *out.FreeBusyRequest) ([]*out.TimePeriod, error) {
	return nil, nil
}
func (stubCalendar) CreateEvent(ctx context.Context, event *out.CalendarEvent) (*out.CalendarEvent, error) {
	return event, nil
}
func (stubCalendar) ListUpcoming(ctx context.Context, max int) ([]*out.CalendarEvent, error) {
	return nil, nil
}
func (stubCalendar) UpdateEventTime(ctx context.Context, eventID string, start, end time.Time) (*out.CalendarEvent, error) {
	return nil, nil
}
func (stubCalendar) DeleteEvent(ctx context.Context, eventID string) error { return nil }

type stubKnowledge struct {
	docs      []rag.Document
	files     map[string][]byte
	listCalls int
	readCalls int
}

func (s *stubKnowledge) ListDocuments(userEmail string) ([]rag.Document, error) {
	s.listCalls++
	return s.docs, nil
}

func (s *stubKnowledge) ReadFile(userEmail, filename string) ([]byte, error) {
	s.readCalls++
	if content, ok := s.files[filename]; ok {
		return content, nil
	}
	return nil, errors.New("not found")
}

func newTestOrchestrator(t *testing.T, client *stubLLM) (*Orchestrator, *consent.Manager, *stubKnowledge) {
	t.Helper()
	mgr, err := consent.NewManager("test-secret", "test_agent")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	kb := &stubKnowledge{}
	o := NewOrchestrator(
		NewClassifier(client),
		scheduler.NewAgent(client, 3),
		responder.NewInfoResponder(client, client, nil),
		responder.NewGeneralResponder(client),
		composer.NewComposer(client),
		mgr,
		client,
		kb,
		Config{
			ChunkSize:         1000,
			ChunkOverlap:      100,
			RetrievalTopK:     3,
			ToneWindowDays:    7,
			SchedulerMaxTurns: 3,
			WorkingHoursStart: 9,
			WorkingHoursEnd:   18,
		},
	)
	return o, mgr, kb
}

func validRequest(t *testing.T, mgr *consent.Manager, mail out.MailProviderPort) Request {
	t.Helper()
	token, err := mgr.Issue("user@example.com", consent.ScopeEmailRead, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return Request{
		Email: domain.EmailContext{
			ID:      "1",
			Sender:  "Alice <alice@example.com>",
			Subject: "Question",
			Body:    "What is the refund policy?",
			Intent:  "Requesting information or clarification",
		},
		UserEmail:    "user@example.com",
		UserName:     "Jordan",
		ConsentToken: token,
		Mail:         mail,
		Calendar:     stubCalendar{},
	}
}

func TestProcessConsentDeniedBeforeProviderAccess(t *testing.T) {
	client := &stubLLM{}
	o, mgr, _ := newTestOrchestrator(t, client)
	mail := &countingMail{}

	req := validRequest(t, mgr, mail)
	req.ConsentToken = "garbage"

	_, err := o.Process(context.Background(), req)
	if err == nil {
		t.Fatal("expected consent denial")
	}
	if !apperr.IsCode(err, apperr.CodeConsentDenied) {
		t.Errorf("expected CONSENT_DENIED, got %v", err)
	}
	if mail.listCalls != 0 {
		t.Errorf("expected zero provider calls before consent, got %d", mail.listCalls)
	}
}

func TestProcessWrongScopeTokenDenied(t *testing.T) {
	client := &stubLLM{}
	o, mgr, _ := newTestOrchestrator(t, client)

	req := validRequest(t, mgr, &countingMail{})
	kbToken, err := mgr.Issue("user@example.com", consent.ScopeKnowledgeBaseRead, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	req.ConsentToken = kbToken

	if _, err := o.Process(context.Background(), req); !apperr.IsCode(err, apperr.CodeConsentDenied) {
		t.Errorf("expected CONSENT_DENIED for wrong scope, got %v", err)
	}
}

func TestProcessNoResponseShortCircuits(t *testing.T) {
	client := &stubLLM{
		jsonReply: `{"agent_type": "NO_RESPONSE", "confidence": 0.95, "reasoning": "newsletter", "suggested_action": "skip"}`,
	}
	o, mgr, _ := newTestOrchestrator(t, client)

	draft, err := o.Process(context.Background(), validRequest(t, mgr, &countingMail{}))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if draft.ResponseType != domain.ResponseTypeNoResponse {
		t.Errorf("expected no_response, got %s", draft.ResponseType)
	}
	if draft.Message != domain.NoResponseSentinel {
		t.Errorf("expected sentinel message, got %q", draft.Message)
	}
	if draft.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %f", draft.Confidence)
	}
	if draft.Reasoning != "N/A" {
		t.Errorf("expected N/A reasoning, got %q", draft.Reasoning)
	}
}

func TestProcessGeneralResponderDraft(t *testing.T) {
	client := &stubLLM{
		jsonReply:  `{"agent_type": "GENERAL_RESPONDER", "confidence": 0.85, "reasoning": "needs a reply", "suggested_action": "reply"}`,
		completion: "Hi Alice,\n\nThanks for reaching out.\n\nJordan",
		convReply:  "unused",
	}
	o, mgr, _ := newTestOrchestrator(t, client)
	mail := &countingMail{sentBodies: []string{"Thanks, sounds good. Jordan"}}

	draft, err := o.Process(context.Background(), validRequest(t, mgr, mail))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if draft.ResponseType != domain.ResponseTypeGeneralResponder {
		t.Errorf("expected general_responder, got %s", draft.ResponseType)
	}
	if draft.Message == "" {
		t.Error("expected a composed message")
	}
	if mail.listCalls != 1 {
		t.Errorf("expected one sent-mail fetch for tone, got %d", mail.listCalls)
	}
}

func TestProcessSubAgentFailureBecomesContent(t *testing.T) {
	client := &stubLLM{
		jsonReply:   `{"agent_type": "GENERAL_RESPONDER", "confidence": 0.85, "reasoning": "reply", "suggested_action": "reply"}`,
		completeErr: errors.New("model timeout"),
	}
	o, mgr, _ := newTestOrchestrator(t, client)

	draft, err := o.Process(context.Background(), validRequest(t, mgr, &countingMail{}))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	// Responder and composer both failed; the error text is the draft body
	// and the response type stays with the routed agent.
	if draft.ResponseType != domain.ResponseTypeGeneralResponder {
		t.Errorf("expected general_responder, got %s", draft.ResponseType)
	}
	if !strings.Contains(draft.Message, "An error occurred") {
		t.Errorf("expected error text in draft, got %q", draft.Message)
	}
}

func TestProcessPanicBecomesErrorDraft(t *testing.T) {
	client := &stubLLM{panicOnJSON: true}
	o, mgr, _ := newTestOrchestrator(t, client)

	draft, err := o.Process(context.Background(), validRequest(t, mgr, &countingMail{}))
	if err != nil {
		t.Fatalf("expected recovered panic, got error: %v", err)
	}
	if draft.ResponseType != domain.ResponseTypeError {
		t.Errorf("expected error response type, got %s", draft.ResponseType)
	}
	if !strings.Contains(draft.Reasoning, "pipeline failure") {
		t.Errorf("expected failure reasoning, got %q", draft.Reasoning)
	}
}

func TestProcessUploadedDocumentWinsAttachment(t *testing.T) {
	client := &stubLLM{
		jsonReply:  `{"agent_type": "GENERAL_RESPONDER", "confidence": 0.85, "reasoning": "reply", "suggested_action": "reply"}`,
		completion: "reply body",
	}
	o, mgr, _ := newTestOrchestrator(t, client)

	req := validRequest(t, mgr, &countingMail{})
	req.Document = &domain.Attachment{Filename: "brief.pdf", Content: []byte("pdf bytes")}

	draft, err := o.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if draft.Attachment == nil || draft.Attachment.Filename != "brief.pdf" {
		t.Error("expected uploaded document to be the draft attachment")
	}
}

func TestProcessNoKBTokenBlocksKnowledgeReads(t *testing.T) {
	client := &stubLLM{
		jsonReply:  `{"agent_type": "INFO_RESPONDER_AGENT", "confidence": 0.9, "reasoning": "asks for a file", "suggested_action": "reply"}`,
		completion: "Here is the policy.\n[ATTACH_FILE: policy.txt]",
	}
	o, mgr, kb := newTestOrchestrator(t, client)
	kb.files = map[string][]byte{"policy.txt": []byte("secret policy")}

	req := validRequest(t, mgr, &countingMail{})
	req.KBToken = ""

	draft, err := o.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if kb.listCalls != 0 || kb.readCalls != 0 {
		t.Errorf("expected no knowledge base access without a token, got list=%d read=%d", kb.listCalls, kb.readCalls)
	}
	if draft.Attachment != nil {
		t.Errorf("expected no attachment without knowledge base consent, got %s", draft.Attachment.Filename)
	}
}

func TestProcessKBTokenAllowsAttachmentResolution(t *testing.T) {
	client := &stubLLM{
		jsonReply:  `{"agent_type": "INFO_RESPONDER_AGENT", "confidence": 0.9, "reasoning": "asks for a file", "suggested_action": "reply"}`,
		completion: "Here is the policy.\n[ATTACH_FILE: policy.txt]",
	}
	o, mgr, kb := newTestOrchestrator(t, client)
	kb.files = map[string][]byte{"policy.txt": []byte("policy text")}

	req := validRequest(t, mgr, &countingMail{})
	kbToken, err := mgr.Issue("user@example.com", consent.ScopeKnowledgeBaseRead, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	req.KBToken = kbToken

	draft, err := o.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if draft.Attachment == nil || draft.Attachment.Filename != "policy.txt" {
		t.Fatal("expected the knowledge base file attached with a valid token")
	}
	if string(draft.Attachment.Content) != "policy text" {
		t.Errorf("unexpected attachment content: %q", draft.Attachment.Content)
	}
}
