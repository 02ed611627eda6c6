package agent

import (
	"context"
	"fmt"
	"time"

	"assistant_server/core/agent/composer"
	"assistant_server/core/agent/rag"
	"assistant_server/core/agent/responder"
	"assistant_server/core/agent/scheduler"
	"assistant_server/core/agent/tools"
	"assistant_server/core/consent"
	"assistant_server/core/domain"
	"assistant_server/core/port/out"
	"assistant_server/pkg/apperr"
	"assistant_server/pkg/logger"
)

// maxToneMessages caps how many sent messages feed the tone corpus.
const maxToneMessages = 50

// KnowledgeStore exposes the user's knowledge base to the pipeline.
type KnowledgeStore interface {
	ListDocuments(userEmail string) ([]rag.Document, error)
	ReadFile(userEmail, filename string) ([]byte, error)
}

// Config tunes the orchestration pipeline.
type Config struct {
	ChunkSize         int
	ChunkOverlap      int
	RetrievalTopK     int
	ToneWindowDays    int
	SchedulerMaxTurns int
	WorkingHoursStart int
	WorkingHoursEnd   int
}

// Request is everything one orchestration run needs, with providers
// already bound to the user's token.
type Request struct {
	Email        domain.EmailContext
	UserEmail    string
	UserName     string
	ConsentToken string
	KBToken      string
	Hint         string
	History      []string
	Document     *domain.Attachment
	Mail         out.MailProviderPort
	Calendar     out.CalendarProviderPort
}

// Orchestrator runs the full response pipeline for one email.
type Orchestrator struct {
	classifier *Classifier
	scheduler  *scheduler.Agent
	info       *responder.InfoResponder
	general    *responder.GeneralResponder
	composer   *composer.Composer
	consent    *consent.Manager
	embedder   rag.Embedder
	knowledge  KnowledgeStore
	cfg        Config
	log        *logger.Logger
}

// NewOrchestrator wires the pipeline.
func NewOrchestrator(
	classifier *Classifier,
	sched *scheduler.Agent,
	info *responder.InfoResponder,
	general *responder.GeneralResponder,
	comp *composer.Composer,
	consentMgr *consent.Manager,
	embedder rag.Embedder,
	knowledge KnowledgeStore,
	cfg Config,
) *Orchestrator {
	return &Orchestrator{
		classifier: classifier,
		scheduler:  sched,
		info:       info,
		general:    general,
		composer:   comp,
		consent:    consentMgr,
		embedder:   embedder,
		knowledge:  knowledge,
		cfg:        cfg,
		log:        logger.Default().WithField("component", "orchestrator"),
	}
}

// Process generates a draft response for one email. Consent is validated
// before any provider access; a failed consent check is the only error
// this method returns. All other failures degrade into the draft itself.
func (o *Orchestrator) Process(ctx context.Context, req Request) (draft *domain.DraftResponse, err error) {
	if _, cerr := o.consent.Validate(req.ConsentToken, consent.ScopeEmailRead, req.UserEmail); cerr != nil {
		return nil, apperr.ConsentDenied(cerr.Error())
	}

	log := o.log.WithFields(map[string]interface{}{
		"email_id":   req.Email.ID,
		"user_email": req.UserEmail,
	})

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panic recovered: %v", r)
			draft = &domain.DraftResponse{
				ResponseType: domain.ResponseTypeError,
				Message:      "An internal error occurred while generating this response.",
				Reasoning:    fmt.Sprintf("pipeline failure: %v", r),
			}
			err = nil
		}
	}()

	kbAllowed := o.kbConsent(req, log)

	tone := o.buildToneRetriever(ctx, req, log)

	// Without knowledge base consent the run carries neither a retriever
	// nor a file handle, so no file under the knowledge directory is read.
	var knowledge *rag.Retriever
	var files responder.FileStore
	if kbAllowed {
		knowledge = o.buildKnowledgeRetriever(ctx, req, log)
		files = o.knowledge
	}

	plan := o.classifier.Classify(ctx, req.Email, req.History)
	log.WithField("agent_kind", string(plan.AgentKind)).Info("email classified")

	if plan.AgentKind == domain.AgentNoResponse {
		return &domain.DraftResponse{
			ResponseType: domain.ResponseTypeNoResponse,
			Message:      domain.NoResponseSentinel,
			Reasoning:    "N/A",
			Confidence:   1.0,
		}, nil
	}

	content, attachment := o.runAgent(ctx, req, plan, knowledge, files, log)

	message, cerr := o.composer.Compose(ctx, composer.Input{
		Email:    req.Email,
		UserName: req.UserName,
		Content:  content,
		Tone:     tone,
	})
	if cerr != nil {
		log.WithError(cerr).Warn("composition failed, using agent content directly")
		message = content
	}

	// An explicitly provided document always wins over anything the
	// responder resolved from the knowledge base.
	if req.Document != nil {
		attachment = req.Document
	}

	return &domain.DraftResponse{
		ResponseType: domain.ResponseTypeForKind(plan.AgentKind),
		Message:      message,
		Reasoning:    plan.Reasoning,
		Confidence:   plan.Confidence,
		Attachment:   attachment,
	}, nil
}

// runAgent dispatches to the routed sub-agent. Sub-agent failures become
// the draft's content so the reviewer sees what went wrong.
func (o *Orchestrator) runAgent(ctx context.Context, req Request, plan *domain.ResponsePlan, knowledge *rag.Retriever, files responder.FileStore, log *logger.Logger) (string, *domain.Attachment) {
	switch plan.AgentKind {
	case domain.AgentScheduler:
		registry := tools.NewCalendarRegistry(req.Calendar, o.cfg.WorkingHoursStart, o.cfg.WorkingHoursEnd)
		content, err := o.scheduler.Run(ctx, scheduler.Input{
			Email:     req.Email,
			UserEmail: req.UserEmail,
			UserName:  req.UserName,
			Hint:      req.Hint,
			Registry:  registry,
		})
		if err != nil {
			log.WithError(err).Error("scheduler agent failed")
			return fmt.Sprintf("An error occurred while handling the scheduling request: %v", err), nil
		}
		return content, nil

	case domain.AgentInfo:
		content, attachment, err := o.info.Respond(ctx, responder.Input{
			Email:     req.Email,
			UserEmail: req.UserEmail,
			UserName:  req.UserName,
			Hint:      req.Hint,
			History:   req.History,
			Document:  req.Document,
			Knowledge: knowledge,
			Files:     files,
		})
		if err != nil {
			log.WithError(err).Error("info responder failed")
			return fmt.Sprintf("An error occurred while gathering information for this reply: %v", err), nil
		}
		return content, attachment

	default:
		content, err := o.general.Respond(ctx, responder.Input{
			Email:    req.Email,
			UserName: req.UserName,
			Hint:     req.Hint,
			History:  req.History,
		})
		if err != nil {
			log.WithError(err).Error("general responder failed")
			return fmt.Sprintf("An error occurred while drafting this reply: %v", err), nil
		}
		return content, nil
	}
}

// kbConsent checks the optional knowledge base token. A missing or invalid
// token downgrades the run rather than failing it.
func (o *Orchestrator) kbConsent(req Request, log *logger.Logger) bool {
	if req.KBToken == "" {
		log.Info("no knowledge base token provided, skipping knowledge retrieval")
		return false
	}
	if _, err := o.consent.Validate(req.KBToken, consent.ScopeKnowledgeBaseRead, req.UserEmail); err != nil {
		log.WithError(err).Warn("knowledge base token rejected, skipping knowledge retrieval")
		return false
	}
	return true
}

// buildToneRetriever indexes the user's recent sent mail for style matching.
func (o *Orchestrator) buildToneRetriever(ctx context.Context, req Request, log *logger.Logger) *rag.Retriever {
	since := time.Now().AddDate(0, 0, -o.cfg.ToneWindowDays)
	bodies, err := req.Mail.ListSentBodies(ctx, since, maxToneMessages)
	if err != nil {
		log.WithError(err).Warn("sent mail fetch failed, composing without tone context")
		return nil
	}

	docs := make([]rag.Document, 0, len(bodies))
	for _, body := range bodies {
		docs = append(docs, rag.Document{Text: body, Source: "sent_mail"})
	}

	splitter := rag.NewSplitter(o.cfg.ChunkSize, o.cfg.ChunkOverlap)
	retriever, err := rag.BuildRetriever(ctx, o.embedder, docs, splitter, o.cfg.RetrievalTopK)
	if err != nil {
		log.WithError(err).Warn("tone index build failed, composing without tone context")
		return nil
	}
	return retriever
}

// buildKnowledgeRetriever indexes the user's knowledge base files.
func (o *Orchestrator) buildKnowledgeRetriever(ctx context.Context, req Request, log *logger.Logger) *rag.Retriever {
	docs, err := o.knowledge.ListDocuments(req.UserEmail)
	if err != nil {
		log.WithError(err).Warn("knowledge base listing failed, skipping knowledge retrieval")
		return nil
	}

	splitter := rag.NewSplitter(o.cfg.ChunkSize, o.cfg.ChunkOverlap)
	retriever, err := rag.BuildRetriever(ctx, o.embedder, docs, splitter, o.cfg.RetrievalTopK)
	if err != nil {
		log.WithError(err).Warn("knowledge index build failed, skipping knowledge retrieval")
		return nil
	}
	return retriever
}
