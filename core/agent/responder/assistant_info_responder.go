// Package responder implements the content-generating agents that draft
// reply material for the composer.
package responder

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"assistant_server/core/agent/llm"
	"assistant_server/core/agent/rag"
	"assistant_server/core/domain"
	"assistant_server/core/port/out"
	"assistant_server/pkg/logger"
)

// Chunking for ad-hoc uploaded documents. Smaller than the corpus chunking
// since a single file is being queried.
const (
	docChunkSize    = 500
	docChunkOverlap = 50
)

const maxWebResults = 5

// attachTagPattern matches the file-attachment directive the model may emit.
var attachTagPattern = regexp.MustCompile(`\[ATTACH_FILE:\s*(.*?)\]`)

type completer interface {
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// FileStore reads stored knowledge base files for attachment resolution.
type FileStore interface {
	ReadFile(userEmail, filename string) ([]byte, error)
}

// InfoResponder answers information requests using the user's knowledge
// base, an optional uploaded document, and web search.
type InfoResponder struct {
	llm      completer
	embedder rag.Embedder
	search   out.SearchProviderPort
	log      *logger.Logger
}

// Input carries one info-response request. Files is the knowledge base
// handle for attachment resolution; the caller leaves it nil when the run
// has no knowledge base consent, which disables all file reads.
type Input struct {
	Email     domain.EmailContext
	UserEmail string
	UserName  string
	Hint      string
	History   []string
	Document  *domain.Attachment
	Knowledge *rag.Retriever
	Files     FileStore
}

// NewInfoResponder creates an info responder. search may be nil.
func NewInfoResponder(client completer, embedder rag.Embedder, search out.SearchProviderPort) *InfoResponder {
	return &InfoResponder{
		llm:      client,
		embedder: embedder,
		search:   search,
		log:      logger.Default().WithField("component", "info_responder"),
	}
}

// Respond drafts reply content and resolves any file the model asked to
// attach from the knowledge base.
func (r *InfoResponder) Respond(ctx context.Context, in Input) (string, *domain.Attachment, error) {
	query := retrievalQuery(in)
	docContext := r.documentContext(ctx, in, query)
	kbContext := r.knowledgeContext(ctx, in, query)
	webContext := r.webContext(ctx, query)

	system := "You are an assistant that drafts informative email replies on behalf of " + in.UserName + "."
	prompt := buildInfoPrompt(in, docContext, kbContext, webContext)

	reply, err := r.llm.CompleteWithSystem(ctx, system, prompt)
	if err != nil {
		return "", nil, err
	}
	reply = llm.StripThink(reply)

	// An uploaded document is already going to be the attachment; the tag
	// is stripped but never resolved against the knowledge base.
	if in.Document != nil {
		return strings.TrimSpace(attachTagPattern.ReplaceAllString(reply, "")), nil, nil
	}
	return r.resolveAttachment(in.Files, in.UserEmail, reply)
}

// retrievalQuery is the one query string shared by document, knowledge
// base, and web retrieval.
func retrievalQuery(in Input) string {
	query := in.Email.Subject + "\n" + in.Email.Body
	if in.Hint != "" {
		query += "\n" + in.Hint
	}
	return query
}

// documentContext extracts the relevant parts of an uploaded document.
func (r *InfoResponder) documentContext(ctx context.Context, in Input, query string) string {
	if in.Document == nil {
		return ""
	}

	if !rag.IsTextFile(in.Document.Filename) {
		return fmt.Sprintf("A binary file named '%s' was provided. Its content cannot be read as text, but the agent is aware of its presence.", in.Document.Filename)
	}

	text, err := rag.ExtractFileText(in.Document.Filename, in.Document.Content)
	if err != nil {
		return fmt.Sprintf("Error processing the provided text file '%s': %v", in.Document.Filename, err)
	}

	splitter := rag.NewSplitter(docChunkSize, docChunkOverlap)
	docs := []rag.Document{{Text: text, Source: in.Document.Filename}}
	retriever, err := rag.BuildRetriever(ctx, r.embedder, docs, splitter, 3)
	if err != nil || retriever == nil {
		// Fall back to the raw head of the document.
		if len(text) > docChunkSize {
			return text[:docChunkSize]
		}
		return text
	}

	chunks, err := retriever.Retrieve(ctx, query)
	if err != nil {
		r.log.WithError(err).Warn("document retrieval failed")
		return ""
	}
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, "\n\n")
}

// knowledgeContext pulls the closest knowledge base chunks for this email.
func (r *InfoResponder) knowledgeContext(ctx context.Context, in Input, query string) string {
	if in.Knowledge == nil {
		return ""
	}
	chunks, err := in.Knowledge.Retrieve(ctx, query)
	if err != nil {
		r.log.WithError(err).Warn("knowledge base retrieval failed")
		return ""
	}
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, fmt.Sprintf("Source: %s\nContent: %s", c.Source, c.Text))
	}
	return strings.Join(parts, "\n\n")
}

// webContext runs a web search for the email's topic.
func (r *InfoResponder) webContext(ctx context.Context, query string) string {
	if r.search == nil {
		return ""
	}
	results, err := r.search.Search(ctx, query)
	if err != nil {
		r.log.WithError(err).Warn("web search failed")
		return ""
	}

	var lines []string
	for _, res := range results {
		if res.Snippet == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s (%s)", res.Title, res.Snippet, res.Link))
		if len(lines) >= maxWebResults {
			break
		}
	}
	return strings.Join(lines, "\n")
}

func buildInfoPrompt(in Input, docContext, kbContext, webContext string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are responding to the following email on behalf of %s.\n\n", in.UserName)
	fmt.Fprintf(&b, "From: %s\nSubject: %s\nBody:\n%s\n\n", in.Email.Sender, in.Email.Subject, in.Email.Body)

	if len(in.History) > 0 {
		fmt.Fprintf(&b, "Previous messages in this thread:\n%s\n\n", strings.Join(in.History, "\n\n"))
	}
	if docContext != "" {
		fmt.Fprintf(&b, "Relevant content from a document the user provided:\n%s\n\n", docContext)
	}
	if kbContext != "" {
		fmt.Fprintf(&b, "Relevant content from the user's knowledge base:\n%s\n\n", kbContext)
	}
	if webContext != "" {
		fmt.Fprintf(&b, "Relevant web search results:\n%s\n\n", webContext)
	}
	if in.Hint != "" {
		fmt.Fprintf(&b, "The user's guidance for this reply: %s\n\n", in.Hint)
	}

	b.WriteString(`Instructions:
1. Answer the sender's question or request directly and accurately.
2. Prefer information from the provided document, then the knowledge base, then web results.
3. If none of the provided context answers the question, say so honestly instead of inventing an answer.
4. If a file from the knowledge base should be sent to the sender, include the exact tag [ATTACH_FILE: <filename>] on its own line.
5. Only use the attachment tag for files that actually appear in the provided context.
6. Keep the reply focused on the email; do not add unrelated information.
7. Write only the informational content of the reply; greetings and signatures are added later.`)

	return b.String()
}

// resolveAttachment strips the attachment tag from the reply and loads the
// named file from the knowledge base when it exists. A nil file store means
// the run has no knowledge base access and nothing is read.
func (r *InfoResponder) resolveAttachment(files FileStore, userEmail, reply string) (string, *domain.Attachment, error) {
	match := attachTagPattern.FindStringSubmatch(reply)
	cleaned := strings.TrimSpace(attachTagPattern.ReplaceAllString(reply, ""))
	if match == nil {
		return cleaned, nil, nil
	}

	filename := strings.TrimSpace(match[1])
	if filename == "" || files == nil {
		return cleaned, nil, nil
	}

	content, err := files.ReadFile(userEmail, filename)
	if err != nil {
		r.log.WithField("filename", filename).Warn("requested attachment not found in knowledge base")
		note := fmt.Sprintf("\n\n(Note: the file '%s' was referenced but could not be found in the knowledge base.)", filename)
		return cleaned + note, nil, nil
	}

	return cleaned, &domain.Attachment{Filename: filename, Content: content}, nil
}
