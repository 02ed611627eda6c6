// Package gmail provides the Gmail API adapter.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"assistant_server/core/port/out"
	"assistant_server/pkg/httputil"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Provider implements out.MailProviderPort for Gmail. Each instance is
// bound to one user's token.
type Provider struct {
	service *gmail.Service
	email   string
}

// NewProvider creates a Gmail provider for one user.
func NewProvider(ctx context.Context, token *oauth2.Token, config *oauth2.Config) (*Provider, error) {
	// The token source wraps the pooled Google client so every API call
	// carries its timeout instead of http.DefaultClient's none.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httputil.GoogleClient())
	client := config.Client(ctx, token)
	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	profile, err := service.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	return &Provider{
		service: service,
		email:   profile.EmailAddress,
	}, nil
}

// Email returns the authenticated user's address.
func (p *Provider) Email() string {
	return p.email
}

// ListUnread returns unread messages received after since, fully fetched.
// Uses bounded concurrency (5 workers) to avoid rate limiting.
func (p *Provider) ListUnread(ctx context.Context, since time.Time) ([]*out.MailMessage, error) {
	query := fmt.Sprintf("is:unread after:%d", since.Unix())
	resp, err := p.service.Users.Messages.List("me").Q(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if len(resp.Messages) == 0 {
		return []*out.MailMessage{}, nil
	}

	ids := make([]string, len(resp.Messages))
	for i, m := range resp.Messages {
		ids[i] = m.Id
	}
	return p.fetchMessages(ctx, ids), nil
}

// ThreadHistory returns prior messages in a thread, oldest first.
func (p *Provider) ThreadHistory(ctx context.Context, threadID string) ([]*out.ThreadEntry, error) {
	thread, err := p.service.Users.Threads.Get("me", threadID).
		Format("metadata").
		MetadataHeaders("From").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}

	entries := make([]*out.ThreadEntry, 0, len(thread.Messages))
	for _, msg := range thread.Messages {
		entry := &out.ThreadEntry{Snippet: msg.Snippet}
		if msg.Payload != nil {
			for _, header := range msg.Payload.Headers {
				if header.Name == "From" {
					entry.From = header.Value
				}
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ListSentBodies returns the bodies of recently sent messages for tone
// sampling.
func (p *Provider) ListSentBodies(ctx context.Context, since time.Time, max int) ([]string, error) {
	query := fmt.Sprintf("in:sent after:%d", since.Unix())
	req := p.service.Users.Messages.List("me").Q(query)
	if max > 0 {
		req = req.MaxResults(int64(max))
	}
	resp, err := req.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list sent messages: %w", err)
	}
	if len(resp.Messages) == 0 {
		return nil, nil
	}

	ids := make([]string, len(resp.Messages))
	for i, m := range resp.Messages {
		ids[i] = m.Id
	}

	var bodies []string
	for _, msg := range p.fetchMessages(ctx, ids) {
		if strings.TrimSpace(msg.Body) != "" {
			bodies = append(bodies, msg.Body)
		}
	}
	return bodies, nil
}

// Send delivers a reply, as multipart MIME when an attachment is present.
func (p *Provider) Send(ctx context.Context, req *out.SendRequest) error {
	raw, err := buildMIME(p.email, req)
	if err != nil {
		return err
	}

	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}
	if req.ThreadID != "" {
		msg.ThreadId = req.ThreadID
	}

	if _, err := p.service.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// MarkRead clears the unread flag on a message.
func (p *Provider) MarkRead(ctx context.Context, messageID string) error {
	_, err := p.service.Users.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	return err
}

// fetchMessages retrieves full messages in parallel with bounded
// concurrency, dropping any that fail.
func (p *Provider) fetchMessages(ctx context.Context, ids []string) []*out.MailMessage {
	const maxConcurrency = 5
	type result struct {
		index int
		msg   *out.MailMessage
		err   error
	}

	results := make(chan result, len(ids))
	semaphore := make(chan struct{}, maxConcurrency)

	for i, id := range ids {
		go func(idx int, msgID string) {
			semaphore <- struct{}{}        // acquire
			defer func() { <-semaphore }() // release

			msg, err := p.getMessage(ctx, msgID)
			results <- result{index: idx, msg: msg, err: err}
		}(i, id)
	}

	messages := make([]*out.MailMessage, len(ids))
	for range ids {
		r := <-results
		if r.err == nil && r.msg != nil {
			messages[r.index] = r.msg
		}
	}

	final := make([]*out.MailMessage, 0, len(ids))
	for _, msg := range messages {
		if msg != nil {
			final = append(final, msg)
		}
	}
	return final
}

func (p *Provider) getMessage(ctx context.Context, messageID string) (*out.MailMessage, error) {
	msg, err := p.service.Users.Messages.Get("me", messageID).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return parseMailMessage(msg), nil
}

// Helper functions

func parseMailMessage(msg *gmail.Message) *out.MailMessage {
	mm := &out.MailMessage{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		Received: time.Unix(msg.InternalDate/1000, 0),
	}

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch header.Name {
			case "From":
				mm.Sender = header.Value
			case "Subject":
				mm.Subject = header.Value
			}
		}
		mm.Body = extractTextBody(msg.Payload)
	}
	if mm.Body == "" {
		mm.Body = msg.Snippet
	}
	return mm
}

// extractTextBody prefers a text/plain part, walking nested parts.
func extractTextBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}

	if payload.MimeType == "text/plain" && payload.Body != nil && payload.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err == nil {
			return string(data)
		}
	}

	for _, part := range payload.Parts {
		if text := extractTextBody(part); text != "" {
			return text
		}
	}

	// Fall back to the payload's own body data.
	if payload.Body != nil && payload.Body.Data != "" {
		if data, err := base64.URLEncoding.DecodeString(payload.Body.Data); err == nil {
			return string(data)
		}
	}
	return ""
}

func buildMIME(from string, req *out.SendRequest) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + req.To + "\r\n")
	sb.WriteString("Subject: " + req.Subject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")

	if req.AttachmentName == "" {
		sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		sb.WriteString("\r\n")
		sb.WriteString(req.Body)
		return []byte(sb.String()), nil
	}

	var body strings.Builder
	writer := multipart.NewWriter(&body)

	sb.WriteString(`Content-Type: multipart/mixed; boundary="` + writer.Boundary() + `"` + "\r\n")
	sb.WriteString("\r\n")

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=UTF-8")
	textPart, err := writer.CreatePart(textHeader)
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(req.Body)); err != nil {
		return nil, err
	}

	attachHeader := textproto.MIMEHeader{}
	attachHeader.Set("Content-Type", "application/octet-stream")
	attachHeader.Set("Content-Transfer-Encoding", "base64")
	attachHeader.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, req.AttachmentName))
	attachPart, err := writer.CreatePart(attachHeader)
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(req.AttachmentContent)
	if _, err := attachPart.Write([]byte(encoded)); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	sb.WriteString(body.String())
	return []byte(sb.String()), nil
}

// Ensure Provider implements out.MailProviderPort
var _ out.MailProviderPort = (*Provider)(nil)
