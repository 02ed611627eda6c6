package domain

// ============================================================================
// DRAFT RESPONSE MODEL
// ============================================================================

// ResponseType identifies which pipeline branch produced a draft.
type ResponseType string

const (
	ResponseTypeScheduler        ResponseType = "scheduler"
	ResponseTypeInfoResponder    ResponseType = "info_responder"
	ResponseTypeGeneralResponder ResponseType = "general_responder"
	ResponseTypeNoResponse       ResponseType = "no_response"
	ResponseTypeError            ResponseType = "error"
)

// NoResponseSentinel is the exact message emitted when an email needs no reply.
const NoResponseSentinel = "This email doesn't require a response."

// Attachment is a file carried alongside a draft response.
type Attachment struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

// DraftResponse is the final output of the orchestration pipeline for one email.
type DraftResponse struct {
	ResponseType ResponseType `json:"response_type"`
	Message      string       `json:"message"`
	Reasoning    string       `json:"reasoning"`
	Confidence   float64      `json:"confidence"`
	Attachment   *Attachment  `json:"attachment,omitempty"`
}
