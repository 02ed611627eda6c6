package domain

// ============================================================================
// INTENT ROUTING
// ============================================================================

// AgentKind names a handling branch of the orchestration pipeline.
type AgentKind string

const (
	AgentScheduler  AgentKind = "SCHEDULER_AGENT"
	AgentInfo       AgentKind = "INFO_RESPONDER_AGENT"
	AgentGeneral    AgentKind = "GENERAL_RESPONDER"
	AgentNoResponse AgentKind = "NO_RESPONSE"
)

// ResponsePlan is the classifier's routing decision for one email.
type ResponsePlan struct {
	AgentKind       AgentKind `json:"agent_type"`
	Confidence      float64   `json:"confidence"`
	Reasoning       string    `json:"reasoning"`
	SuggestedAction string    `json:"suggested_action"`
}

type intentRoute struct {
	Label string
	Kind  AgentKind
}

// intentCatalogue maps every known summarizer intent label to its handling
// agent, in the order presented to the model.
var intentCatalogue = []intentRoute{
	{"Scheduling or rescheduling a meeting or event", AgentScheduler},
	{"Following up on a previous conversation or task", AgentInfo},
	{"Requesting information or clarification", AgentInfo},
	{"Providing requested information or sharing details", AgentGeneral},
	{"Requesting approval for a task or document", AgentGeneral},
	{"Declining or cancelling a meeting or request", AgentScheduler},
	{"Invoices, payments, or billing-related matters", AgentGeneral},
	{"Raising or addressing a support or technical issue", AgentInfo},
	{"Marketing emails or newsletters", AgentNoResponse},
	{"Informational only – no action required (FYI)", AgentNoResponse},
	{"Providing a status update on a project or task", AgentGeneral},
	{"Email that needs a decision or input", AgentGeneral},
	{"Sending or requesting a quote or proposal", AgentInfo},
	{"Negotiating a job or business offer", AgentGeneral},
	{"Reporting a bug or product issue", AgentInfo},
	{"Requesting a new feature or improvement", AgentInfo},
	{"Recruitment or HR-related message", AgentGeneral},
	{"Scheduling or confirming a job interview", AgentScheduler},
	{"Requesting a referral or recommendation", AgentGeneral},
	{"Operations or compliance-related matter", AgentGeneral},
	{"Legal, policy, or regulatory updates", AgentGeneral},
	{"Announcing a new product or feature", AgentNoResponse},
	{"Shipping, delivery, or order tracking update", AgentNoResponse},
	{"Invitation to an event or webinar", AgentScheduler},
	{"Thank you note or congratulatory message", AgentGeneral},
	{"Personal message not related to work", AgentGeneral},
}

var intentRoutes = func() map[string]AgentKind {
	m := make(map[string]AgentKind, len(intentCatalogue))
	for _, r := range intentCatalogue {
		m[r.Label] = r.Kind
	}
	return m
}()

// RouteForIntent returns the agent responsible for a summarizer intent label.
// Unknown intents fall through to the general responder.
func RouteForIntent(intent string) AgentKind {
	if kind, ok := intentRoutes[intent]; ok {
		return kind
	}
	return AgentGeneral
}

// KnownIntents returns every intent label the summarizer may assign, in
// stable order.
func KnownIntents() []string {
	intents := make([]string, 0, len(intentCatalogue))
	for _, r := range intentCatalogue {
		intents = append(intents, r.Label)
	}
	return intents
}

// ResponseTypeForKind maps an agent branch to the draft response type it emits.
func ResponseTypeForKind(kind AgentKind) ResponseType {
	switch kind {
	case AgentScheduler:
		return ResponseTypeScheduler
	case AgentInfo:
		return ResponseTypeInfoResponder
	case AgentNoResponse:
		return ResponseTypeNoResponse
	default:
		return ResponseTypeGeneralResponder
	}
}
