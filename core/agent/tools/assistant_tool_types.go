package tools

import "context"

// Tool represents a tool the scheduling agent can call
type Tool interface {
	Name() string
	Description() string
	Category() ToolCategory
	Parameters() []ParameterSpec
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// ToolCategory categorizes tools
type ToolCategory string

const (
	CategoryCalendar ToolCategory = "calendar"
	CategorySearch   ToolCategory = "search"
)

// ParameterSpec defines a tool parameter
type ParameterSpec struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"` // string, number, boolean, array, object
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Enum        []string `json:"enum,omitempty"` // allowed values
}

// ToolDefinition for LLM function calling
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    ToolCategory   `json:"category"`
	Parameters  ToolParameters `json:"parameters"`
}

// ToolParameters for OpenAI function calling format
type ToolParameters struct {
	Type       string                       `json:"type"`
	Properties map[string]ParameterProperty `json:"properties"`
	Required   []string                     `json:"required"`
}

// ParameterProperty for OpenAI format
type ParameterProperty struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

// ToolCall represents a tool call from LLM
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ConvertToDefinition converts Tool to ToolDefinition for LLM
func ConvertToDefinition(t Tool) ToolDefinition {
	params := t.Parameters()
	properties := make(map[string]ParameterProperty)
	required := []string{}

	for _, p := range params {
		properties[p.Name] = ParameterProperty{
			Type:        p.Type,
			Description: p.Description,
			Enum:        p.Enum,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Category:    t.Category(),
		Parameters: ToolParameters{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}
}

// Registry holds a named set of tools.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry from the given tools, preserving order.
func NewRegistry(ts ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range ts {
		r.tools[t.Name()] = t
		r.order = append(r.order, t.Name())
	}
	return r
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns LLM function definitions for every registered tool.
func (r *Registry) Definitions() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, ConvertToDefinition(r.tools[name]))
	}
	return defs
}
