// Package registry holds the static tool catalog: every operation the agent
// may request, with its governance metadata. Pure data, loaded once; the
// dispatcher owns actual side effects.
package registry

import "sort"

// Tool categories. Presets assign a default autonomy level per category.
const (
	CategoryQuery         = "query"
	CategoryCommunication = "communication"
	CategoryMaintenance   = "maintenance"
	CategoryFinancial     = "financial"
	CategoryLeasing       = "leasing"
	CategoryCompliance    = "compliance"
	CategoryInspection    = "inspection"
	CategoryMarketing     = "marketing"
	CategoryDocuments     = "documents"
	CategoryMemory        = "memory"
	CategoryWorkflow      = "workflow"
	CategoryEmergency     = "emergency"
)

// Autonomy levels L0..L4.
const (
	LevelAlwaysApprove = 0 // every call needs human approval
	LevelReadOnly      = 1 // informational operations
	LevelRoutine       = 2 // routine communications and records
	LevelOperational   = 3 // money-adjacent or tenant-visible actions
	LevelAutonomous    = 4 // fully autonomous, including high-impact actions
)

// MaxLevel is the cap for confidence escalation.
const MaxLevel = 4

// ToolMeta is one catalog entry.
type ToolMeta struct {
	Name          string
	Category      string
	RequiredLevel int
	Description   string
	Parameters    map[string]any
}

// Registry is the immutable tool catalog.
type Registry struct {
	tools map[string]ToolMeta
}

// New builds the registry from the static catalog.
func New() *Registry {
	tools := make(map[string]ToolMeta, len(catalog))
	for _, t := range catalog {
		tools[t.Name] = t
	}
	return &Registry{tools: tools}
}

// Lookup returns the metadata for a tool. The second return is false for
// unknown names; callers turn that into a synthetic failed tool result, never
// a crash — the model may hallucinate names.
func (r *Registry) Lookup(name string) (ToolMeta, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Len returns the catalog size.
func (r *Registry) Len() int {
	return len(r.tools)
}

// Names returns all tool names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.tools))
	for name := range r.tools {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Definitions returns the tool catalog in provider wire format, sorted by
// name for stable prompts.
func (r *Registry) Definitions() []ToolMeta {
	out := make([]ToolMeta, 0, len(r.tools))
	for _, name := range r.Names() {
		out = append(out, r.tools[name])
	}
	return out
}

// Categories returns the fixed category set.
func Categories() []string {
	return []string{
		CategoryQuery, CategoryCommunication, CategoryMaintenance,
		CategoryFinancial, CategoryLeasing, CategoryCompliance,
		CategoryInspection, CategoryMarketing, CategoryDocuments,
		CategoryMemory, CategoryWorkflow, CategoryEmergency,
	}
}
