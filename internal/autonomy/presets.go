// Package autonomy decides whether a tool call runs now, runs with an
// escalated bar, or waits for human approval. Every side-effecting call in
// the system passes through the Gate in this package.
package autonomy

import (
	"github.com/stewardhq/steward/internal/registry"
	"github.com/stewardhq/steward/internal/store"
)

// Preset names. Every user resolves to exactly one.
const (
	PresetCautious = "cautious"
	PresetBalanced = "balanced"
	PresetHandsOff = "hands_off"
)

// FinancialThreshold is the largest cost a preset lets through without
// approval. Cautious approves every dollar.
func FinancialThreshold(preset string) float64 {
	switch preset {
	case PresetCautious:
		return 0
	case PresetHandsOff:
		return 2000
	default:
		return 500
	}
}

// presetLevels maps each preset to the granted level per category. Presets
// are total over the category set; resolveLevel falls back to balanced for
// unknown preset names.
var presetLevels = map[string]map[string]int{
	PresetCautious: {
		registry.CategoryQuery:         registry.LevelAutonomous,
		registry.CategoryMemory:        registry.LevelAutonomous,
		registry.CategoryCommunication: registry.LevelReadOnly,
		registry.CategoryMaintenance:   registry.LevelReadOnly,
		registry.CategoryFinancial:     registry.LevelAlwaysApprove,
		registry.CategoryLeasing:       registry.LevelAlwaysApprove,
		registry.CategoryCompliance:    registry.LevelReadOnly,
		registry.CategoryInspection:    registry.LevelReadOnly,
		registry.CategoryMarketing:     registry.LevelReadOnly,
		registry.CategoryDocuments:     registry.LevelReadOnly,
		registry.CategoryWorkflow:      registry.LevelReadOnly,
		registry.CategoryEmergency:     registry.LevelReadOnly,
	},
	PresetBalanced: {
		registry.CategoryQuery:         registry.LevelAutonomous,
		registry.CategoryMemory:        registry.LevelAutonomous,
		registry.CategoryCommunication: registry.LevelRoutine,
		registry.CategoryMaintenance:   registry.LevelRoutine,
		registry.CategoryFinancial:     registry.LevelRoutine,
		registry.CategoryLeasing:       registry.LevelRoutine,
		registry.CategoryCompliance:    registry.LevelRoutine,
		registry.CategoryInspection:    registry.LevelRoutine,
		registry.CategoryMarketing:     registry.LevelRoutine,
		registry.CategoryDocuments:     registry.LevelRoutine,
		registry.CategoryWorkflow:      registry.LevelRoutine,
		registry.CategoryEmergency:     registry.LevelRoutine,
	},
	PresetHandsOff: {
		registry.CategoryQuery:         registry.LevelAutonomous,
		registry.CategoryMemory:        registry.LevelAutonomous,
		registry.CategoryCommunication: registry.LevelOperational,
		registry.CategoryMaintenance:   registry.LevelOperational,
		registry.CategoryFinancial:     registry.LevelOperational,
		registry.CategoryLeasing:       registry.LevelOperational,
		registry.CategoryCompliance:    registry.LevelOperational,
		registry.CategoryInspection:    registry.LevelOperational,
		registry.CategoryMarketing:     registry.LevelOperational,
		registry.CategoryDocuments:     registry.LevelOperational,
		registry.CategoryWorkflow:      registry.LevelOperational,
		registry.CategoryEmergency:     registry.LevelOperational,
	},
}

// resolveLevel returns the granted level for a category: per-category
// override when present, preset default otherwise.
func resolveLevel(settings *store.AutonomySettings, category string) int {
	if lvl, ok := settings.CategoryOverrides[category]; ok {
		return lvl
	}
	levels, ok := presetLevels[settings.Preset]
	if !ok {
		levels = presetLevels[PresetBalanced]
	}
	return levels[category]
}

// emergencyOverrideTools bypass level checks when the triggering event is
// urgent: delaying these actions for approval itself causes harm.
var emergencyOverrideTools = map[string]bool{
	"send_rent_reminder":               true,
	"send_payment_receipt":             true,
	"send_emergency_notification":      true,
	"send_arrears_notice":              true,
	"notify_compliance_overdue":        true,
	"lookup_regulation":                true,
	"lookup_compliance_rules":          true,
	"dispatch_emergency_services_info": true,
}

// urgentEventSources are the event types under which the emergency override
// applies.
var urgentEventSources = map[string]bool{
	"maintenance_emergency": true,
	"compliance_overdue":    true,
	"payment_failed":        true,
	"arrears_detected":      true,
}

// costFields are the parameter names scanned by the financial threshold
// check.
var costFields = []string{"amount", "cost", "price", "quote", "estimate", "total", "budget", "limit"}

// costValue returns the largest positive cost-bearing value in params, or 0.
func costValue(params map[string]any) float64 {
	var max float64
	for _, field := range costFields {
		v, ok := params[field]
		if !ok {
			continue
		}
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case int:
			f = float64(n)
		case int64:
			f = float64(n)
		default:
			continue
		}
		if f > max {
			max = f
		}
	}
	return max
}
