package report

import "strings"

// ScopeType enum, the report category
type ScopeType string

const (
	ScopeInitial    ScopeType = "initial"
	ScopeRepair     ScopeType = "repair"
	ScopeWarranty   ScopeType = "warranty"
	ScopeFollowup   ScopeType = "followup"
	ScopePreventive ScopeType = "preventive"
	ScopeEmergency  ScopeType = "emergency"
)

// scopeOrder doubles as keyword detection priority and chat menu numbering.
var scopeOrder = []ScopeType{
	ScopeInitial,
	ScopeRepair,
	ScopeWarranty,
	ScopeFollowup,
	ScopePreventive,
	ScopeEmergency,
}

var scopeLabels = map[ScopeType]string{
	ScopeInitial:    "Initial Site Visit and Inspection Report",
	ScopeRepair:     "Equipment Repair and Service Report",
	ScopeWarranty:   "Warranty Inspection and Validation Report",
	ScopeFollowup:   "Follow-up Inspection Report",
	ScopePreventive: "Preventive Maintenance Inspection Report",
	ScopeEmergency:  "Emergency Service Call Report",
}

var scopeMenuNames = map[ScopeType]string{
	ScopeInitial:    "Initial Site Visit Inspection",
	ScopeRepair:     "Repair Report",
	ScopeWarranty:   "Warranty Inspection",
	ScopeFollowup:   "Follow-up Report",
	ScopePreventive: "Preventive Maintenance",
	ScopeEmergency:  "Emergency Service Call",
}

var scopeKeywords = map[ScopeType][]string{
	ScopeInitial:    {"first visit", "initial", "baseline", "new site", "assessment"},
	ScopeRepair:     {"repair", "fix", "broken", "malfunction", "replace"},
	ScopeWarranty:   {"warranty", "claim", "defect", "manufacturer"},
	ScopeFollowup:   {"follow up", "followup", "revisit", "previous"},
	ScopePreventive: {"preventive", "maintenance", "pm", "scheduled", "routine"},
	ScopeEmergency:  {"emergency", "urgent", "failure", "down", "critical"},
}

// Valid reports whether s is a known scope.
func (s ScopeType) Valid() bool {
	_, ok := scopeLabels[s]
	return ok
}

// Label is the human-readable report type. Unknown scopes echo their raw text.
func (s ScopeType) Label() string {
	if l, ok := scopeLabels[ScopeType(strings.ToLower(string(s)))]; ok {
		return l
	}
	return string(s)
}

// MenuName is the short name shown in the chat menu.
func (s ScopeType) MenuName() string {
	if n, ok := scopeMenuNames[s]; ok {
		return n
	}
	return string(s)
}

// DetectScope picks the first scope whose keywords occur in text, default initial.
func DetectScope(text string) ScopeType {
	lower := strings.ToLower(text)
	for _, s := range scopeOrder {
		for _, kw := range scopeKeywords[s] {
			if strings.Contains(lower, kw) {
				return s
			}
		}
	}
	return ScopeInitial
}

// ResolveScopeLabel uses the explicit scope when set, otherwise keyword detection over text.
func ResolveScopeLabel(explicit ScopeType, text string) string {
	if strings.TrimSpace(string(explicit)) != "" {
		return explicit.Label()
	}
	return DetectScope(text).Label()
}

// ParseScopeChoice accepts a menu number ("1".."6") or a scope name.
func ParseScopeChoice(choice string) (ScopeType, bool) {
	c := strings.ToLower(strings.TrimSpace(choice))
	if len(c) == 1 && c[0] >= '1' && c[0] <= '6' {
		return scopeOrder[c[0]-'1'], true
	}
	s := ScopeType(c)
	return s, s.Valid()
}

// ScopeMenu lists scopes in menu order.
func ScopeMenu() []ScopeType {
	return append([]ScopeType(nil), scopeOrder...)
}
