package model

import "github.com/shopspring/decimal"

// Source labels where a resolved value came from, so storefronts and
// audits can tell a legacy override apart from a hierarchy rule.
type Source string

const (
	SourceLegacy    Source = "legacy"
	SourceHierarchy Source = "hierarchy"
)

// ResolvedMarkup is the single markup that won resolution for a scope.
// Level and RuleID are zero for legacy winners; the flat table carries
// neither.
type ResolvedMarkup struct {
	Source       Source          `json:"source"`
	Level        Level           `json:"level,omitempty"`
	RuleID       uint64          `json:"rule_id,omitempty"`
	MarkupType   MarkupType      `json:"markup_type"`
	MarkupAmount decimal.Decimal `json:"markup_amount"`
}

// ResolvedHospitality is one entry of the hospitality union for a
// scope. Level names the most specific level that granted the perk;
// legacy grants report their flat-table row id as AssignmentID.
type ResolvedHospitality struct {
	HospitalityID uint64 `json:"hospitality_id"`
	Source        Source `json:"source"`
	Level         Level  `json:"level,omitempty"`
	AssignmentID  uint64 `json:"assignment_id,omitempty"`
}
