// Package risk scores inbound messages for self-harm and safety risk using a
// remote language-model classifier with a local keyword fallback.
package risk

import "strings"

// Level represents the assessed risk level of a message.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Valid reports whether l is a known risk level.
func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh, LevelCritical:
		return true
	}
	return false
}

// AnalysisType selects the classifier instruction variant.
type AnalysisType string

const (
	AnalysisGeneral         AnalysisType = "general"
	AnalysisContentFilter   AnalysisType = "content_filter"
	AnalysisCrisisDetection AnalysisType = "crisis_detection"
)

// Source identifies which assessment path produced a verdict.
type Source string

const (
	SourceFastPath Source = "fast_path"
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// Verdict is the structured result of a risk assessment.
type Verdict struct {
	Level                 Level    `json:"risk_level"`
	Categories            []string `json:"risk_categories"`
	Confidence            float64  `json:"confidence_score"`
	Reasoning             string   `json:"reasoning"`
	RequiresHumanReview   bool     `json:"requires_human_review"`
	AutoResponseBlocked   bool     `json:"auto_response_blocked"`
	CrisisResourcesNeeded bool     `json:"crisis_resources_needed"`

	// Source is not part of the wire verdict; it is set by the classifier so
	// callers can track which path produced the score.
	Source Source `json:"-"`
}

// rawVerdict mirrors the JSON shape the model is asked to produce. Booleans are
// pointers so that "field absent" is distinguishable from "field false".
type rawVerdict struct {
	RiskLevel             string   `json:"risk_level"`
	RiskCategories        []string `json:"risk_categories"`
	ConfidenceScore       *float64 `json:"confidence_score"`
	Reasoning             string   `json:"reasoning"`
	RequiresHumanReview   *bool    `json:"requires_human_review"`
	AutoResponseBlocked   *bool    `json:"auto_response_blocked"`
	CrisisResourcesNeeded *bool    `json:"crisis_resources_needed"`
}

// normalize validates a parsed model verdict and fills in defaults:
// unknown level becomes medium, confidence is clamped to [0,1] (0.5 when
// absent), and the review/blocking flags default from the level.
func (r rawVerdict) normalize() Verdict {
	v := Verdict{
		Level:      Level(strings.ToLower(strings.TrimSpace(r.RiskLevel))),
		Categories: dedupeStrings(r.RiskCategories),
		Reasoning:  strings.TrimSpace(r.Reasoning),
	}
	if !v.Level.Valid() {
		v.Level = LevelMedium
	}

	if r.ConfidenceScore != nil {
		v.Confidence = clamp01(*r.ConfidenceScore)
	} else {
		v.Confidence = 0.5
	}

	elevated := v.Level == LevelHigh || v.Level == LevelCritical
	if r.RequiresHumanReview != nil {
		v.RequiresHumanReview = *r.RequiresHumanReview
	} else {
		v.RequiresHumanReview = elevated
	}
	if r.AutoResponseBlocked != nil {
		v.AutoResponseBlocked = *r.AutoResponseBlocked
	} else {
		v.AutoResponseBlocked = v.Level == LevelCritical
	}
	if r.CrisisResourcesNeeded != nil {
		v.CrisisResourcesNeeded = *r.CrisisResourcesNeeded
	} else {
		v.CrisisResourcesNeeded = elevated
	}

	return v
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// dedupeStrings removes duplicates preserving first-seen order.
func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
