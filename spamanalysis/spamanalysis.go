// Package spamanalysis scores captured emails with a rule-based analyzer at
// capture time. The analysis result rides inside the sealed metadata so the
// inbox owner can see the verdict after opening; nothing is ever rejected,
// a sandbox keeps spam and ham alike.
package spamanalysis

// Action is the recommended handling for an analyzed email.
type Action string

const (
	// ActionNoAction indicates the email looks clean.
	ActionNoAction Action = "no action"
	// ActionGreylist indicates a borderline score.
	ActionGreylist Action = "greylist"
	// ActionAddHeader indicates the email crossed the spam threshold.
	ActionAddHeader Action = "add header"
	// ActionReject indicates an overwhelming spam score.
	ActionReject Action = "reject"
)

// Status reports whether analysis ran.
type Status string

const (
	// StatusAnalyzed indicates the email was successfully analyzed.
	StatusAnalyzed Status = "analyzed"
	// StatusSkipped indicates analysis was skipped.
	StatusSkipped Status = "skipped"
	// StatusError indicates analysis failed.
	StatusError Status = "error"
)

// Symbol is one triggered rule. Positive scores are spam indicators,
// negative scores are ham indicators.
type Symbol struct {
	// Name is the rule identifier (e.g., "SUBJECT_UPPERCASE").
	Name string `json:"name"`
	// Score is the contribution from this rule.
	Score float64 `json:"score"`
	// Description is a human-readable description of what the rule detects.
	Description string `json:"description,omitempty"`
	// Options contains matched values, e.g. the offending URLs.
	Options []string `json:"options,omitempty"`
}

// Analysis is the spam analysis result for one email.
type Analysis struct {
	// Status indicates whether analysis ran.
	Status Status `json:"status"`
	// Score is the overall spam score; positive is spammier. Present only
	// when Status is "analyzed".
	Score *float64 `json:"score,omitempty"`
	// RequiredScore is the spam classification threshold.
	RequiredScore *float64 `json:"requiredScore,omitempty"`
	// Action is the recommended action derived from the score.
	Action Action `json:"action,omitempty"`
	// IsSpam is true when Score >= RequiredScore.
	IsSpam *bool `json:"isSpam,omitempty"`
	// Symbols lists the triggered rules.
	Symbols []Symbol `json:"symbols,omitempty"`
	// Info carries the skip reason or error message.
	Info string `json:"info,omitempty"`
}

// WasAnalyzed reports whether analysis ran successfully.
func (a *Analysis) WasAnalyzed() bool {
	return a != nil && a.Status == StatusAnalyzed
}

// GetScore returns the spam score, or nil if analysis did not run.
func (a *Analysis) GetScore() *float64 {
	if !a.WasAnalyzed() {
		return nil
	}
	return a.Score
}

// GetIsSpam returns the spam classification, or nil if analysis did not run.
func (a *Analysis) GetIsSpam() *bool {
	if !a.WasAnalyzed() {
		return nil
	}
	return a.IsSpam
}

// Verdict condenses an Analysis for display.
type Verdict struct {
	// Available is true when analysis ran; the remaining fields are only
	// meaningful then.
	Available bool
	IsSpam    bool
	Score     float64
	Action    Action
	// Reason carries the skip reason or error message when unavailable.
	Reason string
}

// Summarize condenses the analysis into a Verdict.
func (a *Analysis) Summarize() Verdict {
	if a == nil {
		return Verdict{Reason: "no spam analysis available"}
	}
	switch a.Status {
	case StatusAnalyzed:
		v := Verdict{Available: true, Action: a.Action}
		if a.Score != nil {
			v.Score = *a.Score
		}
		if a.IsSpam != nil {
			v.IsSpam = *a.IsSpam
		}
		return v
	case StatusSkipped, StatusError:
		return Verdict{Reason: a.Info}
	default:
		return Verdict{Reason: "unknown status"}
	}
}

// CategorizeSymbols groups symbols by their effect on the spam score:
// spam indicators (positive), ham indicators (negative) and informational
// (zero).
func CategorizeSymbols(symbols []Symbol) (positive, negative, neutral []Symbol) {
	for _, s := range symbols {
		switch {
		case s.Score > 0:
			positive = append(positive, s)
		case s.Score < 0:
			negative = append(negative, s)
		default:
			neutral = append(neutral, s)
		}
	}
	return
}
