package spamanalysis

import (
	"strings"
	"unicode"
)

// Input is the material the analyzer inspects.
type Input struct {
	From    string
	Subject string
	Text    string
	HTML    string
	Links   []string
}

// Analyzer scores emails against a fixed rule set.
type Analyzer struct {
	// RequiredScore is the spam classification threshold.
	RequiredScore float64
	// RejectScore is the threshold for the reject action.
	RejectScore float64
}

// DefaultRequiredScore is the default spam classification threshold.
const DefaultRequiredScore = 6.0

// NewAnalyzer returns an analyzer with default thresholds.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		RequiredScore: DefaultRequiredScore,
		RejectScore:   DefaultRequiredScore * 2.5,
	}
}

var spamPhrases = []string{
	"free money",
	"act now",
	"100% free",
	"winner",
	"click here",
	"limited time offer",
	"no obligation",
}

var shortenerHosts = []string{
	"bit.ly",
	"tinyurl.com",
	"t.co",
	"goo.gl",
}

// Analyze scores the input and returns an analyzed result. It never fails;
// callers that skip analysis should construct a StatusSkipped Analysis
// themselves.
func (an *Analyzer) Analyze(in Input) *Analysis {
	var symbols []Symbol

	if in.From == "" {
		symbols = append(symbols, Symbol{
			Name:        "FROM_MISSING",
			Score:       2.0,
			Description: "message has no From address",
		})
	}

	if isShouting(in.Subject) {
		symbols = append(symbols, Symbol{
			Name:        "SUBJECT_UPPERCASE",
			Score:       2.0,
			Description: "subject is entirely uppercase",
		})
	}

	lowered := strings.ToLower(in.Subject + " " + in.Text)
	for _, phrase := range spamPhrases {
		if strings.Contains(lowered, phrase) {
			symbols = append(symbols, Symbol{
				Name:        "SPAM_PHRASE",
				Score:       2.5,
				Description: "body or subject contains a known spam phrase",
				Options:     []string{phrase},
			})
			break
		}
	}

	if len(in.Links) > 5 {
		symbols = append(symbols, Symbol{
			Name:        "MANY_LINKS",
			Score:       1.5,
			Description: "message contains an unusual number of links",
		})
	}

	if shortened := shortenedLinks(in.Links); len(shortened) > 0 {
		symbols = append(symbols, Symbol{
			Name:        "URL_SHORTENER",
			Score:       1.5,
			Description: "message links through a URL shortener",
			Options:     shortened,
		})
	}

	if in.Text == "" && in.HTML != "" {
		symbols = append(symbols, Symbol{
			Name:        "HTML_ONLY",
			Score:       0.5,
			Description: "message has an HTML part but no text part",
		})
	}

	if in.Text == "" && in.HTML == "" {
		symbols = append(symbols, Symbol{
			Name:        "BODY_EMPTY",
			Score:       1.0,
			Description: "message body is empty",
		})
	}

	score := 0.0
	for _, s := range symbols {
		score += s.Score
	}

	isSpam := score >= an.RequiredScore
	required := an.RequiredScore

	return &Analysis{
		Status:        StatusAnalyzed,
		Score:         &score,
		RequiredScore: &required,
		Action:        an.action(score),
		IsSpam:        &isSpam,
		Symbols:       symbols,
	}
}

func (an *Analyzer) action(score float64) Action {
	switch {
	case score >= an.RejectScore:
		return ActionReject
	case score >= an.RequiredScore:
		return ActionAddHeader
	case score >= an.RequiredScore*0.7:
		return ActionGreylist
	default:
		return ActionNoAction
	}
}

// isShouting reports whether s contains at least eight letters, all of them
// uppercase.
func isShouting(s string) bool {
	letters := 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.IsLower(r) {
			return false
		}
		letters++
	}
	return letters >= 8
}

func shortenedLinks(links []string) []string {
	var out []string
	for _, link := range links {
		lowered := strings.ToLower(link)
		for _, host := range shortenerHosts {
			if strings.Contains(lowered, "//"+host+"/") || strings.Contains(lowered, "//www."+host+"/") {
				out = append(out, link)
				break
			}
		}
	}
	return out
}

// Skipped returns an Analysis recording that analysis did not run.
func Skipped(reason string) *Analysis {
	return &Analysis{Status: StatusSkipped, Info: reason}
}
