// Package authresults models email authentication outcomes (SPF, DKIM,
// DMARC, reverse DNS) and parses them from Authentication-Results headers at
// capture time. The results ride inside the sealed metadata so the inbox
// owner can inspect them after opening.
package authresults

import (
	"errors"
	"fmt"
	"strings"
)

// AuthResults contains all email authentication check results.
type AuthResults struct {
	SPF        *SPFResult        `json:"spf,omitempty"`
	DKIM       []DKIMResult      `json:"dkim,omitempty"`
	DMARC      *DMARCResult      `json:"dmarc,omitempty"`
	ReverseDNS *ReverseDNSResult `json:"reverseDns,omitempty"`
}

// SPFResult represents an SPF check result.
type SPFResult struct {
	Result  string `json:"result"` // pass, fail, softfail, neutral, none, temperror, permerror, skipped
	Domain  string `json:"domain,omitempty"`
	IP      string `json:"ip,omitempty"`
	Details string `json:"details,omitempty"`
}

// DKIMResult represents one DKIM signature check result.
type DKIMResult struct {
	Result   string `json:"result"` // pass, fail, none, skipped
	Domain   string `json:"domain,omitempty"`
	Selector string `json:"selector,omitempty"`
	Info     string `json:"info,omitempty"`
}

// DMARCResult represents a DMARC check result.
type DMARCResult struct {
	Result string `json:"result"` // pass, fail, none, skipped
	Policy string `json:"policy,omitempty"` // none, quarantine, reject
	Domain string `json:"domain,omitempty"`
	Info   string `json:"info,omitempty"`
}

// ReverseDNSResult represents a reverse DNS (iprev) check result.
type ReverseDNSResult struct {
	Result   string `json:"result"` // pass, fail, none, skipped
	IP       string `json:"ip,omitempty"`
	Hostname string `json:"hostname,omitempty"`
}

// Summary condenses the individual checks into pass/fail flags. A check
// that was skipped does not count as a failure.
type Summary struct {
	// Passed indicates whether all primary checks (SPF, DKIM, DMARC) passed.
	Passed bool `json:"passed"`
	// SPFPassed indicates whether the SPF check passed.
	SPFPassed bool `json:"spfPassed"`
	// DKIMPassed indicates whether at least one DKIM signature passed.
	DKIMPassed bool `json:"dkimPassed"`
	// DMARCPassed indicates whether the DMARC check passed.
	DMARCPassed bool `json:"dmarcPassed"`
	// ReverseDNSPassed indicates whether the reverse DNS check passed.
	ReverseDNSPassed bool `json:"reverseDnsPassed"`
	// Failures contains descriptive messages for any failed checks.
	Failures []string `json:"failures"`
}

func passing(result string) bool {
	return result == "pass" || result == "skipped"
}

// Summarize evaluates the authentication results into a Summary.
func (a *AuthResults) Summarize() Summary {
	if a == nil {
		return Summary{Failures: []string{"no authentication results available"}}
	}

	var failures []string

	spfPassed := a.SPF != nil && passing(a.SPF.Result)
	if a.SPF != nil && !spfPassed {
		msg := "SPF check failed: " + a.SPF.Result
		if a.SPF.Domain != "" {
			msg += " (domain: " + a.SPF.Domain + ")"
		}
		failures = append(failures, msg)
	}

	dkimPassed := dkimPassing(a.DKIM)
	if len(a.DKIM) > 0 && !dkimPassed {
		var failedDomains []string
		for _, d := range a.DKIM {
			if !passing(d.Result) && d.Domain != "" {
				failedDomains = append(failedDomains, d.Domain)
			}
		}
		msg := "DKIM signature failed"
		if len(failedDomains) > 0 {
			msg += ": " + strings.Join(failedDomains, ", ")
		}
		failures = append(failures, msg)
	}

	dmarcPassed := a.DMARC != nil && passing(a.DMARC.Result)
	if a.DMARC != nil && !dmarcPassed {
		msg := "DMARC policy: " + a.DMARC.Result
		if a.DMARC.Policy != "" {
			msg += " (policy: " + a.DMARC.Policy + ")"
		}
		failures = append(failures, msg)
	}

	reverseDNSPassed := a.ReverseDNS != nil && passing(a.ReverseDNS.Result)
	if a.ReverseDNS != nil && !reverseDNSPassed {
		msg := "Reverse DNS check failed"
		if a.ReverseDNS.Hostname != "" {
			msg += " (hostname: " + a.ReverseDNS.Hostname + ")"
		}
		failures = append(failures, msg)
	}

	if failures == nil {
		failures = []string{}
	}

	return Summary{
		Passed:           spfPassed && dkimPassed && dmarcPassed,
		SPFPassed:        spfPassed,
		DKIMPassed:       dkimPassed,
		DMARCPassed:      dmarcPassed,
		ReverseDNSPassed: reverseDNSPassed,
		Failures:         failures,
	}
}

// dkimPassing reports whether at least one signature passed, or every
// signature was skipped.
func dkimPassing(results []DKIMResult) bool {
	if len(results) == 0 {
		return false
	}
	allSkipped := true
	for _, d := range results {
		if d.Result == "pass" {
			return true
		}
		if d.Result != "skipped" {
			allSkipped = false
		}
	}
	return allSkipped
}

// IsPassing reports whether all primary checks (SPF, DKIM, DMARC) passed.
// Reverse DNS is not included.
func (a *AuthResults) IsPassing() bool {
	return a.Summarize().Passed
}

var (
	// ErrSPFFailed is returned when the SPF check failed.
	ErrSPFFailed = errors.New("SPF check failed")

	// ErrDKIMFailed is returned when no DKIM signature passed.
	ErrDKIMFailed = errors.New("DKIM check failed")

	// ErrDMARCFailed is returned when the DMARC check failed.
	ErrDMARCFailed = errors.New("DMARC check failed")

	// ErrNoAuthResults is returned when no auth results are available.
	ErrNoAuthResults = errors.New("no authentication results available")
)

// ValidationError aggregates the per-check failures from Verify.
type ValidationError struct {
	SPF   error
	DKIM  error
	DMARC error
}

func (e *ValidationError) Error() string {
	var parts []string
	if e.SPF != nil {
		parts = append(parts, fmt.Sprintf("SPF: %v", e.SPF))
	}
	if e.DKIM != nil {
		parts = append(parts, fmt.Sprintf("DKIM: %v", e.DKIM))
	}
	if e.DMARC != nil {
		parts = append(parts, fmt.Sprintf("DMARC: %v", e.DMARC))
	}
	if len(parts) == 0 {
		return "validation failed"
	}
	return strings.Join(parts, "; ")
}

// Verify returns nil when all primary checks passed, or a ValidationError
// describing each failed check.
func Verify(results *AuthResults) error {
	if results == nil {
		return ErrNoAuthResults
	}

	var verr ValidationError
	failed := false

	if results.SPF != nil && !passing(results.SPF.Result) {
		verr.SPF = fmt.Errorf("%w: %s", ErrSPFFailed, results.SPF.Result)
		failed = true
	}
	if len(results.DKIM) > 0 && !dkimPassing(results.DKIM) {
		verr.DKIM = fmt.Errorf("%w: no signature passed", ErrDKIMFailed)
		failed = true
	}
	if results.DMARC != nil && !passing(results.DMARC.Result) {
		verr.DMARC = fmt.Errorf("%w: %s", ErrDMARCFailed, results.DMARC.Result)
		failed = true
	}

	if failed {
		return &verr
	}
	return nil
}
