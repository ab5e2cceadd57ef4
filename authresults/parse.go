package authresults

import (
	"bufio"
	"bytes"
	"net/mail"
	"strings"
)

// ParseHeader parses an Authentication-Results header value (RFC 8601) into
// structured results. The leading authserv-id is skipped; unknown methods
// are ignored. Returns nil when the value carries no recognized methods.
func ParseHeader(value string) *AuthResults {
	clauses := strings.Split(value, ";")
	if len(clauses) < 2 {
		return nil
	}

	// First clause is the authserv-id, possibly with a version.
	out := &AuthResults{}
	found := false

	for _, clause := range clauses[1:] {
		clause = strings.TrimSpace(clause)
		if clause == "" || clause == "none" {
			continue
		}

		method, result, props := parseClause(clause)
		switch method {
		case "spf":
			out.SPF = &SPFResult{
				Result:  result,
				Domain:  firstOf(props, "smtp.mailfrom", "smtp.helo"),
				IP:      props["smtp.remote-ip"],
				Details: props["reason"],
			}
			found = true
		case "dkim":
			out.DKIM = append(out.DKIM, DKIMResult{
				Result:   result,
				Domain:   props["header.d"],
				Selector: props["header.s"],
				Info:     props["reason"],
			})
			found = true
		case "dmarc":
			out.DMARC = &DMARCResult{
				Result: result,
				Policy: firstOf(props, "policy.dmarc", "policy"),
				Domain: props["header.from"],
				Info:   props["reason"],
			}
			found = true
		case "iprev":
			out.ReverseDNS = &ReverseDNSResult{
				Result:   result,
				IP:       props["policy.iprev"],
				Hostname: props["ptr"],
			}
			found = true
		}
	}

	if !found {
		return nil
	}
	return out
}

// parseClause splits one resinfo clause, e.g.
// `dkim=pass header.d=example.com header.s=sel (good signature)`.
func parseClause(clause string) (method, result string, props map[string]string) {
	props = make(map[string]string)

	for _, field := range strings.Fields(stripComments(clause)) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(key)
		if method == "" {
			method = key
			result = strings.ToLower(value)
			continue
		}
		// reason="..." values may be quoted
		props[key] = strings.Trim(value, `"`)
	}
	return method, result, props
}

// stripComments removes CFWS comments in parentheses.
func stripComments(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func firstOf(props map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := props[k]; v != "" {
			return v
		}
	}
	return ""
}

// ParseMessage extracts authentication results from a raw RFC 5322 message,
// reading the topmost Authentication-Results header. Returns nil when the
// message has none or it cannot be parsed.
func ParseMessage(raw []byte) *AuthResults {
	msg, err := mail.ReadMessage(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return nil
	}
	value := msg.Header.Get("Authentication-Results")
	if value == "" {
		return nil
	}
	return ParseHeader(value)
}
