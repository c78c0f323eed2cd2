// Package emailutil validates attendee email addresses before they are
// handed to the calendar backend: syntax, disposable-domain rejection,
// and typo suggestions against well-known providers.
package emailutil

import (
	"net/mail"
	"strings"
)

// commonDomains are the providers checked for near-miss typos.
var commonDomains = []string{
	"gmail.com", "yahoo.com", "hotmail.com", "outlook.com",
	"icloud.com", "aol.com", "protonmail.com", "zoho.com",
}

// disposableDomains are throwaway providers that make poor meeting
// invitees.
var disposableDomains = map[string]struct{}{
	"mailinator.com":    {},
	"guerrillamail.com": {},
	"10minutemail.com":  {},
	"tempmail.com":      {},
	"temp-mail.org":     {},
	"trashmail.com":     {},
	"yopmail.com":       {},
	"getnada.com":       {},
	"maildrop.cc":       {},
	"sharklasers.com":   {},
	"dispostable.com":   {},
}

// typoCutoff is the minimum similarity for a domain to count as a typo
// of a common provider.
const typoCutoff = 0.85

// Invalid describes one rejected address.
type Invalid struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// TypoSuggestion pairs a suspect address with its likely intended form.
type TypoSuggestion struct {
	Original   string `json:"original"`
	Suggestion string `json:"suggestion"`
}

// Report is the outcome of validating a list of addresses. An address
// appears in exactly one of the three lists.
type Report struct {
	Valid           []string         `json:"valid"`
	Invalid         []Invalid        `json:"invalid"`
	TypoSuggestions []TypoSuggestion `json:"typo_suggestions"`
}

// Clean reports whether every address validated without findings.
func (r Report) Clean() bool {
	return len(r.Invalid) == 0 && len(r.TypoSuggestions) == 0
}

// Validate checks each address for domain typos, disposable domains and
// syntax, in that order. A likely typo is held out for confirmation
// rather than accepted as valid. Blank entries are dropped.
func Validate(emails []string) Report {
	var report Report
	for _, email := range emails {
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}

		local, domain, hasAt := strings.Cut(email, "@")
		if hasAt && local != "" {
			domain = strings.ToLower(domain)
			if suggestion := closestCommonDomain(domain); suggestion != "" {
				report.TypoSuggestions = append(report.TypoSuggestions, TypoSuggestion{
					Original:   email,
					Suggestion: local + "@" + suggestion,
				})
				continue
			}
			if _, ok := disposableDomains[domain]; ok {
				report.Invalid = append(report.Invalid, Invalid{
					Email:  email,
					Reason: "Disposable email addresses are not allowed.",
				})
				continue
			}
		}

		if _, err := mail.ParseAddress(email); err != nil {
			report.Invalid = append(report.Invalid, Invalid{
				Email:  email,
				Reason: err.Error(),
			})
			continue
		}
		report.Valid = append(report.Valid, email)
	}
	return report
}

// closestCommonDomain returns the common provider the domain most
// resembles, or empty when the domain is exact or not close enough.
func closestCommonDomain(domain string) string {
	best := ""
	bestScore := typoCutoff
	for _, candidate := range commonDomains {
		if candidate == domain {
			return ""
		}
		if score := similarity(domain, candidate); score >= bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best
}

// similarity is an edit-distance ratio in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
