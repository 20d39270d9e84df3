package intent

import (
	"regexp"
	"strings"

	"github.com/scrypster/rolodex/pkg/types"
)

var (
	emailPattern    = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	phonePattern    = regexp.MustCompile(`(?:\+?\d{1,3}[\s.\-]?)?(?:\(\d{2,4}\)|\d{2,4})[\s.\-]?\d{3,4}[\s.\-]?\d{3,4}`)
	linkedInPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z]{2,3}\.)?linkedin\.com/(?:in|pub|company)/[a-z0-9_\-%.]+/?`)
	handlePattern   = regexp.MustCompile(`^[A-Za-z0-9_\-]{3,100}$`)
)

// fillerWords are stripped from the front of extracted values:
// "his email is jane@acme.com" becomes "jane@acme.com".
var fillerWords = map[string]bool{
	"his": true, "her": true, "their": true, "my": true, "the": true,
	"is": true, "are": true, "was": true, "a": true, "an": true,
	"its": true, "it's": true, "as": true, "to": true, "be": true,
	"now": true, "actually": true, "also": true,
	"at": true, ":": true, "=": true, "-": true,
}

const valuePunctuation = " \t\r\n.,;:!?\"'`()[]"

// CleanEntities turns raw extracted entities into typed contact fields.
// Unknown keys and empty values are dropped; leading filler words and
// trailing punctuation are stripped; emails are lowercased; LinkedIn values
// become https URLs; classifications are canonicalized or dropped.
func CleanEntities(raw map[string]string) map[types.ContactField]string {
	out := make(map[types.ContactField]string, len(raw))
	for k, v := range raw {
		f, err := types.ParseContactField(k)
		if err != nil {
			continue
		}
		if cleaned := cleanValue(f, v); cleaned != "" {
			out[f] = cleaned
		}
	}
	return out
}

func cleanValue(f types.ContactField, v string) string {
	switch f {
	case types.FieldEmail:
		return strings.ToLower(emailPattern.FindString(v))
	case types.FieldPhone:
		return cleanPhone(v)
	case types.FieldLinkedIn:
		if linkedInPattern.MatchString(v) {
			return normalizeLinkedIn(v)
		}
	}

	v = stripFiller(f, v)
	if v == "" {
		return ""
	}
	switch f {
	case types.FieldLinkedIn:
		return normalizeLinkedIn(v)
	case types.FieldClassification:
		if c, ok := types.ParseClassification(v); ok {
			return string(c)
		}
		return ""
	}
	return v
}

// stripFiller removes leading filler words and words naming the field itself.
func stripFiller(f types.ContactField, v string) string {
	v = strings.Trim(v, valuePunctuation)
	if f == types.FieldNotes || f == types.FieldResearch {
		return v
	}
	words := strings.Fields(v)
	for len(words) > 1 {
		w := strings.ToLower(strings.Trim(words[0], valuePunctuation))
		if w == "" || fillerWords[w] || namesField(f, w) {
			words = words[1:]
			continue
		}
		break
	}
	return strings.Trim(strings.Join(words, " "), valuePunctuation)
}

func namesField(f types.ContactField, word string) bool {
	parsed, err := types.ParseContactField(word)
	if err == nil && parsed == f {
		return true
	}
	switch f {
	case types.FieldPhone:
		return word == "number" || word == "cell" || word == "tel"
	case types.FieldEmail:
		return word == "e-mail" || word == "mail"
	case types.FieldLinkedIn:
		return word == "profile" || word == "url"
	}
	return false
}

func cleanPhone(v string) string {
	m := phonePattern.FindString(v)
	if m == "" {
		return ""
	}
	digits := 0
	for _, r := range m {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 7 {
		return ""
	}
	return strings.TrimSpace(m)
}

func normalizeLinkedIn(v string) string {
	if m := linkedInPattern.FindString(v); m != "" {
		m = strings.TrimRight(m, "/")
		lower := strings.ToLower(m)
		switch {
		case strings.HasPrefix(lower, "https://"):
			return m
		case strings.HasPrefix(lower, "http://"):
			return "https://" + m[len("http://"):]
		default:
			return "https://" + m
		}
	}
	if handlePattern.MatchString(v) {
		return "https://www.linkedin.com/in/" + v
	}
	return ""
}

// ExtractPatterns pulls the high-precision entities (email, phone, LinkedIn
// URL) out of free text. These are safe to trust regardless of intent.
func ExtractPatterns(text string) map[types.ContactField]string {
	out := make(map[types.ContactField]string, 3)
	if m := emailPattern.FindString(text); m != "" {
		out[types.FieldEmail] = strings.ToLower(m)
		text = strings.Replace(text, m, " ", 1)
	}
	if m := linkedInPattern.FindString(text); m != "" {
		out[types.FieldLinkedIn] = normalizeLinkedIn(m)
		text = strings.Replace(text, m, " ", 1)
	}
	if p := cleanPhone(text); p != "" {
		out[types.FieldPhone] = p
	}
	return out
}
