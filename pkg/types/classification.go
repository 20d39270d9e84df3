package types

import "strings"

// Classification is the relationship category of a contact.
type Classification string

// Contact classification constants
const (
	ClassificationFounder      Classification = "founder"
	ClassificationInvestor     Classification = "investor"
	ClassificationEnabler      Classification = "enabler"
	ClassificationProfessional Classification = "professional"
)

// ValidClassifications contains all valid classification values
var ValidClassifications = []Classification{
	ClassificationFounder,
	ClassificationInvestor,
	ClassificationEnabler,
	ClassificationProfessional,
}

// classificationSynonyms maps words users and LLMs commonly use to the
// canonical classification.
var classificationSynonyms = map[string]Classification{
	"founder":      ClassificationFounder,
	"founders":     ClassificationFounder,
	"co-founder":   ClassificationFounder,
	"cofounder":    ClassificationFounder,
	"ceo":          ClassificationFounder,
	"entrepreneur": ClassificationFounder,
	"startup":      ClassificationFounder,
	"investor":     ClassificationInvestor,
	"investors":    ClassificationInvestor,
	"vc":           ClassificationInvestor,
	"angel":        ClassificationInvestor,
	"lp":           ClassificationInvestor,
	"partner":      ClassificationInvestor,
	"enabler":      ClassificationEnabler,
	"enablers":     ClassificationEnabler,
	"advisor":      ClassificationEnabler,
	"mentor":       ClassificationEnabler,
	"accelerator":  ClassificationEnabler,
	"incubator":    ClassificationEnabler,
	"government":   ClassificationEnabler,
	"professional": ClassificationProfessional,
	"employee":     ClassificationProfessional,
	"consultant":   ClassificationProfessional,
	"other":        ClassificationProfessional,
}

// IsValid reports whether c is one of the four enumerated classifications.
// The empty value is not valid; callers check for "not set" separately.
func (c Classification) IsValid() bool {
	for _, v := range ValidClassifications {
		if c == v {
			return true
		}
	}
	return false
}

// ParseClassification maps a free-text value (case-insensitive, synonyms
// allowed) to a Classification. The second return is false when the value
// does not name any known category.
func ParseClassification(value string) (Classification, bool) {
	key := strings.ToLower(strings.TrimSpace(value))
	key = strings.TrimSuffix(key, ".")
	if c, ok := classificationSynonyms[key]; ok {
		return c, true
	}
	return "", false
}
