package intent

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/scrypster/rolodex/pkg/types"
)

const queryFieldWords = `email|e-mail|phone number|phone|number|title|role|company|linkedin|location|address|industry|type|classification|notes`

var (
	cancelRe    = regexp.MustCompile(`(?i)^(?:cancel|never\s?mind|forget (?:it|that|this)|abort|discard|scrap that)\b`)
	finishRe    = regexp.MustCompile(`(?i)^(?:done|save(?: it| this| that| contact)?|finish(?:ed)?|complete|that'?s (?:all|it)|that is (?:all|it)|all done|i'?m done|we'?re done)[\s.!]*$`)
	helpRe      = regexp.MustCompile(`(?i)^(?:help|commands|what can you do|how does this work|\?)[\s?!.]*$`)
	thanksRe    = regexp.MustCompile(`(?i)^(?:thanks|thank you|thx|ty|cheers|much appreciated)\b`)
	greetingRe  = regexp.MustCompile(`(?i)^(?:hi|hello|hey|hiya|howdy|yo|good (?:morning|afternoon|evening))(?:\s+there)?[\s!.,]*$`)
	unlockRe    = regexp.MustCompile(`(?i)^(?:edit|unlock|reopen|modify)\s+(?:contact\s+)?(.+?)[\s.!]*$`)
	introRe     = regexp.MustCompile(`(?i)^(?:intro(?:duce)?|connect)\s+(.+?)\s+(?:to|with)\s+(.+?)[\s.!?]*$`)
	queryRe     = regexp.MustCompile(`(?i)^(?:what(?:'s| is)|whats|give me|get)\s+(.+?)(?:'s|s'|’s)\s+(` + queryFieldWords + `)[\s?.]*$`)
	queryOfRe   = regexp.MustCompile(`(?i)^(?:what(?:'s| is)|whats|give me|get)\s+(?:the\s+)?(` + queryFieldWords + `)\s+(?:of|for)\s+(.+?)[\s?.]*$`)
	viewRe      = regexp.MustCompile(`(?i)^(?:show|view|display|open|look\s?up|pull up|who is|who's)\s+(?:me\s+)?(?:contact\s+)?(.+?)[\s.!?]*$`)
	researchRe  = regexp.MustCompile(`(?i)^(?:research|look into|dig into|background on)\s+(.+?)[\s.!?]*$`)
	searchRe    = regexp.MustCompile(`(?i)^(?:find|search(?:\s+for)?|look\s+for|list)\b\s*(.*?)[\s.!?]*$`)
	summarizeRe = regexp.MustCompile(`(?i)\b(?:summari[sz]e|summary|recap)\b`)
	addRe       = regexp.MustCompile(`(?i)^(?:add|create|new)\b(?:\s+an?\b)?(?:\s+new\b)?(?:\s+(?:contact|person)\b)?(?:\s*[:\-])?\s*(.*)$`)
	confirmRe   = regexp.MustCompile(`(?i)^(?:yes|yeah|yep|yup|ok|okay|sure|correct|right|y|sounds good|looks good|go ahead)[\s.!]*$`)
	denyRe      = regexp.MustCompile(`(?i)^(?:no|nope|nah|n|not really|no thanks)[\s.!]*$`)

	worksAtRe  = regexp.MustCompile(`(?i)\b(?:works?|working|employed)\s+(?:at|for)\s+([^,;.!?]+)`)
	titleAtRe  = regexp.MustCompile(`(?i)\b(` + titleWords + `)\s+(?:at|@)\s+([^,;.!?]+)`)
	titleOfRe  = regexp.MustCompile(`\b((?i:` + titleWords + `))\s+of\s+(\p{Lu}[^,;.!?]*)`)
	titleRe    = regexp.MustCompile(`(?i)\b(` + titleWords + `)\b`)
	keyValueRe = regexp.MustCompile(`(?i)\b(email|phone|title|role|company|linkedin|location|industry|classification|type)\s*(?:is|:|=)\s*([^,;]+)`)
	classRe    = regexp.MustCompile(`(?i)\b(?:(?:is|he's|she's|they're|they are)\s+(?:a|an)|classif(?:y|ied)(?:\s+(?:him|her|them))?\s+as|mark(?:\s+(?:him|her|them))?\s+as|type\s*(?::|is))\s+(founder|investor|enabler|professional|vc|angel|advisor|mentor|consultant|entrepreneur)\b`)
	locationRe = regexp.MustCompile(`(?i)\b(?:based in|lives in|located in|living in)\s+([^,;.!?]+)`)
	industryRe = regexp.MustCompile(`(?i)\b(?:in the|works in)\s+([a-z][a-z &\-]*?)\s+(?:industry|space|sector)\b`)
	notesRe    = regexp.MustCompile(`(?i)\b(?:notes?|remember)\s*(?::|that)\s*(.+)$`)

	leadingNameRe = regexp.MustCompile(`^(\p{Lu}[\p{L}'\-]+(?:\s+\p{Lu}[\p{L}'\-]+){0,3})(?:\s*,|\s+(?:is|works|from|at)\b|'s\b|’s\b)`)
)

const titleWords = `chief [a-z]+ officer|ceo|cto|cfo|coo|cmo|cpo|co-?founder|founder|(?:senior |svp |evp )?vp(?: of [a-z]+)?|vice president(?: of [a-z]+)?|(?:managing |general )?director(?: of [a-z]+)?|head of [a-z]+|(?:product|engineering|sales|marketing|general) manager|(?:senior |staff |principal )?engineer|managing partner|general partner|venture partner|president|principal|analyst|designer|developer`

var acronymTitles = map[string]bool{
	"ceo": true, "cto": true, "cfo": true, "coo": true, "cmo": true, "cpo": true, "vp": true,
}

// nameStopWords disqualify a phrase as a person name when they lead it.
var nameStopWords = map[string]bool{
	"he": true, "she": true, "they": true, "his": true, "her": true, "their": true,
	"the": true, "a": true, "an": true, "also": true, "and": true, "yes": true,
	"no": true, "what": true, "who": true, "it": true, "this": true, "that": true,
	"i": true, "my": true, "we": true, "our": true, "email": true, "phone": true,
	"note": true, "notes": true, "please": true, "ok": true, "okay": true,
}

// nameDelimiters end a candidate name inside an "add ..." request.
var nameDelimiters = regexp.MustCompile(`(?i)\s*(?:,|;|\s-\s|\s+(?:who|from|at|works?|is|was|email|phone|linkedin|title|role|the|a|an|ceo|cto|cfo|coo|founder|co-founder)\b|\s+\S+@|\s+\+?\d)`)

// RuleResolver is the deterministic keyword and pattern resolver. It is
// "dumb but functional" when no LLM is reachable and never returns an error.
type RuleResolver struct{}

// NewRuleResolver creates a RuleResolver.
func NewRuleResolver() *RuleResolver { return &RuleResolver{} }

// Resolve classifies text against a fixed table of keyword rules, then falls
// back to entity extraction. A bare yes resolves to confirm only when no
// stronger rule matched.
func (r *RuleResolver) Resolve(_ context.Context, text string, c types.ConversationContext) (*types.IntentResult, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return types.UnknownResult(types.SourceRules), nil
	}

	res := func(i types.Intent, confidence float64) *types.IntentResult {
		return &types.IntentResult{
			Intent:     i,
			Entities:   map[types.ContactField]string{},
			Confidence: confidence,
			Source:     types.SourceRules,
		}
	}

	switch {
	case cancelRe.MatchString(t):
		return res(types.IntentCancel, 0.9), nil
	case finishRe.MatchString(t):
		return res(types.IntentFinish, 0.9), nil
	case helpRe.MatchString(t):
		return res(types.IntentHelp, 0.9), nil
	case thanksRe.MatchString(t):
		return res(types.IntentThanks, 0.8), nil
	case greetingRe.MatchString(t):
		return res(types.IntentGreeting, 0.8), nil
	}

	if m := unlockRe.FindStringSubmatch(t); m != nil {
		out := res(types.IntentUnlock, 0.8)
		out.TargetContact = cleanName(m[1])
		return out, nil
	}
	if m := introRe.FindStringSubmatch(t); m != nil {
		out := res(types.IntentIntro, 0.8)
		out.ActionRequest = cleanName(m[1])
		out.TargetContact = cleanName(m[2])
		return out, nil
	}
	if m := queryRe.FindStringSubmatch(t); m != nil {
		out := res(types.IntentQueryContact, 0.8)
		out.TargetContact = cleanName(m[1])
		out.QueryField = queryField(m[2])
		return out, nil
	}
	if m := queryOfRe.FindStringSubmatch(t); m != nil {
		out := res(types.IntentQueryContact, 0.8)
		out.QueryField = queryField(m[1])
		out.TargetContact = cleanName(m[2])
		return out, nil
	}
	if m := researchRe.FindStringSubmatch(t); m != nil {
		out := res(types.IntentSearch, 0.7)
		out.TargetContact = cleanName(m[1])
		out.ActionRequest = "research"
		return out, nil
	}
	if m := viewRe.FindStringSubmatch(t); m != nil {
		target := strings.ToLower(strings.TrimSpace(m[1]))
		if isEveryone(target) {
			return res(types.IntentSearch, 0.7), nil
		}
		out := res(types.IntentViewContact, 0.7)
		out.TargetContact = cleanName(m[1])
		return out, nil
	}
	if m := searchRe.FindStringSubmatch(t); m != nil {
		out := res(types.IntentSearch, 0.7)
		if q := strings.TrimSpace(m[1]); !isEveryone(strings.ToLower(q)) {
			out.ActionRequest = q
		}
		return out, nil
	}
	if summarizeRe.MatchString(t) {
		return res(types.IntentSummarize, 0.7), nil
	}

	if m := addRe.FindStringSubmatch(t); m != nil {
		rest := strings.TrimSpace(m[1])
		name, remainder := extractName(rest)
		if name != "" || rest == "" || !startsWithField(rest) {
			out := res(types.IntentAddContact, 0.7)
			out.TargetContact = name
			out.Entities = extractEntities(remainder, true)
			delete(out.Entities, types.FieldName)
			return out, nil
		}
	}

	collecting := c.State == types.StateCollecting || c.ActiveTaskType == types.TaskContactDraft
	name, possessive := leadingName(t)
	entities := extractEntities(t, collecting || name != "")
	if name != "" {
		delete(entities, types.FieldName)
	}

	if len(entities) > 0 || name != "" {
		switch {
		case name == "" || (c.PendingName != "" && types.NormalizeName(name) == types.NormalizeName(c.PendingName)):
			out := res(types.IntentUpdateContact, 0.6)
			out.Entities = entities
			return out, nil
		case possessive || isLockedName(name, c.LockedContacts):
			out := res(types.IntentUpdateContact, 0.6)
			out.TargetContact = name
			out.Entities = entities
			return out, nil
		case len(entities) > 0:
			out := res(types.IntentAddContact, 0.6)
			out.TargetContact = name
			out.Entities = entities
			return out, nil
		}
	}

	switch {
	case confirmRe.MatchString(t):
		return res(types.IntentConfirm, 0.5), nil
	case denyRe.MatchString(t):
		return res(types.IntentDeny, 0.5), nil
	case strings.HasSuffix(t, "?") || startsWithQuestionWord(t):
		out := res(types.IntentGeneralRequest, 0.3)
		out.ActionRequest = t
		return out, nil
	}
	return types.UnknownResult(types.SourceRules), nil
}

// extractEntities runs every entity rule over text. Title keyword detection
// only runs when withTitles is set, since bare words like "director" are too
// ambiguous outside of an active draft.
func extractEntities(text string, withTitles bool) map[types.ContactField]string {
	out := ExtractPatterns(text)
	set := func(f types.ContactField, v string) {
		if _, ok := out[f]; ok {
			return
		}
		if cleaned := cleanValue(f, v); cleaned != "" {
			out[f] = cleaned
		}
	}

	for _, m := range keyValueRe.FindAllStringSubmatch(text, -1) {
		if f, err := types.ParseContactField(m[1]); err == nil {
			set(f, m[2])
		}
	}
	if m := worksAtRe.FindStringSubmatch(text); m != nil {
		set(types.FieldCompany, m[1])
	}
	if m := classRe.FindStringSubmatch(text); m != nil {
		set(types.FieldClassification, m[1])
	}
	if m := locationRe.FindStringSubmatch(text); m != nil {
		set(types.FieldLocation, m[1])
	}
	if m := industryRe.FindStringSubmatch(text); m != nil {
		set(types.FieldIndustry, m[1])
	}
	if m := notesRe.FindStringSubmatch(text); m != nil {
		set(types.FieldNotes, m[1])
	}
	if withTitles {
		if m := titleAtRe.FindStringSubmatch(text); m != nil {
			set(types.FieldTitle, formatTitle(m[1]))
			set(types.FieldCompany, m[2])
		} else if m := titleOfRe.FindStringSubmatch(text); m != nil {
			set(types.FieldTitle, formatTitle(m[1]))
			set(types.FieldCompany, m[2])
		} else if m := titleRe.FindStringSubmatch(text); m != nil {
			set(types.FieldTitle, formatTitle(m[1]))
		}
	}
	return out
}

func formatTitle(t string) string {
	words := strings.Fields(t)
	for i, w := range words {
		lw := strings.ToLower(w)
		switch {
		case acronymTitles[lw] || lw == "svp" || lw == "evp":
			words[i] = strings.ToUpper(lw)
		case lw == "of":
			words[i] = lw
		default:
			words[i] = upperFirst(lw)
		}
	}
	return strings.Join(words, " ")
}

// extractName reads a person name from the front of an "add" request and
// returns it with the text that follows it. Without a name the whole input
// is the remainder.
func extractName(rest string) (name, remainder string) {
	if rest == "" {
		return "", ""
	}
	candidate, remainder := rest, ""
	if loc := nameDelimiters.FindStringIndex(rest); loc != nil {
		candidate, remainder = rest[:loc[0]], rest[loc[0]:]
	}
	candidate = strings.TrimSpace(candidate)
	if strings.HasPrefix(strings.ToLower(candidate), "named ") {
		candidate = strings.TrimSpace(candidate[len("named "):])
	}
	words := strings.Fields(candidate)
	if len(words) == 0 || len(words) > 4 || nameStopWords[strings.ToLower(words[0])] {
		return "", rest
	}
	for _, w := range words {
		if !isNameWord(w) {
			return "", rest
		}
	}
	return cleanName(candidate), strings.TrimSpace(remainder)
}

// leadingName detects "Jane Doe is ..." or "Jane's email ..." openings.
func leadingName(t string) (name string, possessive bool) {
	m := leadingNameRe.FindStringSubmatch(t)
	if m == nil {
		return "", false
	}
	first := strings.ToLower(strings.Fields(m[1])[0])
	if nameStopWords[first] {
		return "", false
	}
	if _, err := types.ParseContactField(first); err == nil {
		return "", false
	}
	if titleRe.MatchString(m[1]) {
		return "", false
	}
	after := t[len(m[1]):]
	possessive = strings.HasPrefix(after, "'s") || strings.HasPrefix(after, "’s")
	return m[1], possessive
}

func isNameWord(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) && r != '\'' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}

// cleanName trims punctuation and title-cases an all-lowercase name.
func cleanName(s string) string {
	s = strings.Trim(strings.TrimSpace(s), valuePunctuation)
	if s == strings.ToLower(s) {
		words := strings.Fields(s)
		for i, w := range words {
			words[i] = upperFirst(w)
		}
		s = strings.Join(words, " ")
	}
	return s
}

func upperFirst(w string) string {
	if w == "" {
		return w
	}
	r := []rune(w)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func queryField(word string) types.ContactField {
	switch strings.ToLower(word) {
	case "number", "phone number":
		return types.FieldPhone
	case "e-mail":
		return types.FieldEmail
	}
	f, err := types.ParseContactField(word)
	if err != nil {
		return ""
	}
	return f
}

func startsWithField(rest string) bool {
	words := strings.Fields(rest)
	if len(words) == 0 {
		return false
	}
	w := strings.ToLower(strings.Trim(words[0], valuePunctuation))
	if nameStopWords[w] {
		return true
	}
	_, err := types.ParseContactField(w)
	return err == nil
}

func isLockedName(name string, locked []string) bool {
	key := types.NormalizeName(name)
	for _, l := range locked {
		if l == key {
			return true
		}
	}
	return false
}

func isEveryone(q string) bool {
	switch q {
	case "", "all", "all contacts", "contacts", "my contacts", "everyone", "everybody":
		return true
	}
	return false
}

func startsWithQuestionWord(t string) bool {
	first := strings.ToLower(strings.Fields(t)[0])
	switch first {
	case "what", "who", "where", "when", "why", "how", "which", "can", "could", "should", "do", "does":
		return true
	}
	return false
}

var _ Resolver = (*RuleResolver)(nil)
