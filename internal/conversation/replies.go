package conversation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/scrypster/rolodex/internal/session"
	"github.com/scrypster/rolodex/pkg/types"
)

const helpText = `Here's what I can do:
- "add Jane Doe, CTO at Acme" starts a new contact
- "her email is jane@acme.com" adds details to the contact we're working on
- "done" saves it, "cancel" drops it
- "edit Jane Doe" reopens a saved contact
- "what is Jane Doe's email" or "show Jane Doe" looks a contact up
- "find investors" or "search acme" searches your contacts
- "research Jane Doe" looks them up on the web
- "introduce Bob to Jane" drafts an intro
- "summary" shows what we're working on`

func greetingText(pending *types.Contact) string {
	if pending != nil && pending.HasIdentity() {
		return fmt.Sprintf("Hi! We're still working on %s.", pending.Name)
	}
	return "Hi! Tell me about someone you met, like \"add Jane Doe, CTO at Acme\"."
}

func lockedText(name string) string {
	return fmt.Sprintf("%s is already saved. Say \"edit %s\" if you want to change it.", name, name)
}

func nudgeText(name string) string {
	return fmt.Sprintf("Still there? We were in the middle of %s. ", name)
}

func displayName(c *types.Contact) string {
	if c.HasIdentity() {
		return c.Name
	}
	return "this contact"
}

// describeChanges lists the fields that differ between before and after, in
// display order.
func describeChanges(before, after *types.Contact) string {
	var parts []string
	for _, f := range types.AllContactFields {
		v := after.Get(f)
		if v == before.Get(f) {
			continue
		}
		if f == types.FieldNotes || f == types.FieldResearch {
			parts = append(parts, strings.ToLower(f.Label())+" added")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s", strings.ToLower(f.Label()), v))
	}
	return strings.Join(parts, ", ")
}

func describeFields(updates map[types.ContactField]string) string {
	var parts []string
	for _, f := range types.AllContactFields {
		if _, ok := updates[f]; ok {
			parts = append(parts, strings.ToLower(f.Label()))
		}
	}
	return strings.Join(parts, ", ")
}

// rejectedText asks about update values the draft refused.
func rejectedText(updates map[types.ContactField]string, err error) string {
	if errors.Is(err, types.ErrInvalidClassification) {
		names := make([]string, len(types.ValidClassifications))
		for i, c := range types.ValidClassifications {
			names[i] = string(c)
		}
		last := len(names) - 1
		return fmt.Sprintf("I don't know the type %q. Is this person a %s or %s?",
			strings.TrimSpace(updates[types.FieldClassification]), strings.Join(names[:last], ", "), names[last])
	}
	return fmt.Sprintf("I couldn't use part of that: %v.", err)
}

func missingText(c *types.Contact) string {
	missing := c.MissingFields()
	if len(missing) == 0 {
		return " Say \"done\" to save."
	}
	labels := make([]string, len(missing))
	for i, f := range missing {
		labels[i] = strings.ToLower(f.Label())
	}
	return fmt.Sprintf(" Still missing: %s.", strings.Join(labels, ", "))
}

// resumedText describes the task that became active after a pop, if any.
func resumedText(mem *session.UserMemory) string {
	active := mem.ActiveTask()
	if active == nil {
		return ""
	}
	if intro := active.IntroSlots(); intro != nil {
		return fmt.Sprintf(" Back to the intro to %s.", intro.Target)
	}
	return fmt.Sprintf(" Back to %s.", displayName(active.Contact()))
}

func introDoneText(intro *types.IntroDraftSlots) string {
	if intro.Connector == "" {
		return fmt.Sprintf("Intro to %s is ready.", intro.Target)
	}
	return fmt.Sprintf("Intro from %s to %s is ready.", intro.Connector, intro.Target)
}

func summaryText(mem *session.UserMemory) string {
	var lines []string
	if active := mem.ActiveTask(); active != nil {
		if c := active.Contact(); c != nil {
			lines = append(lines, "Working on: "+c.Summary())
			if d := c.Details(); d != "" {
				lines = append(lines, d)
			}
		} else {
			lines = append(lines, "Working on: "+active.Label)
		}
	}
	if parked := mem.ParkedTasks(); len(parked) > 0 {
		labels := make([]string, len(parked))
		for i, t := range parked {
			labels[i] = t.Label
		}
		lines = append(lines, "Parked: "+strings.Join(labels, "; "))
	}
	if names := mem.LockedNames(); len(names) > 0 {
		saved := make([]string, 0, len(names))
		for _, n := range names {
			if c := mem.LockedContact(n); c != nil {
				saved = append(saved, c.Name)
			}
		}
		sort.Strings(saved)
		lines = append(lines, "Saved this session: "+strings.Join(saved, ", "))
	}
	if len(lines) == 0 {
		return "Nothing in progress. Say \"add <name>\" to start a contact."
	}
	return strings.Join(lines, "\n")
}

// titleCase capitalizes each word of an all-lowercase name.
func titleCase(s string) string {
	s = strings.TrimSpace(s)
	if s != strings.ToLower(s) {
		return s
	}
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
