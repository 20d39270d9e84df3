package conversation

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode"

	"github.com/scrypster/rolodex/internal/search"
	"github.com/scrypster/rolodex/internal/storage"
	"github.com/scrypster/rolodex/pkg/types"
)

// researchResults caps how many search hits go into a research note.
const researchResults = 3

func (e *Engine) handleAdd(t *turn) string {
	name := t.res.TargetContact
	if name == "" {
		name = t.res.Entities[types.FieldName]
	}
	entities := withoutName(t.res.Entities)
	pending := t.mem.PendingContact()

	if name == "" {
		if pending != nil && !pending.HasIdentity() {
			return "Sure. What's their name?"
		}
		if pending != nil && len(entities) > 0 {
			return e.updatePending(t, entities)
		}
		t.mem.StartCollecting(types.NewContact(""))
		return "Sure. What's their name?"
	}

	if t.mem.IsContactLocked(name) {
		return lockedText(name)
	}
	if pending != nil && sameName(pending.Name, name) {
		return e.updatePending(t, entities)
	}
	if pending != nil && !pending.HasIdentity() {
		updates := copyFields(entities)
		updates[types.FieldName] = name
		return e.updatePending(t, updates)
	}
	if c := t.mem.SwitchTo(name); c != nil {
		return e.switchedTo(t, c, entities)
	}
	return e.startContact(t, name, entities)
}

func (e *Engine) handleUpdate(t *turn) string {
	target := t.res.TargetContact
	pending := t.mem.PendingContact()

	if target != "" && (pending == nil || !sameName(pending.Name, target)) {
		if t.mem.IsContactLocked(target) {
			return lockedText(target)
		}
		if c := t.mem.SwitchTo(target); c != nil {
			return e.switchedTo(t, c, t.res.Entities)
		}
		return e.startContact(t, target, withoutName(t.res.Entities))
	}

	if pending == nil {
		if intro := t.mem.ActiveIntro(); intro != nil {
			return fmt.Sprintf("We're drafting an intro to %s. Say \"done\" to finish it or \"cancel\" to drop it.", intro.Target)
		}
		return "I'm not working on a contact right now. Say \"add <name>\" to start one."
	}
	if len(t.res.Entities) == 0 {
		return fmt.Sprintf("What would you like to change about %s?", displayName(pending))
	}
	return e.updatePending(t, t.res.Entities)
}

// updatePending applies updates to the active draft and describes the result.
func (e *Engine) updatePending(t *turn, updates map[types.ContactField]string) string {
	pending := t.mem.PendingContact()
	if pending == nil {
		return "I'm not working on a contact right now. Say \"add <name>\" to start one."
	}
	if t.mem.IsContactLocked(pending.Name) {
		return lockedText(pending.Name)
	}
	if len(updates) == 0 {
		return fmt.Sprintf("What would you like to add about %s?", displayName(pending))
	}

	before := pending.Clone()
	changed, err := t.mem.UpdatePending(updates)
	if !changed {
		if name, ok := updates[types.FieldName]; ok && t.mem.IsContactLocked(name) {
			return lockedText(name)
		}
		if err != nil {
			return rejectedText(updates, err)
		}
		return fmt.Sprintf("Nothing new for %s.", displayName(pending))
	}

	text := fmt.Sprintf("Updated %s: %s.", displayName(pending), describeChanges(before, pending))
	if err != nil {
		return text + " " + rejectedText(updates, err)
	}
	if len(pending.MissingFields()) == 0 && t.mem.State() == types.StateCollecting {
		t.mem.SetState(types.StateConfirming)
		return text + " That looks complete. Save it?"
	}
	return text + missingText(pending)
}

func (e *Engine) startContact(t *turn, name string, entities map[types.ContactField]string) string {
	if stored, err := e.lookupStored(t, name); err == nil && stored != nil {
		t.mem.LockContact(stored)
		return fmt.Sprintf("%s is already in your contacts. Say \"edit %s\" to change it.", stored.Name, stored.Name)
	}

	parked := t.mem.PendingContact()
	c := types.NewContact(name)
	_, _ = c.ApplyFields(entities)
	t.mem.StartCollecting(c)

	var b strings.Builder
	fmt.Fprintf(&b, "Started a new contact: %s.", c.Summary())
	if parked != nil && parked.HasIdentity() {
		fmt.Fprintf(&b, " I parked %s for later.", parked.Name)
	}
	b.WriteString(missingText(c))
	return b.String()
}

func (e *Engine) switchedTo(t *turn, c *types.Contact, entities map[types.ContactField]string) string {
	text := fmt.Sprintf("Switched back to %s.", c.Name)
	if updates := withoutName(entities); len(updates) > 0 {
		changed, err := t.mem.UpdatePending(updates)
		if changed {
			text += " Updated " + describeFields(updates) + "."
		}
		if err != nil {
			text += " " + rejectedText(updates, err)
		}
	}
	return text + missingText(c)
}

func (e *Engine) handleFinish(t *turn) string {
	if intro := t.mem.ActiveIntro(); intro != nil {
		t.mem.CompleteIntro()
		return introDoneText(intro) + resumedText(t.mem)
	}

	pending := t.mem.PendingContact()
	if pending == nil {
		return "There's nothing to save right now."
	}
	if !pending.HasIdentity() {
		return "I need a name before I can save this contact. What's their name?"
	}

	if err := e.save(t, pending); err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			return fmt.Sprintf("I couldn't save %s: %v", pending.Name, err)
		}
		log.Printf("[conversation] failed to save contact %q for user %s: %v", pending.Name, t.mem.UserID, err)
		return fmt.Sprintf("Sorry, I couldn't save %s right now. Try \"done\" again in a moment.", pending.Name)
	}

	name := pending.Name
	t.mem.HardReset(name)
	return fmt.Sprintf("Saved %s.", name) + resumedText(t.mem)
}

// save adds the draft to the store, or merges it into the stored contact it
// was unlocked from (by ID) or that carries the same name.
func (e *Engine) save(t *turn, draft *types.Contact) error {
	var (
		stored *types.Contact
		err    = storage.ErrNotFound
	)
	if draft.ID != "" {
		stored, err = e.store.GetContact(t.ctx, draft.ID)
	}
	if errors.Is(err, storage.ErrNotFound) {
		stored, err = e.store.GetContactByName(t.ctx, draft.Name)
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		assigned := draft.ID == ""
		if assigned {
			draft.ID = e.newID()
		}
		err = e.store.AddContact(t.ctx, draft)
		e.metrics.RecordSave("add", err)
		if err != nil && assigned {
			draft.ID = ""
		}
		return err
	case err != nil:
		return err
	}

	err = e.store.UpdateContact(t.ctx, stored.Name, changedFields(stored, draft))
	e.metrics.RecordSave("update", err)
	if err == nil {
		draft.ID = stored.ID
	}
	return err
}

func (e *Engine) handleCancel(t *turn) string {
	active := t.mem.ActiveTask()
	if active == nil {
		return "There's nothing to cancel."
	}
	label := active.Label
	if intro := active.IntroSlots(); intro != nil {
		label = "the intro to " + intro.Target
	} else if c := active.Contact(); c != nil {
		label = displayName(c)
	}
	t.mem.CancelPending()
	return fmt.Sprintf("Cancelled %s.", label) + resumedText(t.mem)
}

func (e *Engine) handleUnlock(t *turn) string {
	name := t.res.TargetContact
	if name == "" {
		return "Which contact would you like to edit?"
	}

	c := t.mem.UnlockContact(name)
	if c == nil {
		stored, err := e.lookupStored(t, name)
		if err != nil {
			return fmt.Sprintf("Sorry, I couldn't look up %s right now.", name)
		}
		if stored == nil {
			return fmt.Sprintf("I don't have a contact named %s.", name)
		}
		t.mem.LockContact(stored)
		c = t.mem.UnlockContact(stored.Name)
	}
	if c == nil {
		return fmt.Sprintf("I don't have a contact named %s.", name)
	}
	text := fmt.Sprintf("Editing %s. What should change?", c.Name)
	if details := c.Details(); details != "" {
		text += "\n" + details
	}
	return text
}

func (e *Engine) handleQuery(t *turn) string {
	name := t.res.TargetContact
	c, err := e.lookup(t, name)
	if err != nil {
		return fmt.Sprintf("Sorry, I couldn't look up %s right now.", name)
	}
	if c == nil {
		if name == "" {
			return "Who do you want to know about?"
		}
		return fmt.Sprintf("I don't know %s yet.", name)
	}

	f := t.res.QueryField
	if f == "" {
		return c.Details()
	}
	v := c.Get(f)
	if v == "" {
		return fmt.Sprintf("I don't have %s for %s.", strings.ToLower(f.Label()), c.Name)
	}
	return fmt.Sprintf("%s's %s: %s", c.Name, strings.ToLower(f.Label()), v)
}

func (e *Engine) handleView(t *turn) string {
	name := t.res.TargetContact
	if name == "" && t.mem.PendingContact() == nil {
		return e.listContacts(t, "", "")
	}
	c, err := e.lookup(t, name)
	if err != nil {
		return fmt.Sprintf("Sorry, I couldn't look up %s right now.", name)
	}
	if c == nil {
		return fmt.Sprintf("I don't know %s yet.", name)
	}
	return c.Details()
}

func (e *Engine) handleSearch(t *turn) string {
	if t.res.TargetContact != "" {
		return e.research(t, t.res.TargetContact)
	}

	query := strings.TrimSpace(t.res.ActionRequest)
	class := types.Classification("")
	if cl, ok := types.ParseClassification(query); ok {
		class, query = cl, ""
	} else if v := t.res.Entities[types.FieldClassification]; v != "" {
		class, _ = types.ParseClassification(v)
	}
	return e.listContacts(t, query, class)
}

func (e *Engine) listContacts(t *turn, query string, class types.Classification) string {
	contacts, err := e.store.ListContacts(t.ctx, storage.ListOptions{Query: query, Classification: class})
	if err != nil {
		log.Printf("[conversation] contact search failed for user %s: %v", t.mem.UserID, err)
		return "Sorry, search isn't available right now."
	}
	if len(contacts) == 0 {
		switch {
		case query != "":
			return fmt.Sprintf("No contacts match %q.", query)
		case class != "":
			return fmt.Sprintf("No %s contacts yet.", class)
		}
		return "You don't have any saved contacts yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d contact", len(contacts))
	if len(contacts) != 1 {
		b.WriteString("s")
	}
	b.WriteString(":")
	for _, c := range contacts {
		b.WriteString("\n- ")
		b.WriteString(c.Summary())
	}
	return b.String()
}

// research runs a web search for name and stores the summary on the draft
// when name is the contact being edited.
func (e *Engine) research(t *turn, name string) string {
	var company string
	if c, _ := e.lookup(t, name); c != nil {
		name, company = c.Name, c.Company
	}

	results, err := e.searcher.SearchPerson(t.ctx, name, company)
	if errors.Is(err, search.ErrDisabled) {
		return "Web research isn't set up."
	}
	if err != nil {
		log.Printf("[conversation] research for %q failed: %v", name, err)
		return fmt.Sprintf("Sorry, I couldn't research %s right now.", name)
	}
	if len(results) == 0 {
		return fmt.Sprintf("I couldn't find anything about %s.", name)
	}

	summary := search.Summarize(results, researchResults)
	if pending := t.mem.PendingContact(); pending != nil && sameName(pending.Name, name) {
		if _, err := t.mem.UpdatePending(map[types.ContactField]string{types.FieldResearch: summary}); err != nil {
			log.Printf("[conversation] failed to attach research to %q: %v", pending.Name, err)
		}
		return fmt.Sprintf("Added research to %s:\n%s", pending.Name, summary)
	}
	return fmt.Sprintf("Here's what I found about %s:\n%s", name, summary)
}

func (e *Engine) handleIntro(t *turn) string {
	target := t.res.TargetContact
	if target == "" {
		return "Who should be introduced?"
	}
	connector := t.res.ActionRequest
	t.mem.PushIntro(connector, target)
	if connector == "" {
		return fmt.Sprintf("Drafting an intro to %s. Say \"done\" when it's ready or \"cancel\" to drop it.", target)
	}
	return fmt.Sprintf("Drafting an intro from %s to %s. Say \"done\" when it's ready or \"cancel\" to drop it.", connector, target)
}

func (e *Engine) handleConfirm(t *turn) string {
	if t.mem.State() == types.StateConfirming {
		return e.handleFinish(t)
	}
	if c := t.mem.PendingContact(); c != nil {
		return fmt.Sprintf("Got it. Anything else about %s? Say \"done\" to save.", displayName(c))
	}
	return "OK."
}

func (e *Engine) handleDeny(t *turn) string {
	if t.mem.State() == types.StateConfirming {
		t.mem.SetState(types.StateCollecting)
		return "OK, not saved yet. What should change?"
	}
	return "OK."
}

func (e *Engine) handleUnknown(t *turn) string {
	pending := t.mem.PendingContact()
	if pending != nil && !pending.HasIdentity() && looksLikeName(t.text) {
		return e.updatePending(t, map[types.ContactField]string{types.FieldName: titleCase(t.text)})
	}
	if pending != nil {
		return fmt.Sprintf("I didn't catch that. Is it about %s? Try \"email is ...\" or say \"done\" to save.", displayName(pending))
	}
	return "I didn't understand that. Say \"help\" to see what I can do."
}

// lookup finds name in the pending draft, the session caches and then the
// store. An empty name means the pending draft.
func (e *Engine) lookup(t *turn, name string) (*types.Contact, error) {
	pending := t.mem.PendingContact()
	if name == "" {
		return pending, nil
	}
	if pending != nil && sameName(pending.Name, name) {
		return pending, nil
	}
	if c := t.mem.FindContactByName(name); c != nil {
		return c, nil
	}
	return e.lookupStored(t, name)
}

// lookupStored returns (nil, nil) when the store has no such contact.
func (e *Engine) lookupStored(t *turn, name string) (*types.Contact, error) {
	c, err := e.store.GetContactByName(t.ctx, name)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidInput) {
		return nil, nil
	}
	if err != nil {
		log.Printf("[conversation] contact lookup %q failed: %v", name, err)
		return nil, err
	}
	return c, nil
}

// changedFields returns the draft values that differ from stored. Notes
// unlocked from the store already begin with the stored text, so only the
// new tail is sent.
func changedFields(stored, draft *types.Contact) map[types.ContactField]string {
	out := make(map[types.ContactField]string)
	for _, f := range types.AllContactFields {
		v := draft.Get(f)
		if v == "" || v == stored.Get(f) {
			continue
		}
		if f == types.FieldNotes && stored.Notes != "" && strings.HasPrefix(v, stored.Notes) {
			v = strings.TrimSpace(strings.TrimPrefix(v, stored.Notes))
			if v == "" {
				continue
			}
		}
		out[f] = v
	}
	return out
}

func sameName(a, b string) bool {
	return types.NormalizeName(a) == types.NormalizeName(b)
}

func withoutName(entities map[types.ContactField]string) map[types.ContactField]string {
	out := copyFields(entities)
	delete(out, types.FieldName)
	return out
}

func copyFields(m map[types.ContactField]string) map[types.ContactField]string {
	out := make(map[types.ContactField]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// looksLikeName accepts one to four letter-only words.
func looksLikeName(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		for _, r := range w {
			if !unicode.IsLetter(r) && r != '\'' && r != '-' && r != '.' {
				return false
			}
		}
	}
	return true
}
