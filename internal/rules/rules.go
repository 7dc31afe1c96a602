// Package rules holds the ordered auto-reply rule set and its matcher.
package rules

import (
	"errors"
	"slices"
	"strings"
)

// ReplyType is the kind of payload a rule answers with.
type ReplyType string

// ReplyText is the only supported reply type.
const ReplyText ReplyType = "text"

var (
	ErrEmptyID         = errors.New("rule id is empty")
	ErrDuplicateID     = errors.New("rule id already exists")
	ErrNoKeywords      = errors.New("rule has no keywords")
	ErrUnsupportedType = errors.New("unsupported reply type")
)

// Rule is a keyword-triggered auto reply.
type Rule struct {
	ID         string    `json:"id"`
	Keywords   []string  `json:"keywords"`
	ExactMatch bool      `json:"exactMatch"`
	ReplyType  ReplyType `json:"replyType"`
	Content    string    `json:"content"`
	Enabled    bool      `json:"enabled"`
}

// Matches reports whether text triggers the rule, ignoring Enabled.
func (r Rule) Matches(text string) bool {
	for _, kw := range r.Keywords {
		if r.ExactMatch {
			if text == kw {
				return true
			}
		} else if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func (r Rule) clone() Rule {
	r.Keywords = slices.Clone(r.Keywords)
	return r
}

// normalize drops blank keywords, defaults the reply type and validates.
func normalize(r Rule) (Rule, error) {
	if r.ID == "" {
		return r, ErrEmptyID
	}
	kws := make([]string, 0, len(r.Keywords))
	for _, kw := range r.Keywords {
		if strings.TrimSpace(kw) != "" {
			kws = append(kws, kw)
		}
	}
	if len(kws) == 0 {
		return r, ErrNoKeywords
	}
	r.Keywords = kws
	if r.ReplyType == "" {
		r.ReplyType = ReplyText
	}
	if r.ReplyType != ReplyText {
		return r, ErrUnsupportedType
	}
	return r, nil
}

// Store keeps rules in insertion order. It is not safe for concurrent use;
// the bot manager owns it from a single goroutine.
type Store struct {
	rules    []Rule
	onChange func([]Rule)
}

// NewStore builds a store from persisted rules. Entries that no longer
// validate, or repeat an earlier id, are skipped.
func NewStore(initial []Rule) *Store {
	s := &Store{}
	for _, r := range initial {
		n, err := normalize(r)
		if err != nil || s.index(n.ID) >= 0 {
			continue
		}
		s.rules = append(s.rules, n.clone())
	}
	return s
}

// OnChange registers fn to run with a snapshot after every mutation.
func (s *Store) OnChange(fn func([]Rule)) {
	s.onChange = fn
}

// Add appends a rule. The keyword slice is copied.
func (s *Store) Add(r Rule) error {
	n, err := normalize(r)
	if err != nil {
		return err
	}
	if s.index(n.ID) >= 0 {
		return ErrDuplicateID
	}
	s.rules = append(s.rules, n.clone())
	s.changed()
	return nil
}

// Update replaces the rule with the same id, keeping its position.
// Unknown ids are ignored.
func (s *Store) Update(r Rule) error {
	n, err := normalize(r)
	if err != nil {
		return err
	}
	i := s.index(n.ID)
	if i < 0 {
		return nil
	}
	s.rules[i] = n.clone()
	s.changed()
	return nil
}

// Remove deletes the rule with the given id. Unknown ids are ignored.
func (s *Store) Remove(id string) {
	i := s.index(id)
	if i < 0 {
		return
	}
	s.rules = slices.Delete(s.rules, i, i+1)
	s.changed()
}

// SetEnabled toggles a rule. Unknown ids are ignored.
func (s *Store) SetEnabled(id string, enabled bool) {
	i := s.index(id)
	if i < 0 || s.rules[i].Enabled == enabled {
		return
	}
	s.rules[i].Enabled = enabled
	s.changed()
}

// List returns copies of all rules in insertion order.
func (s *Store) List() []Rule {
	out := make([]Rule, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.clone()
	}
	return out
}

// Len returns the number of rules, enabled or not.
func (s *Store) Len() int {
	return len(s.rules)
}

// Match returns the first enabled rule triggered by text.
func (s *Store) Match(text string) (Rule, bool) {
	for _, r := range s.rules {
		if r.Enabled && r.Matches(text) {
			return r.clone(), true
		}
	}
	return Rule{}, false
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.rules, func(r Rule) bool { return r.ID == id })
}

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange(s.List())
	}
}
