// Package knowledge answers frequently asked questions by keyword lookup.
package knowledge

import (
	"errors"
	"slices"
	"strings"
)

var ErrIncomplete = errors.New("knowledge item needs an answer and at least one keyword")

// Item is a canned answer triggered by any of its keywords.
type Item struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords"`
}

// Defaults is the seed used when nothing was persisted yet.
func Defaults() []Item {
	return []Item{{
		Question: "who are you",
		Answer:   "I am an automated assistant. I can answer a few common questions.",
		Keywords: []string{"who are you", "what are you", "introduce yourself"},
	}}
}

// Base is an ordered list of items. Not safe for concurrent use.
type Base struct {
	items    []Item
	onChange func([]Item)
}

// New creates a base holding a copy of items. Items Add would reject are
// skipped.
func New(items []Item) *Base {
	b := &Base{}
	for _, it := range items {
		n, err := normalize(it)
		if err != nil {
			continue
		}
		b.items = append(b.items, n)
	}
	return b
}

// OnChange registers fn to run with a snapshot after every mutation.
func (b *Base) OnChange(fn func([]Item)) {
	b.onChange = fn
}

// Add appends an item. Blank keywords are dropped; the question itself is
// used as a keyword when none remain.
func (b *Base) Add(it Item) error {
	it, err := normalize(it)
	if err != nil {
		return err
	}
	b.items = append(b.items, it)
	if b.onChange != nil {
		b.onChange(b.List())
	}
	return nil
}

// Answer returns the answer of the first item with a keyword contained in text.
func (b *Base) Answer(text string) (string, bool) {
	for _, it := range b.items {
		for _, kw := range it.Keywords {
			if strings.Contains(text, kw) {
				return it.Answer, true
			}
		}
	}
	return "", false
}

// List returns copies of all items.
func (b *Base) List() []Item {
	out := make([]Item, len(b.items))
	for i, it := range b.items {
		out[i] = clone(it)
	}
	return out
}

func clone(it Item) Item {
	it.Keywords = slices.Clone(it.Keywords)
	return it
}

func normalize(it Item) (Item, error) {
	it = clone(it)
	it.Keywords = slices.DeleteFunc(it.Keywords, func(k string) bool { return strings.TrimSpace(k) == "" })
	if len(it.Keywords) == 0 && strings.TrimSpace(it.Question) != "" {
		it.Keywords = []string{it.Question}
	}
	if strings.TrimSpace(it.Answer) == "" || len(it.Keywords) == 0 {
		return Item{}, ErrIncomplete
	}
	return it, nil
}
