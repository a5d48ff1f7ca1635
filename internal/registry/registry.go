// Package registry holds the static mapping from mod category and subtype to
// the Discord channel the listings live in. The registry is read-only after
// startup; every read endpoint resolves channels through it.
package registry

import (
	"fmt"
	"sort"

	"github.com/shop-replace/modbot/internal/model"
)

// Entry is one subtype slot inside a category.
type Entry struct {
	Subtype   string
	ChannelID string
}

// Registry maps category -> ordered subtype entries. Category iteration
// order is fixed (ARME, VEHICULE, PERSONNAGE) and subtypes are ordered so
// that scans and by-id searches are deterministic.
type Registry struct {
	categories []string
	entries    map[string][]Entry
}

// CategoryOrder is the fixed iteration order over categories.
var CategoryOrder = []string{
	model.CategoryWeapon,
	model.CategoryVehicle,
	model.CategoryCharacter,
}

// New builds a Registry from a category -> subtype -> channel id mapping.
// Subtypes within a category are sorted by name so iteration order does not
// depend on map ordering. Unknown categories are rejected.
func New(channels map[string]map[string]string) (*Registry, error) {
	r := &Registry{
		entries: make(map[string][]Entry, len(channels)),
	}

	known := make(map[string]bool, len(CategoryOrder))
	for _, c := range CategoryOrder {
		known[c] = true
	}

	for cat, subtypes := range channels {
		if !known[cat] {
			return nil, fmt.Errorf("unknown registry category: %s", cat)
		}
		entries := make([]Entry, 0, len(subtypes))
		for subtype, channelID := range subtypes {
			entries = append(entries, Entry{Subtype: subtype, ChannelID: channelID})
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Subtype < entries[j].Subtype
		})
		r.entries[cat] = entries
	}

	for _, c := range CategoryOrder {
		if len(r.entries[c]) > 0 {
			r.categories = append(r.categories, c)
		}
	}

	return r, nil
}

// Valid reports whether category is a registry key.
func (r *Registry) Valid(category string) bool {
	_, ok := r.entries[category]
	return ok
}

// Categories returns the populated categories in fixed order.
func (r *Registry) Categories() []string {
	return r.categories
}

// Channels returns the entries under a category in subtype order.
func (r *Registry) Channels(category string) []Entry {
	return r.entries[category]
}

// Subtype returns the subtype label a channel id is registered under within
// a category, or "" when the channel is not part of the category.
func (r *Registry) Subtype(category, channelID string) string {
	for _, e := range r.entries[category] {
		if e.ChannelID == channelID {
			return e.Subtype
		}
	}
	return ""
}
