// Package diff produces the set of added, changed, and removed entries
// between two observations of a case record set.
package diff

import "github.com/expdynts/expwatch/internal/domain"

// Changes compares previous and current record sets keyed by the
// composite natural key (EXP, FCH_ACU).
//
// New keys are included as-is. Matched keys are compared on the mutable
// field whitelist and the current version is included when any field
// differs. Keys present only in previous were removed upstream and are
// appended as their last-known value. Result order is the scan order of
// current followed by the leftover order of previous; entries are never
// re-sorted.
func Changes(previous, current []domain.CaseEntry) []domain.CaseEntry {
	lookup := make(map[string]domain.CaseEntry, len(previous))
	order := make([]string, 0, len(previous))
	for _, entry := range previous {
		key := entry.Key()
		if _, ok := lookup[key]; !ok {
			order = append(order, key)
		}
		lookup[key] = entry
	}

	changes := make([]domain.CaseEntry, 0)
	for _, entry := range current {
		key := entry.Key()
		prev, ok := lookup[key]
		if !ok {
			changes = append(changes, entry)
			continue
		}
		if mutated(prev, entry) {
			changes = append(changes, entry)
		}
		delete(lookup, key)
	}

	// Whatever is left in the lookup disappeared from the source.
	for _, key := range order {
		if entry, ok := lookup[key]; ok {
			changes = append(changes, entry)
		}
	}

	return changes
}

// mutated reports whether any whitelisted mutable field differs.
func mutated(prev, curr domain.CaseEntry) bool {
	return prev.Description != curr.Description ||
		prev.Notification != curr.Notification ||
		prev.Bulletin != curr.Bulletin ||
		prev.Bulletin2 != curr.Bulletin2 ||
		prev.Bulletin3 != curr.Bulletin3 ||
		prev.Type != curr.Type ||
		prev.Direction != curr.Direction ||
		prev.ResolutionDate != curr.ResolutionDate ||
		prev.ActorNames != curr.ActorNames ||
		prev.DefendantNames != curr.DefendantNames ||
		prev.AuthorityNames != curr.AuthorityNames ||
		prev.ProsecutorNames != curr.ProsecutorNames
}
