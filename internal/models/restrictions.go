// internal/models/restrictions.go
package models

// Restriction is an unordered pair of player names forbidden from sharing a
// team. Pairs are stored normalized (lexicographically smaller name first) so
// that {a,b} and {b,a} compare equal.
type Restriction [2]string

// NewRestriction builds a normalized pair.
func NewRestriction(a, b string) Restriction {
	if b < a {
		a, b = b, a
	}
	return Restriction{a, b}
}

// Contains reports whether name is one of the pair's two players.
func (r Restriction) Contains(name string) bool {
	return r[0] == name || r[1] == name
}

// RestrictionGroup is a display-level cluster of players whose pairwise
// combinations were added as restrictions together. Groups only matter for
// grouped removal; the solver consumes the flat pair list.
type RestrictionGroup struct {
	Members []string `json:"members"`
}

// pairs expands the group into its normalized pairwise restrictions.
func (g RestrictionGroup) pairs() []Restriction {
	var out []Restriction
	for i := 0; i < len(g.Members); i++ {
		for j := i + 1; j < len(g.Members); j++ {
			out = append(out, NewRestriction(g.Members[i], g.Members[j]))
		}
	}
	return out
}

// covers reports whether both players of the pair belong to the group.
func (g RestrictionGroup) covers(r Restriction) bool {
	found := 0
	for _, m := range g.Members {
		if r.Contains(m) {
			found++
		}
	}
	return found == 2
}

// AddRestrictionPair appends the normalized pair {a,b} unless it is already
// present. Idempotent by construction.
func AddRestrictionPair(existing []Restriction, a, b string) []Restriction {
	pair := NewRestriction(a, b)
	for _, r := range existing {
		if r == pair {
			return existing
		}
	}
	return append(existing, pair)
}

// RemoveRestrictionGroup removes groups[idx] and every restriction pair fully
// contained in that group, keeping pairs that are still justified by another
// remaining group. Returns the updated groups and restrictions; out-of-range
// indices are a no-op.
func RemoveRestrictionGroup(groups []RestrictionGroup, restrictions []Restriction, idx int) ([]RestrictionGroup, []Restriction) {
	if idx < 0 || idx >= len(groups) {
		return groups, restrictions
	}
	removed := groups[idx]

	remaining := make([]RestrictionGroup, 0, len(groups)-1)
	remaining = append(remaining, groups[:idx]...)
	remaining = append(remaining, groups[idx+1:]...)

	kept := make([]Restriction, 0, len(restrictions))
	for _, r := range restrictions {
		if !removed.covers(r) {
			kept = append(kept, r)
			continue
		}
		for _, g := range remaining {
			if g.covers(r) {
				kept = append(kept, r)
				break
			}
		}
	}
	return remaining, kept
}
