// internal/solver/estimate.go
package solver

import (
	"math"

	"github.com/teamdraw/teamdraw-service/internal/models"
)

// MaxEnumeration caps how many valid assignments the estimator will count
// exactly before falling back to the decay approximation.
const MaxEnumeration = 100000

// restrictionDecay is the per-restriction factor applied to the multinomial
// count when enumeration is cut short. Deliberately conservative.
const restrictionDecay = 0.5

// EstimateCombinations counts the assignments of players into the configured
// teams that satisfy every restriction pair. The count is exact while it
// stays under MaxEnumeration; past the cap it degrades to the multinomial
// count scaled by restrictionDecay^len(restrictions). Returns 0 for empty
// inputs or when capacities do not line up with the player list.
func EstimateCombinations(players []string, teams []models.TeamSlot, restrictions []models.Restriction) int64 {
	if len(players) == 0 || len(teams) == 0 {
		return 0
	}

	total := 0
	for _, t := range teams {
		total += t.Capacity
	}
	if total != len(players) {
		return 0
	}

	// Split off pinned players and the capacity left over per team.
	pinnedTeam := make(map[string]int)
	remCaps := make([]int, len(teams))
	for i, t := range teams {
		remCaps[i] = t.Capacity - len(t.RequiredPlayers)
		if remCaps[i] < 0 {
			return 0
		}
		for _, rp := range t.RequiredPlayers {
			pinnedTeam[rp] = i
		}
	}

	var remaining []string
	for _, p := range players {
		if _, ok := pinnedTeam[p]; !ok {
			remaining = append(remaining, p)
		}
	}
	remTotal := 0
	for _, c := range remCaps {
		remTotal += c
	}
	if remTotal != len(remaining) {
		return 0
	}

	if len(restrictions) == 0 {
		return multinomial(len(remaining), remCaps)
	}

	// Two pinned players already sharing a team can never be separated.
	for _, r := range restrictions {
		ta, okA := pinnedTeam[r[0]]
		tb, okB := pinnedTeam[r[1]]
		if okA && okB && ta == tb {
			return 0
		}
	}

	count, capped := countValid(remaining, remCaps, pinnedTeam, restrictions)
	if capped {
		return int64(math.Floor(float64(multinomial(len(remaining), remCaps)) * math.Pow(restrictionDecay, float64(len(restrictions)))))
	}
	return count
}

// multinomial is remaining! / Π(cap_i!), floored. Computed in float64 like
// the factorials it is built from, so very large inputs saturate rather than
// stay exact.
func multinomial(remaining int, caps []int) int64 {
	denom := 1.0
	for _, c := range caps {
		denom *= factorial(c)
	}
	return int64(math.Floor(factorial(remaining) / denom))
}

func factorial(n int) float64 {
	result := 1.0
	for i := 2; i <= n; i++ {
		result *= float64(i)
	}
	return result
}

// countValid enumerates assignments of the remaining players into the
// leftover capacities with an explicit backtracking stack (no recursion, so
// large player counts cannot blow the call stack). Branches that would
// co-locate a restricted pair are pruned as they are placed, which counts the
// same set of valid leaves while skipping dead subtrees. Stops once the count
// reaches MaxEnumeration and reports that it was capped.
func countValid(remaining []string, remCaps []int, pinnedTeam map[string]int, restrictions []models.Restriction) (int64, bool) {
	n := len(remaining)
	numTeams := len(remCaps)

	index := make(map[string]int, n)
	for i, p := range remaining {
		index[p] = i
	}

	// Per-player conflict lists: other remaining players it must avoid, and
	// teams already poisoned by a pinned conflict partner.
	conflictIdx := make([][]int, n)
	pinnedConflict := make([][]bool, n)
	for i := range pinnedConflict {
		pinnedConflict[i] = make([]bool, numTeams)
	}
	for _, r := range restrictions {
		ia, okA := index[r[0]]
		ib, okB := index[r[1]]
		switch {
		case okA && okB:
			conflictIdx[ia] = append(conflictIdx[ia], ib)
			conflictIdx[ib] = append(conflictIdx[ib], ia)
		case okA:
			if t, pinned := pinnedTeam[r[1]]; pinned {
				pinnedConflict[ia][t] = true
			}
		case okB:
			if t, pinned := pinnedTeam[r[0]]; pinned {
				pinnedConflict[ib][t] = true
			}
		}
	}

	caps := make([]int, numTeams)
	copy(caps, remCaps)

	assigned := make([]int, n) // team chosen per depth
	next := make([]int, n)     // next team candidate per depth

	var count int64
	pos := 0
	for pos >= 0 {
		if pos == n {
			count++
			if count >= MaxEnumeration {
				return count, true
			}
			pos--
			if pos >= 0 {
				caps[assigned[pos]]++
				next[pos] = assigned[pos] + 1
			}
			continue
		}

		placed := false
		for t := next[pos]; t < numTeams; t++ {
			if caps[t] == 0 || pinnedConflict[pos][t] {
				continue
			}
			ok := true
			for _, other := range conflictIdx[pos] {
				if other < pos && assigned[other] == t {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			caps[t]--
			assigned[pos] = t
			pos++
			if pos < n {
				next[pos] = 0
			}
			placed = true
			break
		}
		if !placed {
			pos--
			if pos >= 0 {
				caps[assigned[pos]]++
				next[pos] = assigned[pos] + 1
			}
		}
	}
	return count, false
}
