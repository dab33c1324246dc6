// internal/solver/solver.go
//
// Randomized team assignment under pinning and anti-pairing constraints.
// The search is generate-and-test: shuffle, fill teams, verify, retry. It is
// not backtracking, so a pathological restriction set can exhaust the attempt
// ceiling even when a solution exists.
package solver

import (
	"fmt"
	"math/rand"

	"github.com/teamdraw/teamdraw-service/internal/models"
)

// MaxAttempts bounds the generate-and-test loop.
const MaxAttempts = 10000

const infeasibleMessage = "The current same-team restrictions make assignment impossible.\n\nRelax the restrictions or change the team configuration."

// Assign produces a random assignment of players into the configured teams,
// honoring required-player pinning and restriction pairs. It validates the
// configuration first; a structural problem short-circuits into a failed
// result without any search. rng must not be nil.
func Assign(players []string, teams []models.TeamSlot, restrictions []models.Restriction, rng *rand.Rand) models.AssignmentResult {
	if err := models.ValidateTeamConfig(players, teams); err != nil {
		return models.AssignmentResult{Success: false, Message: err.Error()}
	}

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		pool := make([]string, len(players))
		copy(pool, players)
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

		built := make([]models.Team, 0, len(teams))
		for _, slot := range teams {
			team := models.Team{Name: slot.Name}
			for _, rp := range slot.RequiredPlayers {
				if i := indexOf(pool, rp); i >= 0 {
					team.Members = append(team.Members, rp)
					pool = append(pool[:i], pool[i+1:]...)
				}
			}
			for len(team.Members) < slot.Capacity && len(pool) > 0 {
				i := rng.Intn(len(pool))
				team.Members = append(team.Members, pool[i])
				pool = append(pool[:i], pool[i+1:]...)
			}
			built = append(built, team)
		}

		if requiredPlaced(teams, built) && noPairColocated(built, restrictions) {
			return models.AssignmentResult{
				Success: true,
				Teams:   built,
				Message: fmt.Sprintf("Succeeded after %d attempt(s)", attempt),
			}
		}
	}

	return models.AssignmentResult{Success: false, Message: infeasibleMessage}
}

func indexOf(pool []string, name string) int {
	for i, p := range pool {
		if p == name {
			return i
		}
	}
	return -1
}

// requiredPlaced verifies every pinned player landed in its designated team.
// True by construction, kept as a sanity check on the fill loop.
func requiredPlaced(teams []models.TeamSlot, built []models.Team) bool {
	for i, slot := range teams {
		for _, rp := range slot.RequiredPlayers {
			if indexOf(built[i].Members, rp) < 0 {
				return false
			}
		}
	}
	return true
}

// noPairColocated verifies no restriction pair shares a team.
func noPairColocated(built []models.Team, restrictions []models.Restriction) bool {
	for _, r := range restrictions {
		for _, team := range built {
			if indexOf(team.Members, r[0]) >= 0 && indexOf(team.Members, r[1]) >= 0 {
				return false
			}
		}
	}
	return true
}
