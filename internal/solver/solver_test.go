// internal/solver/solver_test.go
package solver

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamdraw/teamdraw-service/internal/models"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

// assertPartition checks that the result's teams partition players exactly
// and that each team matches its configured capacity.
func assertPartition(t *testing.T, players []string, teams []models.TeamSlot, res models.AssignmentResult) {
	t.Helper()
	require.True(t, res.Success, "expected success, got: %s", res.Message)
	require.Len(t, res.Teams, len(teams))

	seen := make(map[string]int)
	for i, team := range res.Teams {
		assert.Equal(t, teams[i].Name, team.Name)
		assert.Len(t, team.Members, teams[i].Capacity)
		for _, m := range team.Members {
			seen[m]++
		}
	}
	require.Len(t, seen, len(players))
	for _, p := range players {
		assert.Equal(t, 1, seen[p], "player %s should appear exactly once", p)
	}
}

func TestAssignUnconstrained(t *testing.T) {
	players := []string{"a", "b", "c", "d", "e", "f"}
	teams := []models.TeamSlot{
		{Name: "red", Capacity: 3},
		{Name: "blue", Capacity: 3},
	}

	res := Assign(players, teams, nil, testRNG())
	assertPartition(t, players, teams, res)
	// With no constraints the very first attempt must pass.
	assert.Equal(t, "Succeeded after 1 attempt(s)", res.Message)
}

func TestAssignRequiredPlayers(t *testing.T) {
	players := []string{"a", "b", "c", "d"}
	teams := []models.TeamSlot{
		{Name: "red", Capacity: 2, RequiredPlayers: []string{"a"}},
		{Name: "blue", Capacity: 2, RequiredPlayers: []string{"d"}},
	}

	for i := 0; i < 50; i++ {
		res := Assign(players, teams, nil, testRNG())
		assertPartition(t, players, teams, res)
		assert.Contains(t, res.Teams[0].Members, "a")
		assert.Contains(t, res.Teams[1].Members, "d")
	}
}

func TestAssignHonorsRestrictions(t *testing.T) {
	players := []string{"a", "b", "c", "d"}
	teams := []models.TeamSlot{
		{Name: "t1", Capacity: 2},
		{Name: "t2", Capacity: 2},
	}
	restrictions := []models.Restriction{models.NewRestriction("a", "b")}

	rng := testRNG()
	for i := 0; i < 100; i++ {
		res := Assign(players, teams, restrictions, rng)
		assertPartition(t, players, teams, res)
		for _, team := range res.Teams {
			joined := strings.Join(team.Members, ",")
			together := strings.Contains(joined, "a") && strings.Contains(joined, "b")
			assert.False(t, together, "a and b must never share a team: %v", team.Members)
		}
	}
}

func TestAssignValidationFailure(t *testing.T) {
	players := []string{"a", "b", "c"}
	teams := []models.TeamSlot{{Name: "t1", Capacity: 2}}

	res := Assign(players, teams, nil, testRNG())
	require.False(t, res.Success)
	assert.Empty(t, res.Teams)
	assert.Contains(t, res.Message, "does not match total team capacity")
}

func TestAssignInfeasibleExhaustsCeiling(t *testing.T) {
	// Two players forced into the same two-seat team but restricted apart.
	players := []string{"a", "b"}
	teams := []models.TeamSlot{{Name: "t1", Capacity: 2}}
	restrictions := []models.Restriction{models.NewRestriction("a", "b")}

	res := Assign(players, teams, restrictions, testRNG())
	require.False(t, res.Success)
	assert.Contains(t, res.Message, "impossible")
}
