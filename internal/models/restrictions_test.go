// internal/models/restrictions_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRestrictionPairIdempotent(t *testing.T) {
	rs := AddRestrictionPair(nil, "alice", "bob")
	require.Len(t, rs, 1)

	// Same pair again, both orders.
	rs = AddRestrictionPair(rs, "alice", "bob")
	rs = AddRestrictionPair(rs, "bob", "alice")
	assert.Len(t, rs, 1)
	assert.Equal(t, NewRestriction("bob", "alice"), rs[0])

	rs = AddRestrictionPair(rs, "alice", "carol")
	assert.Len(t, rs, 2)
}

func TestRemoveRestrictionGroup(t *testing.T) {
	groups := []RestrictionGroup{
		{Members: []string{"a", "b", "c"}},
		{Members: []string{"b", "c"}},
	}
	var rs []Restriction
	for _, g := range groups {
		for _, p := range g.pairs() {
			rs = AddRestrictionPair(rs, p[0], p[1])
		}
	}
	require.Len(t, rs, 3) // {a,b} {a,c} {b,c}

	// Removing the trio drops {a,b} and {a,c}; {b,c} survives because the
	// second group still justifies it.
	groups, rs = RemoveRestrictionGroup(groups, rs, 0)
	require.Len(t, groups, 1)
	assert.ElementsMatch(t, []Restriction{NewRestriction("b", "c")}, rs)

	groups, rs = RemoveRestrictionGroup(groups, rs, 0)
	assert.Empty(t, groups)
	assert.Empty(t, rs)
}

func TestRemoveRestrictionGroupOutOfRange(t *testing.T) {
	groups := []RestrictionGroup{{Members: []string{"a", "b"}}}
	rs := []Restriction{NewRestriction("a", "b")}

	g2, r2 := RemoveRestrictionGroup(groups, rs, 5)
	assert.Equal(t, groups, g2)
	assert.Equal(t, rs, r2)
}

func TestValidateTeamConfig(t *testing.T) {
	players := []string{"a", "b", "c", "d"}

	tests := []struct {
		name    string
		teams   []TeamSlot
		wantErr string
	}{
		{
			name:  "valid",
			teams: []TeamSlot{{Name: "red", Capacity: 2}, {Name: "blue", Capacity: 2}},
		},
		{
			name:    "capacity mismatch",
			teams:   []TeamSlot{{Name: "red", Capacity: 3}},
			wantErr: "does not match total team capacity",
		},
		{
			name:    "required overflow",
			teams:   []TeamSlot{{Name: "red", Capacity: 1, RequiredPlayers: []string{"a", "b"}}, {Name: "blue", Capacity: 3}},
			wantErr: "pins 2 players but only holds 1",
		},
		{
			name:    "required not a player",
			teams:   []TeamSlot{{Name: "red", Capacity: 2, RequiredPlayers: []string{"zed"}}, {Name: "blue", Capacity: 2}},
			wantErr: "not in the player list",
		},
		{
			name: "required duplicated",
			teams: []TeamSlot{
				{Name: "red", Capacity: 2, RequiredPlayers: []string{"a"}},
				{Name: "blue", Capacity: 2, RequiredPlayers: []string{"a"}},
			},
			wantErr: "pinned to more than one team",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTeamConfig(players, tc.teams)
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}
