// internal/models/validate.go
package models

import "fmt"

// ValidateTeamConfig checks the structural consistency of a team
// configuration against the player list: capacities must sum to the player
// count, no team may pin more players than it can hold, every pinned player
// must exist, and no player may be pinned by two teams. The returned error
// message is user-facing and names the offending team or player.
func ValidateTeamConfig(players []string, teams []TeamSlot) error {
	total := 0
	for _, t := range teams {
		total += t.Capacity
	}
	if total != len(players) {
		return fmt.Errorf("player count (%d) does not match total team capacity (%d)", len(players), total)
	}

	playerSet := make(map[string]bool, len(players))
	for _, p := range players {
		playerSet[p] = true
	}

	seenRequired := make(map[string]bool)
	for _, t := range teams {
		if len(t.RequiredPlayers) > t.Capacity {
			return fmt.Errorf("team %q pins %d players but only holds %d", t.Name, len(t.RequiredPlayers), t.Capacity)
		}
		for _, rp := range t.RequiredPlayers {
			if !playerSet[rp] {
				return fmt.Errorf("required player %q is not in the player list", rp)
			}
			if seenRequired[rp] {
				return fmt.Errorf("required player %q is pinned to more than one team", rp)
			}
			seenRequired[rp] = true
		}
	}
	return nil
}
