// Package grouping shapes pipeline results for display: members bundled
// under their resolved main character.
package grouping

import (
	"sort"

	"github.com/minseo-lab/guildmain/internal/domain/model"
)

// Group is one display bucket: a main character and the members that
// resolve to it, sorted by level descending.
type Group struct {
	MainCharacter string               `json:"mainCharacter"`
	Members       []model.MemberResult `json:"members"`
}

// MaxLevel returns the highest character level inside the group.
func (g Group) MaxLevel() int {
	max := 0
	for _, m := range g.Members {
		if m.CharacterLevel > max {
			max = m.CharacterLevel
		}
	}
	return max
}

// ByMainCharacter groups results by resolved main-character name.
// Members whose lookup failed form singleton groups keyed by their own
// name. Within a group, members sort by level descending; groups sort
// by their max level descending. Both sorts are stable: ties keep input
// order (members) and first-encounter order (groups). Pure function.
func ByMainCharacter(results []model.MemberResult) []Group {
	groups := make([]Group, 0)
	index := make(map[string]int)

	for _, r := range results {
		key := r.Member
		if r.MainName != nil && *r.MainName != "" {
			key = *r.MainName
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{MainCharacter: key})
		}
		groups[i].Members = append(groups[i].Members, r)
	}

	for i := range groups {
		members := groups[i].Members
		sort.SliceStable(members, func(a, b int) bool {
			return members[a].CharacterLevel > members[b].CharacterLevel
		})
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].MaxLevel() > groups[b].MaxLevel()
	})

	return groups
}
