package sim

import "github.com/khaaarl/elven-canopy/internal/ids"

// CreatureCount returns the number of living creatures of the given
// species.
func (s *State) CreatureCount(species string) int {
	n := 0
	for _, c := range s.Creatures {
		if c.Species == species {
			n++
		}
	}
	return n
}

// TreeMana returns a tree's stored mana and whether that tree exists.
func (s *State) TreeMana(id ids.TreeId) (float64, bool) {
	t, ok := s.Trees[id]
	if !ok {
		return 0, false
	}
	return t.Mana, true
}

// SortedTreeIds returns every tree id in ascending order.
func (s *State) SortedTreeIds() []ids.TreeId {
	return sortedTreeIds(s.Trees)
}

// SortedCreatureIds returns every creature id in ascending order.
func (s *State) SortedCreatureIds() []ids.CreatureId {
	return sortedCreatureIds(s.Creatures)
}

// SortedTaskIds returns every task id in ascending order.
func (s *State) SortedTaskIds() []ids.TaskId {
	return sortedTaskIds(s.Tasks)
}
