package sim

import (
	"sort"

	"github.com/khaaarl/elven-canopy/internal/ids"
)

// sortedTreeIds returns tree ids in ascending byte order, the
// discipline every map-keyed iteration in the kernel follows so two
// independent runs fold over entities identically.
func sortedTreeIds(m map[ids.TreeId]*Tree) []ids.TreeId {
	out := make([]ids.TreeId, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func sortedCreatureIds(m map[ids.CreatureId]*Creature) []ids.CreatureId {
	out := make([]ids.CreatureId, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func sortedTaskIds(m map[ids.TaskId]*Task) []ids.TaskId {
	out := make([]ids.TaskId, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
