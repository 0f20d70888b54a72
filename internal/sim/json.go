package sim

import (
	"encoding/json"
	"hash/fnv"
	"log/slog"

	"github.com/khaaarl/elven-canopy/internal/eventqueue"
	"github.com/khaaarl/elven-canopy/internal/ids"
	"github.com/khaaarl/elven-canopy/internal/navgraph"
	"github.com/khaaarl/elven-canopy/internal/prng"
	"github.com/khaaarl/elven-canopy/internal/voxel"
)

type savedState struct {
	Tick            uint64                          `json:"tick"`
	Config          Config                          `json:"config"`
	PlayerTreeId    ids.TreeId                      `json:"player_tree_id"`
	World           *voxel.World                    `json:"world"`
	Nav             *navgraph.Graph                 `json:"nav"`
	Trees           map[ids.TreeId]*Tree            `json:"trees"`
	Creatures       map[ids.CreatureId]*Creature    `json:"creatures"`
	Tasks           map[ids.TaskId]*Task            `json:"tasks"`
	Blueprints      map[ids.StructureId]*Blueprint  `json:"blueprints"`
	Queue           *eventqueue.Queue               `json:"queue"`
	Rng             *prng.Stream                    `json:"rng"`
	SpeedMultiplier float64                         `json:"speed_multiplier"`
}

// ToJSON produces the canonical serialization used for save and desync
// inspection. Go's encoding/json sorts every map's keys before
// encoding, so entity tables keyed by SimUuid-derived ids come out in a
// fixed, language-independent order for free.
func (s *State) ToJSON() ([]byte, error) {
	return json.Marshal(savedState{
		Tick:            s.Tick,
		Config:          s.Config,
		PlayerTreeId:    s.PlayerTreeId,
		World:           s.World,
		Nav:             s.Nav,
		Trees:           s.Trees,
		Creatures:       s.Creatures,
		Tasks:           s.Tasks,
		Blueprints:      s.Blueprints,
		Queue:           s.Queue,
		Rng:             s.Rng,
		SpeedMultiplier: s.SpeedMultiplier,
	})
}

// FromJSON restores a State captured by ToJSON.
func FromJSON(data []byte, logger *slog.Logger) (*State, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var saved savedState
	saved.World = &voxel.World{}
	saved.Nav = &navgraph.Graph{}
	saved.Queue = eventqueue.New()
	saved.Rng = prng.New(0)
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, err
	}

	if saved.Trees == nil {
		saved.Trees = make(map[ids.TreeId]*Tree)
	}
	if saved.Creatures == nil {
		saved.Creatures = make(map[ids.CreatureId]*Creature)
	}
	if saved.Tasks == nil {
		saved.Tasks = make(map[ids.TaskId]*Task)
	}
	if saved.Blueprints == nil {
		saved.Blueprints = make(map[ids.StructureId]*Blueprint)
	}

	return &State{
		Tick:            saved.Tick,
		Config:          saved.Config,
		PlayerTreeId:    saved.PlayerTreeId,
		World:           saved.World,
		Nav:             saved.Nav,
		Trees:           saved.Trees,
		Creatures:       saved.Creatures,
		Tasks:           saved.Tasks,
		Blueprints:      saved.Blueprints,
		Queue:           saved.Queue,
		Rng:             saved.Rng,
		SpeedMultiplier: saved.SpeedMultiplier,
		logger:          logger,
	}, nil
}

// Checksum is a cheap, pure-function-of-state summary suitable for
// exchange via the wire protocol's Checksum message: identical states
// always hash to the same value.
func (s *State) Checksum(atTick uint64) uint64 {
	data, err := s.ToJSON()
	if err != nil {
		panic(err)
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte{
		byte(atTick), byte(atTick >> 8), byte(atTick >> 16), byte(atTick >> 24),
		byte(atTick >> 32), byte(atTick >> 40), byte(atTick >> 48), byte(atTick >> 56),
	})
	_, _ = h.Write(data)
	return h.Sum64()
}
