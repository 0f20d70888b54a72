// Package sim is the deterministic simulation kernel: a pure state
// transition driven by a priority-ordered event queue, a voxel world,
// a navigation graph, A* pathfinding, and entity tables keyed by
// deterministic identifiers. Every non-deterministic draw anywhere in
// this package routes through State's single owned PRNG stream.
package sim

import (
	"log/slog"

	"github.com/khaaarl/elven-canopy/internal/eventqueue"
	"github.com/khaaarl/elven-canopy/internal/ids"
	"github.com/khaaarl/elven-canopy/internal/navgraph"
	"github.com/khaaarl/elven-canopy/internal/prng"
	"github.com/khaaarl/elven-canopy/internal/voxel"
)

// State holds everything that advances in lockstep. The voxel world
// and nav graph are reconstructable from (seed, config, tick-zero
// history) and so may be dropped from the serialized form; everything
// else here is load-bearing for correctness.
type State struct {
	Tick         uint64
	Config       Config
	PlayerTreeId ids.TreeId

	World *voxel.World
	Nav   *navgraph.Graph

	Trees      map[ids.TreeId]*Tree
	Creatures  map[ids.CreatureId]*Creature
	Tasks      map[ids.TaskId]*Task
	Blueprints map[ids.StructureId]*Blueprint

	Queue *eventqueue.Queue
	Rng   *prng.Stream

	SpeedMultiplier float64

	logger *slog.Logger
}

// New builds a simulation state purely as a function of (seed,
// DefaultConfig()).
func New(seed uint64, logger *slog.Logger) *State {
	return NewWithConfig(seed, DefaultConfig(), logger)
}

// NewWithConfig builds a simulation state purely as a function of
// (seed, config). Two calls with the same arguments must always yield
// byte-identical to_json() output.
func NewWithConfig(seed uint64, cfg Config, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}

	s := &State{
		Config:          cfg,
		Trees:           make(map[ids.TreeId]*Tree),
		Creatures:       make(map[ids.CreatureId]*Creature),
		Tasks:           make(map[ids.TaskId]*Task),
		Blueprints:      make(map[ids.StructureId]*Blueprint),
		Queue:           eventqueue.New(),
		Rng:             prng.New(seed),
		SpeedMultiplier: 1.0,
		logger:          logger,
	}

	s.World = voxel.New(cfg.WorldSizeX, cfg.WorldSizeY, cfg.WorldSizeZ)
	for x := int32(0); x < cfg.WorldSizeX; x++ {
		for z := int32(0); z < cfg.WorldSizeZ; z++ {
			s.World.Set(ids.VoxelCoord{X: x, Y: 0, Z: z}, voxel.ForestFloor)
		}
	}

	s.generateTrees()
	s.Nav = navgraph.Build(s.World)

	for i, id := range sortedTreeIds(s.Trees) {
		_ = i
		s.Queue.Schedule(cfg.TreeGen.HeartbeatTicks, KindTreeHeartbeat, mustJSON(treeHeartbeatPayload{TreeId: id.String()}))
	}

	return s
}

func (s *State) generateTrees() {
	count := s.Config.TreeGen.Count
	if count <= 0 || s.Config.WorldSizeX <= 0 || s.Config.WorldSizeZ <= 0 {
		return
	}
	var firstId ids.TreeId
	for i := 0; i < count; i++ {
		x := int32(s.Rng.RangeInt(0, int(s.Config.WorldSizeX)))
		z := int32(s.Rng.RangeInt(0, int(s.Config.WorldSizeZ)))
		pos := ids.VoxelCoord{X: x, Y: 0, Z: z}

		trunk := []ids.VoxelCoord{{X: x, Y: 1, Z: z}, {X: x, Y: 2, Z: z}}
		for _, c := range trunk {
			s.World.Set(c, voxel.Trunk)
		}
		branch := ids.VoxelCoord{X: x, Y: 3, Z: z}
		s.World.Set(branch, voxel.Branch)

		id := ids.TreeId(ids.NewSimUuid(s.Rng))
		tree := &Tree{
			Id:           id,
			Position:     pos,
			Mana:         s.Config.TreeGen.StartingMana,
			TrunkVoxels:  trunk,
			BranchVoxels: []ids.VoxelCoord{branch},
			Growth:       GrowthSapling,
		}
		s.Trees[id] = tree
		if i == 0 {
			firstId = id
		}
	}
	s.PlayerTreeId = firstId
}
