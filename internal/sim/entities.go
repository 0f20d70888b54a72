package sim

import (
	"github.com/khaaarl/elven-canopy/internal/ids"
	"github.com/khaaarl/elven-canopy/internal/navgraph"
)

// GrowthState tracks a tree's maturity.
type GrowthState string

const (
	GrowthSapling GrowthState = "sapling"
	GrowthMature  GrowthState = "mature"
)

// Tree is the player's home tree or one of its offshoots.
type Tree struct {
	Id           ids.TreeId       `json:"id"`
	Position     ids.VoxelCoord   `json:"position"`
	Mana         float64          `json:"mana"`
	TrunkVoxels  []ids.VoxelCoord `json:"trunk_voxels"`
	BranchVoxels []ids.VoxelCoord `json:"branch_voxels"`
	Growth       GrowthState      `json:"growth"`
	HasFruit     bool             `json:"has_fruit"`
}

// CreaturePath is the in-progress pathfinder result a creature is
// walking, plus how far along it is.
type CreaturePath struct {
	Nodes  []navgraph.NodeId `json:"nodes"`
	Edges  []navgraph.EdgeId `json:"edges"`
	NextIx int               `json:"next_ix"`
}

// Creature is a mobile entity belonging to a species.
type Creature struct {
	Id           ids.CreatureId  `json:"id"`
	Species      string          `json:"species"`
	CurrentNode  navgraph.NodeId `json:"current_node"`
	Path         *CreaturePath   `json:"path,omitempty"`
	AssignedTask *ids.TaskId     `json:"assigned_task,omitempty"`
}

// TaskKind names the kind of work a task represents.
type TaskKind string

const (
	TaskKindHarvest TaskKind = "harvest"
	TaskKindBuild   TaskKind = "build"
	TaskKindHaul    TaskKind = "haul"
)

// TaskState tracks a task's lifecycle.
type TaskState string

const (
	TaskAvailable  TaskState = "available"
	TaskInProgress TaskState = "in_progress"
	TaskComplete   TaskState = "complete"
)

// Task is a unit of work creatures can claim and work toward
// completion.
type Task struct {
	Id              ids.TaskId       `json:"id"`
	Kind            TaskKind         `json:"kind"`
	State           TaskState        `json:"state"`
	TargetNode      navgraph.NodeId  `json:"target_node"`
	Assignees       []ids.CreatureId `json:"assignees"`
	Progress        float64          `json:"progress"`
	TotalCost       float64          `json:"total_cost"`
	RequiredSpecies *string          `json:"required_species,omitempty"`
}

// BlueprintState tracks a designated construction's lifecycle.
type BlueprintState string

const (
	BlueprintDesignated BlueprintState = "designated"
	BlueprintComplete   BlueprintState = "complete"
)

// Blueprint is a player-designated construction project.
type Blueprint struct {
	Id        ids.StructureId  `json:"id"`
	BuildType string           `json:"build_type"`
	Voxels    []ids.VoxelCoord `json:"voxels"`
	Priority  int              `json:"priority"`
	State     BlueprintState   `json:"state"`
}
