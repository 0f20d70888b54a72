package sim

import (
	"encoding/json"

	"github.com/khaaarl/elven-canopy/internal/ids"
)

// CommandType tags the kind of a Command's payload.
type CommandType string

const (
	CmdSpawnCreature   CommandType = "spawn_creature"
	CmdCreateTask      CommandType = "create_task"
	CmdDesignateBuild  CommandType = "designate_build"
	CmdCancelBuild     CommandType = "cancel_build"
	CmdSetTaskPriority CommandType = "set_task_priority"
	CmdSetSimSpeed     CommandType = "set_sim_speed"
)

// Command is the envelope the kernel decodes from a TurnCommand's raw
// payload bytes. The relay never inspects this structure — only the
// sim does.
type Command struct {
	Type    CommandType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SpawnCreaturePayload requests a new creature of Species snapped to
// the nearest nav node to Near.
type SpawnCreaturePayload struct {
	Species string         `json:"species"`
	Near    ids.VoxelCoord `json:"near"`
}

// CreateTaskPayload requests a new task targeting Target.
type CreateTaskPayload struct {
	Kind            TaskKind       `json:"kind"`
	Target          ids.VoxelCoord `json:"target"`
	TotalCost       float64        `json:"total_cost"`
	RequiredSpecies *string        `json:"required_species,omitempty"`
}

// DesignateBuildPayload creates a new Blueprint.
type DesignateBuildPayload struct {
	BuildType string           `json:"build_type"`
	Voxels    []ids.VoxelCoord `json:"voxels"`
	Priority  int              `json:"priority"`
}

// CancelBuildPayload removes a previously designated Blueprint.
type CancelBuildPayload struct {
	StructureId ids.StructureId `json:"structure_id"`
}

// SetTaskPriorityPayload is presently a no-op placeholder: Task has no
// priority field of its own (only Blueprint does), so this command is
// accepted and validated but produces no state change beyond proving
// the referenced task exists.
type SetTaskPriorityPayload struct {
	TaskId   ids.TaskId `json:"task_id"`
	Priority int        `json:"priority"`
}

// SetSimSpeedPayload sets State.SpeedMultiplier; it does not affect
// tick arithmetic, which is always integer.
type SetSimSpeedPayload struct {
	Multiplier float64 `json:"multiplier"`
}

func encodeCommand(t CommandType, payload interface{}) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	data, err := json.Marshal(Command{Type: t, Payload: raw})
	if err != nil {
		panic(err)
	}
	return data
}

// EncodeSpawnCreature is a test/host convenience for building a raw
// command payload.
func EncodeSpawnCreature(species string, near ids.VoxelCoord) []byte {
	return encodeCommand(CmdSpawnCreature, SpawnCreaturePayload{Species: species, Near: near})
}

// EncodeCreateTask is a test/host convenience for building a raw
// command payload.
func EncodeCreateTask(kind TaskKind, target ids.VoxelCoord, totalCost float64, requiredSpecies *string) []byte {
	return encodeCommand(CmdCreateTask, CreateTaskPayload{
		Kind: kind, Target: target, TotalCost: totalCost, RequiredSpecies: requiredSpecies,
	})
}

// EncodeDesignateBuild is a test/host convenience for building a raw
// command payload.
func EncodeDesignateBuild(buildType string, voxels []ids.VoxelCoord, priority int) []byte {
	return encodeCommand(CmdDesignateBuild, DesignateBuildPayload{
		BuildType: buildType, Voxels: voxels, Priority: priority,
	})
}

// EncodeCancelBuild is a test/host convenience for building a raw
// command payload.
func EncodeCancelBuild(structureId ids.StructureId) []byte {
	return encodeCommand(CmdCancelBuild, CancelBuildPayload{StructureId: structureId})
}

// EncodeSetTaskPriority is a test/host convenience for building a raw
// command payload.
func EncodeSetTaskPriority(taskId ids.TaskId, priority int) []byte {
	return encodeCommand(CmdSetTaskPriority, SetTaskPriorityPayload{TaskId: taskId, Priority: priority})
}

// EncodeSetSimSpeed is a test/host convenience for building a raw
// command payload.
func EncodeSetSimSpeed(multiplier float64) []byte {
	return encodeCommand(CmdSetSimSpeed, SetSimSpeedPayload{Multiplier: multiplier})
}
