package sim

import "github.com/khaaarl/elven-canopy/internal/eventqueue"

// Scheduled event kinds dispatched by the inner event-driven loop.
const (
	KindCreatureHeartbeat        eventqueue.Kind = "creature_heartbeat"
	KindCreatureMovementComplete eventqueue.Kind = "creature_movement_complete"
	KindTreeHeartbeat            eventqueue.Kind = "tree_heartbeat"
)

type creatureHeartbeatPayload struct {
	CreatureId string `json:"creature_id"`
}

type creatureMovementCompletePayload struct {
	CreatureId string `json:"creature_id"`
}

type treeHeartbeatPayload struct {
	TreeId string `json:"tree_id"`
}

// NarrativeKind names the closed set of events apply_turn surfaces to
// the host for logging/UI purposes. These never feed back into
// deterministic state; they are an observational side channel.
type NarrativeKind string

const (
	NarrativeCreatureSpawned  NarrativeKind = "creature_spawned"
	NarrativeCreatureArrived  NarrativeKind = "creature_arrived"
	NarrativeTaskCompleted    NarrativeKind = "task_completed"
	NarrativeTreeFruited      NarrativeKind = "tree_fruited"
)

// NarrativeEvent is one observational event emitted during a turn.
type NarrativeEvent struct {
	Kind    NarrativeKind     `json:"kind"`
	Detail  map[string]string `json:"detail,omitempty"`
}
