package sim

import (
	"encoding/json"

	"github.com/khaaarl/elven-canopy/internal/eventqueue"
	"github.com/khaaarl/elven-canopy/internal/ids"
	"github.com/khaaarl/elven-canopy/internal/navgraph"
	"github.com/khaaarl/elven-canopy/internal/pathfinder"
)

// ApplyTurn applies commands in the exact order given, then drains the
// event queue until no scheduled event has tick <= targetTick (Tick
// follows each fired event's tick, so rescheduling is relative to it),
// then sets Tick = targetTick. At most one call per turn is valid; calling
// it twice for the same turn double-applies commands and is a caller
// bug, not one this method defends against (the relay guarantees
// single delivery).
func (s *State) ApplyTurn(targetTick uint64, commands [][]byte) []NarrativeEvent {
	var narrative []NarrativeEvent

	for _, raw := range commands {
		s.applyCommand(raw, &narrative)
	}

	for {
		ev, ok := s.Queue.PopIfReady(targetTick)
		if !ok {
			break
		}
		s.Tick = ev.Tick
		s.dispatch(ev, &narrative)
	}

	s.Tick = targetTick
	return narrative
}

func (s *State) applyCommand(raw []byte, narrative *[]NarrativeEvent) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		s.logger.Warn("dropping malformed command", "error", err)
		return
	}

	switch cmd.Type {
	case CmdSpawnCreature:
		var p SpawnCreaturePayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			s.logger.Warn("dropping malformed spawn_creature command", "error", err)
			return
		}
		s.cmdSpawnCreature(p, narrative)

	case CmdCreateTask:
		var p CreateTaskPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			s.logger.Warn("dropping malformed create_task command", "error", err)
			return
		}
		s.cmdCreateTask(p)

	case CmdDesignateBuild:
		var p DesignateBuildPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			s.logger.Warn("dropping malformed designate_build command", "error", err)
			return
		}
		s.cmdDesignateBuild(p)

	case CmdCancelBuild:
		var p CancelBuildPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			s.logger.Warn("dropping malformed cancel_build command", "error", err)
			return
		}
		s.cmdCancelBuild(p)

	case CmdSetTaskPriority:
		var p SetTaskPriorityPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			s.logger.Warn("dropping malformed set_task_priority command", "error", err)
			return
		}
		s.cmdSetTaskPriority(p)

	case CmdSetSimSpeed:
		var p SetSimSpeedPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			s.logger.Warn("dropping malformed set_sim_speed command", "error", err)
			return
		}
		s.SpeedMultiplier = p.Multiplier

	default:
		s.logger.Warn("dropping unknown command type", "type", cmd.Type)
	}
}

func (s *State) cmdSpawnCreature(p SpawnCreaturePayload, narrative *[]NarrativeEvent) {
	node, ok := s.Nav.NearestNode(p.Near)
	if !ok {
		s.logger.Info("spawn_creature failed: no nav node available", "species", p.Species)
		return
	}
	id := ids.CreatureId(ids.NewSimUuid(s.Rng))
	s.Creatures[id] = &Creature{
		Id:          id,
		Species:     p.Species,
		CurrentNode: node,
	}
	s.scheduleHeartbeat(id)
	*narrative = append(*narrative, NarrativeEvent{
		Kind:   NarrativeCreatureSpawned,
		Detail: map[string]string{"creature_id": id.String(), "species": p.Species},
	})
}

func (s *State) cmdCreateTask(p CreateTaskPayload) {
	node, ok := s.Nav.NearestNode(p.Target)
	if !ok {
		s.logger.Info("create_task failed: no nav node near target")
		return
	}
	id := ids.TaskId(ids.NewSimUuid(s.Rng))
	s.Tasks[id] = &Task{
		Id:              id,
		Kind:            p.Kind,
		State:           TaskAvailable,
		TargetNode:      node,
		TotalCost:       p.TotalCost,
		RequiredSpecies: p.RequiredSpecies,
	}
}

func (s *State) cmdDesignateBuild(p DesignateBuildPayload) {
	id := ids.StructureId(ids.NewSimUuid(s.Rng))
	s.Blueprints[id] = &Blueprint{
		Id:        id,
		BuildType: p.BuildType,
		Voxels:    p.Voxels,
		Priority:  p.Priority,
		State:     BlueprintDesignated,
	}
}

func (s *State) cmdCancelBuild(p CancelBuildPayload) {
	delete(s.Blueprints, p.StructureId)
}

func (s *State) cmdSetTaskPriority(p SetTaskPriorityPayload) {
	if _, ok := s.Tasks[p.TaskId]; !ok {
		s.logger.Info("set_task_priority failed: unknown task", "task_id", p.TaskId.String())
		return
	}
	// Task carries no priority field of its own (only Blueprint does);
	// validated and otherwise a no-op.
}

func (s *State) scheduleHeartbeat(id ids.CreatureId) {
	sp := s.Config.Species[s.Creatures[id].Species]
	interval := sp.HeartbeatTicks
	if interval == 0 {
		interval = 20
	}
	s.Queue.Schedule(s.Tick+interval, KindCreatureHeartbeat, mustJSON(creatureHeartbeatPayload{CreatureId: id.String()}))
}

func (s *State) dispatch(ev eventqueue.ScheduledEvent, narrative *[]NarrativeEvent) {
	switch ev.Kind {
	case KindCreatureHeartbeat:
		var p creatureHeartbeatPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return
		}
		s.onCreatureHeartbeat(ids.CreatureId(mustParseSimUuid(p.CreatureId)), narrative)

	case KindCreatureMovementComplete:
		var p creatureMovementCompletePayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return
		}
		s.onCreatureMovementComplete(ids.CreatureId(mustParseSimUuid(p.CreatureId)), narrative)

	case KindTreeHeartbeat:
		var p treeHeartbeatPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return
		}
		s.onTreeHeartbeat(ids.TreeId(mustParseSimUuid(p.TreeId)), narrative)
	}
}

func mustParseSimUuid(s string) ids.SimUuid {
	var id ids.SimUuid
	_ = id.UnmarshalText([]byte(s))
	return id
}

// onCreatureHeartbeat picks the creature's next micro-action: if it
// has no task, it claims the lowest-id Available task it qualifies
// for; otherwise (or if none qualify) it wanders to a random
// neighboring node. Any random draw goes through s.Rng.
func (s *State) onCreatureHeartbeat(id ids.CreatureId, narrative *[]NarrativeEvent) {
	c, ok := s.Creatures[id]
	if !ok {
		return
	}
	defer s.scheduleHeartbeat(id)

	if c.AssignedTask == nil {
		for _, taskId := range sortedTaskIds(s.Tasks) {
			t := s.Tasks[taskId]
			if t.State != TaskAvailable {
				continue
			}
			if t.RequiredSpecies != nil && *t.RequiredSpecies != c.Species {
				continue
			}
			t.State = TaskInProgress
			t.Assignees = append(t.Assignees, id)
			claimed := taskId
			c.AssignedTask = &claimed
			s.startMoveTo(c, t.TargetNode, narrative)
			return
		}
	}

	if c.Path == nil {
		edges := s.Nav.OutgoingEdges(c.CurrentNode)
		if len(edges) == 0 {
			return
		}
		choice := s.Rng.RangeInt(0, len(edges))
		edge := s.Nav.Edges[edges[choice]]
		s.startMoveTo(c, edge.To, narrative)
	}
}

// startMoveTo begins moving creature c toward target via A*, scheduling
// the first CreatureMovementComplete event. If target is already
// c.CurrentNode the creature arrives immediately; if no path exists,
// nothing is scheduled and the creature stays where it is.
func (s *State) startMoveTo(c *Creature, target navgraph.NodeId, narrative *[]NarrativeEvent) {
	if target == c.CurrentNode {
		s.arriveAt(c, narrative)
		return
	}

	sp := s.Config.Species[c.Species]
	speed := sp.MoveSpeed
	if speed <= 0 {
		speed = 1.0
	}

	result, ok := pathfinder.AStar(s.Nav, c.CurrentNode, target, speed)
	if !ok || len(result.Nodes) < 2 {
		return
	}

	c.Path = &CreaturePath{Nodes: result.Nodes, Edges: result.Edges, NextIx: 1}
	s.scheduleNextArrival(c, speed)
}

func (s *State) scheduleNextArrival(c *Creature, speed float64) {
	edge := s.Nav.Edges[c.Path.Edges[c.Path.NextIx-1]]
	deltaTicks := uint64(edge.Cost / speed)
	if deltaTicks == 0 {
		deltaTicks = 1
	}
	s.Queue.Schedule(s.Tick+deltaTicks, KindCreatureMovementComplete,
		mustJSON(creatureMovementCompletePayload{CreatureId: c.Id.String()}))
}

// onCreatureMovementComplete advances the creature one edge along its
// path. If more path remains it schedules the next arrival; otherwise
// it arrives, and if assigned to a task, contributes progress toward
// completion.
func (s *State) onCreatureMovementComplete(id ids.CreatureId, narrative *[]NarrativeEvent) {
	c, ok := s.Creatures[id]
	if !ok || c.Path == nil {
		return
	}

	c.CurrentNode = c.Path.Nodes[c.Path.NextIx]
	c.Path.NextIx++

	if c.Path.NextIx < len(c.Path.Nodes) {
		sp := s.Config.Species[c.Species]
		speed := sp.MoveSpeed
		if speed <= 0 {
			speed = 1.0
		}
		s.scheduleNextArrival(c, speed)
		return
	}

	c.Path = nil
	s.arriveAt(c, narrative)
}

// arriveAt records that c has reached c.CurrentNode: it emits the
// arrival narrative event and, if c is working an assigned task whose
// target is this node, contributes progress toward its completion.
// Called both when a multi-step path finishes and when a move's target
// turns out to already be the creature's current node.
func (s *State) arriveAt(c *Creature, narrative *[]NarrativeEvent) {
	*narrative = append(*narrative, NarrativeEvent{
		Kind:   NarrativeCreatureArrived,
		Detail: map[string]string{"creature_id": c.Id.String()},
	})

	if c.AssignedTask == nil {
		return
	}
	t, ok := s.Tasks[*c.AssignedTask]
	if !ok || t.TargetNode != c.CurrentNode {
		return
	}

	step := 1.0
	if t.TotalCost > 0 {
		step = 1.0 / t.TotalCost
	}
	t.Progress += step
	if t.Progress >= 1.0 {
		t.Progress = 1.0
		t.State = TaskComplete
		c.AssignedTask = nil
		*narrative = append(*narrative, NarrativeEvent{
			Kind:   NarrativeTaskCompleted,
			Detail: map[string]string{"task_id": t.Id.String()},
		})
	}
}

// onTreeHeartbeat advances a tree's metabolism: mana regenerates and,
// once enough has accumulated, fruit appears.
func (s *State) onTreeHeartbeat(id ids.TreeId, narrative *[]NarrativeEvent) {
	t, ok := s.Trees[id]
	if !ok {
		return
	}
	defer func() {
		interval := s.Config.TreeGen.HeartbeatTicks
		if interval == 0 {
			interval = 50
		}
		s.Queue.Schedule(s.Tick+interval, KindTreeHeartbeat, mustJSON(treeHeartbeatPayload{TreeId: id.String()}))
	}()

	t.Mana += 1.0
	if t.Growth == GrowthSapling && t.Mana >= s.Config.TreeGen.StartingMana*2 {
		t.Growth = GrowthMature
	}
	if !t.HasFruit && t.Mana >= s.Config.TreeGen.StartingMana*1.5 {
		t.HasFruit = true
		*narrative = append(*narrative, NarrativeEvent{
			Kind:   NarrativeTreeFruited,
			Detail: map[string]string{"tree_id": id.String()},
		})
	}
}
