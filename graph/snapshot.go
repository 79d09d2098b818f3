package graph

import (
	"context"
	"errors"
	"time"

	"github.com/agentgraph/workflow/graph/store"
)

// ContextSnapshot is the serializable projection of a WorkflowContext
// used to persist durable checkpoints via the teacher's generic
// store.Store[S]/Checkpoint[S] machinery, instantiated here with
// S = ContextSnapshot instead of an arbitrary reducer-merged state.
type ContextSnapshot struct {
	WorkflowID    string               `json:"workflowId"`
	ExecutionID   string               `json:"executionId"`
	InputData     Value                `json:"inputData"`
	OutputData    Value                `json:"outputData"`
	Variables     map[string]Value     `json:"variables"`
	NodeOutputs   map[string]Value     `json:"nodeOutputs"`
	NodeStates    map[string]NodeState `json:"nodeStates"`
	ExecutionPath []string             `json:"executionPath"`
}

// Snapshot captures wctx as a ContextSnapshot.
func Snapshot(wctx *WorkflowContext) ContextSnapshot {
	nodeOutputs := make(map[string]Value)
	for _, id := range wctx.ExecutionPath() {
		if v, ok := wctx.NodeOutput(id); ok {
			nodeOutputs[id] = v
		}
	}
	nodeStates := make(map[string]NodeState)
	for _, id := range wctx.ExecutionPath() {
		nodeStates[id] = wctx.NodeState(id)
	}
	return ContextSnapshot{
		WorkflowID:    wctx.WorkflowID,
		ExecutionID:   wctx.ExecutionID,
		InputData:     wctx.InputData,
		OutputData:    wctx.OutputData,
		Variables:     wctx.Variables(),
		NodeOutputs:   nodeOutputs,
		NodeStates:    nodeStates,
		ExecutionPath: wctx.ExecutionPath(),
	}
}

// Restore rebuilds a WorkflowContext from a ContextSnapshot, used when
// resuming an execution from durable storage after a process restart
// (as opposed to the in-memory Resume path used for same-process pause).
func Restore(snap ContextSnapshot) *WorkflowContext {
	wctx := NewWorkflowContext(snap.WorkflowID, snap.ExecutionID, snap.InputData)
	wctx.OutputData = snap.OutputData
	for k, v := range snap.Variables {
		wctx.Set(k, v)
	}
	for _, id := range snap.ExecutionPath {
		if out, ok := snap.NodeOutputs[id]; ok {
			wctx.CompleteNode(id, out)
		} else {
			wctx.VisitWithoutOutput(id)
		}
		if st, ok := snap.NodeStates[id]; ok {
			wctx.SetNodeState(id, st)
		}
	}
	return wctx
}

// CheckpointStore persists ContextSnapshots keyed by executionID, built
// on the teacher's generic store.Store[S] so any backend implementing it
// (memory, MySQL, SQLite) works here unmodified.
type CheckpointStore struct {
	backend store.Store[ContextSnapshot]
}

func NewCheckpointStore(backend store.Store[ContextSnapshot]) *CheckpointStore {
	return &CheckpointStore{backend: backend}
}

// Save persists wctx's current state as the latest step for its
// execution. It commits through both SaveStep (the plain latest-state
// path Load reads back) and SaveCheckpointV2, keyed by
// checkpoint.go's computeIdempotencyKey over (executionID, step,
// frontier, state): a retried commit of the same step with the same
// frontier and state collides on that key and is rejected by the
// backend as a duplicate rather than silently overwriting history.
func (cs *CheckpointStore) Save(ctx context.Context, wctx *WorkflowContext, step int, frontier []WorkItem[frontierItem]) error {
	snap := Snapshot(wctx)
	key, err := computeIdempotencyKey(wctx.ExecutionID, step, frontier, snap)
	if err != nil {
		return err
	}
	if err := cs.backend.SaveStep(ctx, wctx.ExecutionID, step, wctx.LastVisited(), snap); err != nil {
		return err
	}
	err = cs.backend.SaveCheckpointV2(ctx, store.CheckpointV2[ContextSnapshot]{
		RunID:          wctx.ExecutionID,
		StepID:         step,
		State:          snap,
		Frontier:       frontier,
		IdempotencyKey: key,
		Timestamp:      time.Now(),
	})
	if err != nil && !errors.Is(err, store.ErrDuplicateCheckpoint) {
		return err
	}
	return nil
}

// Load retrieves the most recently saved snapshot for executionID and
// rebuilds its WorkflowContext.
func (cs *CheckpointStore) Load(ctx context.Context, executionID string) (*WorkflowContext, int, error) {
	snap, step, err := cs.backend.LoadLatest(ctx, executionID)
	if err != nil {
		return nil, 0, err
	}
	return Restore(snap), step, nil
}
