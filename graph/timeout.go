package graph

import (
	"context"
	"fmt"
	"time"
)

// getNodeTimeout determines the timeout duration for a node based on
// precedence: a per-node policy override, then the engine-wide default,
// then unlimited.
func getNodeTimeout(policy *NodePolicy, defaultTimeout time.Duration) time.Duration {
	if policy != nil && policy.Timeout > 0 {
		return policy.Timeout
	}
	if defaultTimeout > 0 {
		return defaultTimeout
	}
	return 0
}

// executeNodeWithTimeout wraps a Node.Run call with timeout enforcement,
// matching each NodeSpec.Config.TimeoutS override against the engine's
// DefaultNodeTimeout.
func executeNodeWithTimeout(
	ctx context.Context,
	node Node,
	nodeID string,
	wctx *WorkflowContext,
	policy *NodePolicy,
	defaultTimeout time.Duration,
) (NodeResult, error) {
	timeout := getNodeTimeout(policy, defaultTimeout)

	if timeout == 0 {
		return node.Run(ctx, wctx), nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := node.Run(timeoutCtx, wctx)

	if timeoutCtx.Err() == context.DeadlineExceeded {
		timeoutErr := &EngineError{
			Message: fmt.Sprintf("node %s exceeded timeout of %v", nodeID, timeout),
			Code:    "NODE_TIMEOUT",
		}
		return result, timeoutErr
	}

	return result, nil
}
