package orchestratornode

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	contractx "github.com/tanpawarit/travelai/agent/contract"
	"github.com/tanpawarit/travelai/agent/provider"
	statex "github.com/tanpawarit/travelai/agent/state"
)

// DispatchTools runs the pending calls concurrently and appends one result per
// call in request order.
func DispatchTools(ctx context.Context, in *GraphState, tools contractx.ToolDispatcher, timeout time.Duration) (*GraphState, error) {
	if in == nil || in.Turn == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	calls := in.Pending
	results := make([]provider.Result, len(calls))

	var g errgroup.Group
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			callCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			results[i] = tools.Dispatch(callCtx, call)
			return nil
		})
	}
	_ = g.Wait()

	for i, call := range calls {
		in.Turn.Append(statex.ToolResultMessage{
			CallID: call.ID,
			Tool:   call.Name,
			Result: results[i],
		})
	}
	in.Pending = nil
	return in, nil
}
