package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/travelai/agent/contract"
	nodex "github.com/tanpawarit/travelai/agent/nodes"
)

// compileTurnGraph wires the reason/tools loop:
//
//	START -> validate_request -> reason -> (dispatch_tools -> reason)* -> finalize_turn -> END
func (o *Orchestrator) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode(nodex.NodeValidateRequest,
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeValidateRequest, err)
	}

	if err := graph.AddLambdaNode(nodex.NodeReason,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Reason(ctx, in, nodex.ReasonDeps{
				Reasoner: o.reasoner,
				Tools:    o.tools,
				System:   o.prompts.System,
				Timeout:  o.cfg.ReasoningTimeout,
			})
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeReason, err)
	}

	if err := graph.AddLambdaNode(nodex.NodeDispatchTools,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.DispatchTools(ctx, in, o.tools, o.cfg.ToolTimeout)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeDispatchTools, err)
	}

	if err := graph.AddLambdaNode(nodex.NodeFinalizeTurn,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeTurn(in, o.prompts.Exhausted)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeFinalizeTurn, err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			return nodex.NextStep(in), nil
		},
		map[string]bool{
			nodex.NodeDispatchTools: true,
			nodex.NodeFinalizeTurn:  true,
		},
	)
	if err := graph.AddBranch(nodex.NodeReason, branch); err != nil {
		return nil, fmt.Errorf("add branch after %s: %w", nodex.NodeReason, err)
	}

	edges := [][2]string{
		{compose.START, nodex.NodeValidateRequest},
		{nodex.NodeValidateRequest, nodex.NodeReason},
		{nodex.NodeDispatchTools, nodex.NodeReason},
		{nodex.NodeFinalizeTurn, compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx,
		compose.WithGraphName("orchestrator.process_turn"),
		compose.WithMaxRunSteps(maxRunSteps(o.cfg.MaxIterations)),
	)
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}

// maxRunSteps bounds the graph run: validate, finalize and one reason plus
// one dispatch step per iteration, with slack for start/end bookkeeping.
func maxRunSteps(maxIterations int) int {
	return maxIterations*3 + 5
}
