// Package workflow starts the externally-orchestrated pipeline run.
package workflow

import "context"

// Starter starts one downstream pipeline execution and returns its run
// identifier. Implementations do not retry; a failure is terminal for the
// invocation.
type Starter interface {
	StartPipeline(ctx context.Context) (runID string, err error)
}
