package workflow

import (
	"context"
	"fmt"
)

type progressKey struct{}

// WithProgress returns a context whose workflow steps are also reported to
// fn. fn is called from the goroutine running the workflow.
func WithProgress(ctx context.Context, fn func(step string)) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// step logs a workflow step and forwards it to the context's reporter.
func (r *Runner) step(ctx context.Context, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.logger.Infof("%s", msg)
	if fn, ok := ctx.Value(progressKey{}).(func(string)); ok && fn != nil {
		fn(msg)
	}
}
