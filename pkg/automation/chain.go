package automation

import (
	"context"
	"errors"
	"fmt"

	"github.com/entrhq/atlas-bridge/pkg/logging"
)

// Strategy is one way of achieving a step. Try reports whether it succeeded.
type Strategy struct {
	Name string
	Try  func(ctx context.Context) (bool, error)
}

// Chain is an ordered list of strategies; the first that succeeds wins.
type Chain struct {
	Name       string
	Strategies []Strategy
}

// NewChain builds a chain named after the step it performs.
func NewChain(name string, strategies ...Strategy) *Chain {
	return &Chain{Name: name, Strategies: strategies}
}

// Run tries each strategy in order and returns the name of the first that
// succeeds. A strategy error is logged and the next strategy is tried. When
// none succeeds the result wraps ErrNoStrategyMatched together with any
// strategy errors.
func (c *Chain) Run(ctx context.Context, logger *logging.Logger) (string, error) {
	var errs []error
	for _, s := range c.Strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		ok, err := s.Try(ctx)
		if err != nil {
			logger.Debugf("%s: strategy %q failed: %v", c.Name, s.Name, err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		if ok {
			logger.Debugf("%s: strategy %q succeeded", c.Name, s.Name)
			return s.Name, nil
		}
		logger.Debugf("%s: strategy %q found nothing", c.Name, s.Name)
	}
	return "", fmt.Errorf("%s: %w", c.Name, errors.Join(append([]error{ErrNoStrategyMatched}, errs...)...))
}
