package reason

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pika/pkg/model"
)

// StrategyInfo describes one registered strategy for listings.
type StrategyInfo struct {
	Name        string
	Description string
}

// Dispatcher maps strategy names to typed handlers sharing the Strategy
// interface. Registration order is preserved for deterministic listings.
type Dispatcher struct {
	strategies map[string]Strategy
	order      []string
}

// NewDispatcher registers the built-in strategies.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{strategies: make(map[string]Strategy)}
	d.Register(Generation{})
	d.Register(SelfAsk{})
	d.Register(AtomicDecomposition{})
	return d
}

// Register adds a strategy. A duplicate name replaces the earlier handler
// and keeps its position.
func (d *Dispatcher) Register(s Strategy) {
	if _, ok := d.strategies[s.Name()]; !ok {
		d.order = append(d.order, s.Name())
	}
	d.strategies[s.Name()] = s
}

// Names returns the valid strategy names in registration order.
func (d *Dispatcher) Names() []string {
	return append([]string{}, d.order...)
}

// List returns info for every registered strategy.
func (d *Dispatcher) List() []StrategyInfo {
	infos := make([]StrategyInfo, 0, len(d.order))
	for _, name := range d.order {
		s := d.strategies[name]
		infos = append(infos, StrategyInfo{Name: s.Name(), Description: s.Description()})
	}
	return infos
}

// Process runs the named strategy. The returned Answer is always
// well-formed: an unknown strategy name or a completion failure yields
// Success=false with a descriptive message, never a crash. The error
// return is reserved for caller-side handling (errors.Is against
// model.ErrStrategyNotFound); it accompanies, not replaces, the Answer.
func (d *Dispatcher) Process(ctx context.Context, strategyName string, input *Input) (*model.Answer, error) {
	strategy, ok := d.strategies[strategyName]
	if !ok {
		names := d.Names()
		return &model.Answer{
			Success:             false,
			Strategy:            strategyName,
			Answer:              "Unknown reasoning strategy: " + strategyName + " (valid: " + strings.Join(names, ", ") + ")",
			AvailableStrategies: names,
			Error:               "unknown reasoning strategy: " + strategyName,
		}, goerr.Wrap(model.ErrStrategyNotFound, "cannot dispatch strategy",
			goerr.V("strategy", strategyName), goerr.V("available", names))
	}

	return strategy.Process(ctx, input), nil
}
