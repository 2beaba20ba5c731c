package doctor

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Registry holds health checkers in registration order, plus fixers by ID.
type Registry struct {
	mu       sync.RWMutex
	checkers []HealthChecker
	fixers   map[string]Fixer
}

// NewRegistry creates a new Registry
func NewRegistry() *Registry {
	return &Registry{
		fixers: make(map[string]Fixer),
	}
}

// RegisterChecker registers a health checker
func (r *Registry) RegisterChecker(checker HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.checkers = append(r.checkers, checker)
}

// RegisterFixer registers a fixer
func (r *Registry) RegisterFixer(fixer Fixer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fixers[fixer.ID()] = fixer
}

// Checkers returns the registered checkers in registration order.
func (r *Registry) Checkers() []HealthChecker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.checkers)
}

// CheckersForCategories returns the checkers in the given categories, or
// every checker when categories is empty.
func (r *Registry) CheckersForCategories(categories []Category) []HealthChecker {
	all := r.Checkers()
	if len(categories) == 0 {
		return all
	}

	return slices.DeleteFunc(all, func(c HealthChecker) bool {
		return !slices.Contains(categories, c.Category())
	})
}

// Run executes checkers concurrently. Results keep registration order, and
// a MultiChecker contributes all of its rows in place.
func (*Registry) Run(ctx context.Context, checkers []HealthChecker) []CheckResult {
	perChecker := make([][]CheckResult, len(checkers))
	g, gctx := errgroup.WithContext(ctx)

	for i, checker := range checkers {
		g.Go(func() error {
			perChecker[i] = RunChecker(gctx, checker)

			return nil
		})
	}

	_ = g.Wait()

	return slices.Concat(perChecker...)
}

// RunChecker runs one checker and stamps its category on every row.
func RunChecker(ctx context.Context, checker HealthChecker) []CheckResult {
	var results []CheckResult

	if multi, ok := checker.(MultiChecker); ok {
		results = multi.CheckAll(ctx)
	} else {
		results = []CheckResult{checker.Check(ctx)}
	}

	for i := range results {
		results[i].Category = checker.Category()
	}

	return results
}

// RunAll executes every registered checker.
func (r *Registry) RunAll(ctx context.Context) []CheckResult {
	return r.Run(ctx, r.Checkers())
}

// GetFixer retrieves a fixer by ID.
//
//nolint:ireturn // Fixer interface for polymorphism
func (r *Registry) GetFixer(fixID string) (Fixer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fixer, ok := r.fixers[fixID]

	return fixer, ok
}

// FixerCount returns the total number of registered fixers
func (r *Registry) FixerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.fixers)
}
