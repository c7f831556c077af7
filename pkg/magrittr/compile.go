package magrittr

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adamchanging1/magrittr/pkg/magrittr/expr"
)

// Compile validates the pipeline and creates an executable
// CompiledPipeline. Returns an error if validation fails. Multiple errors
// are joined together.
//
// Validation checks (in order):
//  1. Pipeline must have at least one stage
//  2. Placeholder name must be non-empty and contain no whitespace
//  3. Placeholder name must not collide with a stage ID or a Ref name
//  4. Each stage may reference the placeholder at most once, unless
//     WithAllowMultiReference is set
//
// Normalization: a non-tee stage with no placeholder slot implicitly
// receives the upstream value as its first slot. Tee stages without a
// placeholder slot keep their argument list as-is (the side effect may
// not need the value).
//
// A LazyArgs stage compiled under StrategyEager is logged as a warning:
// eager expansion forces every upstream before the stage runs, so the
// deferred handle it receives is already forced.
func (p *Pipeline) Compile(opts ...CompileOption) (*CompiledPipeline, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg := defaultCompileConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var errs []error

	// 1. Validate the pipeline is non-empty
	if len(p.stages) == 0 {
		errs = append(errs, ErrEmptyPipeline)
	}

	// 2. Validate the placeholder name itself
	if cfg.placeholder == "" {
		errs = append(errs, &ConfigError{
			Option: "placeholder",
			Detail: "name cannot be empty",
			Err:    ErrInvalidPlaceholder,
		})
	} else if strings.ContainsAny(cfg.placeholder, " \t\n\r") {
		errs = append(errs, &ConfigError{
			Option: "placeholder",
			Detail: fmt.Sprintf("name %q contains whitespace", cfg.placeholder),
			Err:    ErrInvalidPlaceholder,
		})
	}

	// 3 & 4. Validate placeholder collisions and reference counts
	for _, st := range p.stages {
		if st.id == cfg.placeholder {
			errs = append(errs, &ConfigError{
				Option: "placeholder",
				Detail: fmt.Sprintf("name %q collides with stage ID %q", cfg.placeholder, st.id),
				Err:    ErrPlaceholderCollision,
			})
		}

		for _, ref := range st.refNames() {
			if ref == cfg.placeholder {
				errs = append(errs, &ConfigError{
					Option: "placeholder",
					Detail: fmt.Sprintf("name %q collides with a reference in stage %q", cfg.placeholder, st.id),
					Err:    ErrPlaceholderCollision,
				})
			}
		}

		if !cfg.allowMultiRef && st.placeholderCount() > 1 {
			errs = append(errs, fmt.Errorf("%w: stage %q references the placeholder %d times",
				ErrMultiReference, st.id, st.placeholderCount()))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return p.buildCompiledPipeline(cfg), nil
}

// buildCompiledPipeline creates the immutable CompiledPipeline from the
// builder state.
func (p *Pipeline) buildCompiledPipeline(cfg compileConfig) *CompiledPipeline {
	// Deep copy and normalize stages
	stages := make([]*Stage, len(p.stages))
	for i, st := range p.stages {
		c := st.clone()

		if c.placeholderCount() == 0 && !c.tee {
			c.args = append([]Arg{Placeholder()}, c.args...)
		}

		if c.lazyArgs && cfg.strategy == StrategyEager {
			slog.Warn("lazy-args stage compiled under eager expansion; its deferred handles arrive already forced",
				"stage_id", c.id)
		}

		stages[i] = c
	}

	// Pre-compute lazy binding names: one per stage, visible in the
	// execution scope during lazy evaluation.
	bindingNames := make([]string, len(stages))
	for i, st := range stages {
		bindingNames[i] = fmt.Sprintf("_pipe%d_%s", i+1, st.id)
	}

	guardOpts := make([]expr.Option, 0, len(cfg.guardOps))
	for name, op := range cfg.guardOps {
		guardOpts = append(guardOpts, expr.WithCustomOperator(name, op))
	}
	guard := expr.New(guardOpts...)

	return &CompiledPipeline{
		stages:       stages,
		lexical:      p.lexical,
		strategy:     cfg.strategy,
		scopeKind:    cfg.scopeKind,
		placeholder:  cfg.placeholder,
		bindingNames: bindingNames,
		guard:        guard,
	}
}
