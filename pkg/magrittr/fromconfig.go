package magrittr

import (
	"fmt"
	"strings"

	"github.com/adamchanging1/magrittr/pkg/magrittr/config"
	"github.com/adamchanging1/magrittr/pkg/magrittr/expr"
	"github.com/adamchanging1/magrittr/pkg/magrittr/registry"
	"github.com/adamchanging1/magrittr/pkg/magrittr/scope"
)

// StageRegistry maps stage function names to implementations for
// declarative pipeline construction.
type StageRegistry = registry.Registry[string, StageFunc]

// NewStageRegistry creates an empty stage registry.
func NewStageRegistry() *StageRegistry {
	return registry.New[string, StageFunc]()
}

// FromConfig builds and compiles a pipeline from declarative
// configuration. Stage functions are looked up by name in the registry.
//
// Recognized keys:
//
//	strategy: eager | nested | lazy          (default eager)
//	scope: new | current | closure           (default new)
//	placeholder: <name>                      (default ".")
//	allow_multi_reference: true | false      (default false)
//	stages:
//	  - <name>                               (shorthand: id == fn)
//	  - id: <id>                             (full form)
//	    fn: <name>
//	    args: [<placeholder|literal|ref>, ...]
//	    tee: true
//	    lazy_args: true
//	    when: <condition>
//
// In args, the placeholder name denotes the upstream slot, quoted strings
// and numbers and booleans are literals, and anything else is a scope
// reference.
//
// Unlike the builder, which panics on misuse, configuration is external
// input: every problem comes back as a ConfigError.
func FromConfig(cfg config.Config, stages *StageRegistry, lexical *scope.Scope) (*CompiledPipeline, error) {
	strategy, err := ParseStrategy(cfg.String("strategy", StrategyEager.String()))
	if err != nil {
		return nil, &ConfigError{Option: "strategy", Detail: cfg.String("strategy", ""), Err: err}
	}

	kind, err := ParseScopeKind(cfg.String("scope", ScopeNew.String()))
	if err != nil {
		return nil, &ConfigError{Option: "scope", Detail: cfg.String("scope", ""), Err: err}
	}

	placeholder := cfg.String("placeholder", DefaultPlaceholder)

	raw := cfg.Slice("stages")
	if len(raw) == 0 {
		return nil, &ConfigError{Option: "stages", Detail: "no stages defined", Err: ErrEmptyPipeline}
	}

	p := New(lexical)
	seen := make(map[string]bool, len(raw))

	for i, entry := range raw {
		sc, err := parseStageConfig(i, entry, placeholder, stages)
		if err != nil {
			return nil, err
		}

		// buildStage panics on builder misuse; duplicate IDs from config
		// must surface as errors instead.
		if seen[sc.id] {
			return nil, &ConfigError{
				Option: "stages",
				Detail: fmt.Sprintf("duplicate stage ID %q", sc.id),
				Err:    ErrInvalidStageConfig,
			}
		}
		seen[sc.id] = true

		p.Stage(sc.id, sc.fn, sc.args...)
		if sc.tee {
			p.Tee()
		}
		if sc.lazyArgs {
			p.LazyArgs()
		}
		if sc.when != "" {
			p.When(sc.when)
		}
	}

	compileOpts := []CompileOption{
		WithStrategy(strategy),
		WithScopeKind(kind),
		WithPlaceholderName(placeholder),
	}
	if cfg.Bool("allow_multi_reference", false) {
		compileOpts = append(compileOpts, WithAllowMultiReference())
	}

	return p.Compile(compileOpts...)
}

// stageConfig is one parsed stage entry.
type stageConfig struct {
	id       string
	fn       StageFunc
	args     []Arg
	tee      bool
	lazyArgs bool
	when     string
}

// parseStageConfig parses a single stages entry, either the string
// shorthand or the full map form.
func parseStageConfig(i int, entry any, placeholder string, stages *StageRegistry) (stageConfig, error) {
	switch v := entry.(type) {
	case string:
		fn, ok := stages.Get(v)
		if !ok {
			return stageConfig{}, &ConfigError{
				Option: "stages",
				Detail: fmt.Sprintf("entry %d: function %q not registered", i, v),
				Err:    ErrStageNotRegistered,
			}
		}
		return stageConfig{id: v, fn: fn}, nil

	case map[string]any:
		sc := config.New(v)

		id := strings.TrimSpace(sc.String("id", ""))
		fnName := strings.TrimSpace(sc.String("fn", id))
		if id == "" {
			id = fnName
		}
		if id == "" {
			return stageConfig{}, &ConfigError{
				Option: "stages",
				Detail: fmt.Sprintf("entry %d: missing id and fn", i),
				Err:    ErrInvalidStageConfig,
			}
		}
		if strings.ContainsAny(id, " \t\n\r") {
			return stageConfig{}, &ConfigError{
				Option: "stages",
				Detail: fmt.Sprintf("entry %d: stage ID %q contains whitespace", i, id),
				Err:    ErrInvalidStageConfig,
			}
		}

		fn, ok := stages.Get(fnName)
		if !ok {
			return stageConfig{}, &ConfigError{
				Option: "stages",
				Detail: fmt.Sprintf("entry %d: function %q not registered", i, fnName),
				Err:    ErrStageNotRegistered,
			}
		}

		var args []Arg
		for _, rawArg := range sc.Slice("args") {
			args = append(args, parseArg(rawArg, placeholder))
		}

		return stageConfig{
			id:       id,
			fn:       fn,
			args:     args,
			tee:      sc.Bool("tee", false),
			lazyArgs: sc.Bool("lazy_args", false),
			when:     sc.String("when", ""),
		}, nil

	default:
		return stageConfig{}, &ConfigError{
			Option: "stages",
			Detail: fmt.Sprintf("entry %d: expected string or map, got %T", i, entry),
			Err:    ErrInvalidStageConfig,
		}
	}
}

// parseArg maps a raw config argument to an Arg slot. Strings matching
// the placeholder name become placeholder slots, literal fragments become
// literals, everything else is a scope reference.
func parseArg(raw any, placeholder string) Arg {
	s, ok := raw.(string)
	if !ok {
		return Lit(raw)
	}

	t := strings.TrimSpace(s)
	switch {
	case t == placeholder:
		return Placeholder()
	case expr.IsLiteral(t):
		return Lit(expr.Resolve(t, nil))
	default:
		return Ref(t)
	}
}
