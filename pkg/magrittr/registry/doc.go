// Package registry provides a generic thread-safe registry for values indexed by key.
//
// Registry is designed for read-heavy workloads using sync.RWMutex. It supports
// any comparable key type and any value type through Go generics.
//
// The engine uses it to register named stage functions so declarative
// pipeline documents can reference stages by name:
//
//	stages := registry.New[string, magrittr.StageFunc]()
//	stages.Register("double", double)
//	stages.Register("increment", increment)
//
//	fn, ok := stages.Get("double")
//	if ok {
//	    // build a stage from fn...
//	}
//
// All Registry methods are safe for concurrent use. The Range method iterates
// over a snapshot of the registry, so mutations during iteration do not
// affect the iteration itself.
package registry
