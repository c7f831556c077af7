package magrittr

// invisible wraps a stage result that should be suppressed from default
// display.
type invisible struct {
	value Value
}

// Invisible marks a stage result as suppressed from default display.
// The pipeline's overall visibility equals the visibility produced by the
// last stage executed; a stage returns Invisible(v) to make the pipeline's
// result invisible when it runs last.
//
//	func save(ctx magrittr.Context, args []magrittr.Value) (magrittr.Value, error) {
//	    // ... persist args[0] somewhere ...
//	    return magrittr.Invisible(args[0]), nil
//	}
func Invisible(v Value) Value {
	return invisible{value: v}
}

// visibleValue unwraps an Invisible marker, reporting whether the value
// should be displayed.
func visibleValue(v Value) (Value, bool) {
	if iv, ok := v.(invisible); ok {
		return iv.value, false
	}
	return v, true
}
