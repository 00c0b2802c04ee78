package providers

// Outcome is what a provider call hands back to the analyzer. A degraded
// outcome carries the neutral fallback value plus the error that caused it;
// both variants persist the same way.
type Outcome[T any] struct {
	Value    T
	Degraded bool
	Err      error
}

// Succeeded wraps a real provider answer.
func Succeeded[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

// Fallback wraps the neutral value used when the provider could not answer.
func Fallback[T any](v T, err error) Outcome[T] {
	return Outcome[T]{Value: v, Degraded: true, Err: err}
}

// Variant is "success" or "degraded", used as a metric label.
func (o Outcome[T]) Variant() string {
	if o.Degraded {
		return "degraded"
	}
	return "success"
}
