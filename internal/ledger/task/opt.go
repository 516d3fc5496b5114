package task

// Opt models the three-valued optional parameter pattern spec.md §9 calls
// for in Modify: "don't change" vs "set to value" vs "clear". A sentinel
// value is deliberately not used (user input may legitimately include
// "none" as a literal field value only for the clear case).
type Opt[T any] struct {
	present bool
	clear   bool
	value   T
}

// NoChange is the zero value of Opt[T]: leave the field alone.
func NoChange[T any]() Opt[T] { return Opt[T]{} }

// ClearOpt requests the field be set to its zero/empty value.
func ClearOpt[T any]() Opt[T] { return Opt[T]{clear: true} }

// SetOpt requests the field be set to v.
func SetOpt[T any](v T) Opt[T] { return Opt[T]{present: true, value: v} }

func (o Opt[T]) IsNoChange() bool { return !o.present && !o.clear }
func (o Opt[T]) IsClear() bool    { return o.clear }
func (o Opt[T]) IsSet() bool      { return o.present }
func (o Opt[T]) Value() T         { return o.value }
