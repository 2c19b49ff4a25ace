package utils

// ValueOr dereferences v, returning def for nil. Used when applying partial updates.
func ValueOr[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}

func Ptr[T any](v T) *T {
	return &v
}
