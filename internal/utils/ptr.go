package utils

import "github.com/google/uuid"

func Ptr[T any](v T) *T {
	return &v
}

func OrZero[T comparable](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// SameID reports whether two optional ids are both set and equal.
func SameID(a, b *uuid.UUID) bool {
	return a != nil && b != nil && *a == *b
}
