// Package enums holds the closed string sets persisted in the database and
// exchanged with the billing provider.
package enums

import (
	"fmt"
	"slices"
)

func member[T ~string](set []T, value T) bool {
	return slices.Contains(set, value)
}

func parse[T ~string](set []T, value, label string) (T, error) {
	if member(set, T(value)) {
		return T(value), nil
	}
	return "", fmt.Errorf("invalid %s %q", label, value)
}
