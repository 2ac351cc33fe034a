package mcts

import "fmt"

// sprintKey renders any comparable key deterministically for hashing
// purposes. See transposition.go for why this indirection exists.
func sprintKey[K comparable](key K) string {
	return fmt.Sprintf("%+v", key)
}
