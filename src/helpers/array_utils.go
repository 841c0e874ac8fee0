package helpers

import (
	"errors"
	"math/rand/v2"
)

// ErrInvalidChunkSize is returned by Chunk for sizes below one.
var ErrInvalidChunkSize = errors.New("chunk size must be greater than 0")

// Unique returns the distinct values of items in first-seen order.
func Unique[T comparable](items []T) []T {
	seen := make(map[T]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Chunk splits items into slices of at most size elements.
func Chunk[T any](items []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, ErrInvalidChunkSize
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		chunks = append(chunks, items[i:end:end])
	}
	return chunks, nil
}

// Flatten concatenates nested slices one level deep.
func Flatten[T any](nested [][]T) []T {
	var out []T
	for _, items := range nested {
		out = append(out, items...)
	}
	return out
}

// GroupBy buckets items by the key keyFn returns for them.
func GroupBy[T any, K comparable](items []T, keyFn func(T) K) map[K][]T {
	groups := make(map[K][]T)
	for _, item := range items {
		key := keyFn(item)
		groups[key] = append(groups[key], item)
	}
	return groups
}

// Intersection returns the items of a that are also in b.
func Intersection[T comparable](a, b []T) []T {
	set := toSet(b)
	out := make([]T, 0)
	for _, item := range a {
		if _, ok := set[item]; ok {
			out = append(out, item)
		}
	}
	return out
}

// Difference returns the items of a that are not in b.
func Difference[T comparable](a, b []T) []T {
	set := toSet(b)
	out := make([]T, 0)
	for _, item := range a {
		if _, ok := set[item]; !ok {
			out = append(out, item)
		}
	}
	return out
}

// Shuffle returns a shuffled copy of items (Fisher-Yates).
func Shuffle[T any](items []T) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

func toSet[T comparable](items []T) map[T]struct{} {
	set := make(map[T]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
