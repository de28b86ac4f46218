// Package itertools has small combinators over [iter.Seq] and [iter.Seq2].
package itertools

import (
	"iter"

	"golang.org/x/exp/constraints"
)

func Cat2[K, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			for k, v := range seq {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}

// Attach pairs every element of seq with v.
func Attach[K, V any](seq iter.Seq[K], v V) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for k := range seq {
			if !yield(k, v) {
				return
			}
		}
	}
}

// Unique2 drops every pair whose key was already yielded.
func Unique2[K comparable, V any](seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		seen := map[K]struct{}{}
		for k, v := range seq {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if !yield(k, v) {
				return
			}
		}
	}
}

func Filter[T any](seq iter.Seq[T], pred func(T) bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range seq {
			if pred(v) && !yield(v) {
				return
			}
		}
	}
}

func Map[Vin, Vout any](seq iter.Seq[Vin], transform func(Vin) Vout) iter.Seq[Vout] {
	return func(yield func(Vout) bool) {
		for v := range seq {
			if !yield(transform(v)) {
				return
			}
		}
	}
}

func Range[Int constraints.Integer](start, end Int) iter.Seq[Int] {
	return func(yield func(Int) bool) {
		for i := start; i < end; i++ {
			if !yield(i) {
				return
			}
		}
	}
}
