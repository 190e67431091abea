// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package slug

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"threadline/internal/apperr"
)

const (
	// Fallback replaces a seed that normalizes to nothing (only symbols,
	// emoji, or non-Latin script).
	Fallback = "censored-title"

	// DefaultMaxAttempts caps the existence checks per allocation.
	DefaultMaxAttempts = 20

	suffixMin = 1000
	suffixMax = 9999
)

// ErrExhausted is returned when no free slug was found within the attempt cap.
var ErrExhausted = apperr.New(apperr.CodeSlugExhausted, "could not allocate a unique slug")

// Checker reports whether a slug is already used in one collection.
type Checker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context, slug string) (bool, error)

// SlugExists calls f.
func (f CheckerFunc) SlugExists(ctx context.Context, slug string) (bool, error) {
	return f(ctx, slug)
}

// Allocator derives slugs that were free at the time of the check. It does
// not reserve them: two allocators can return the same slug concurrently,
// and the store's unique index decides which insert wins.
type Allocator struct {
	checker     Checker
	maxAttempts int
	suffix      func() int
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithMaxAttempts overrides DefaultMaxAttempts. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithSuffixSource replaces the random 4-digit suffix generator.
func WithSuffixSource(fn func() int) Option {
	return func(a *Allocator) {
		if fn != nil {
			a.suffix = fn
		}
	}
}

// NewAllocator creates an Allocator checking uniqueness against checker.
func NewAllocator(checker Checker, opts ...Option) *Allocator {
	a := &Allocator{
		checker:     checker,
		maxAttempts: DefaultMaxAttempts,
		suffix:      randomSuffix,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate returns the slug for seed, or seed's slug with a "-NNNN" suffix
// when the bare slug is taken. It gives up with ErrExhausted after
// maxAttempts existence checks.
func (a *Allocator) Allocate(ctx context.Context, seed string) (string, error) {
	base := Candidate(seed)
	candidate := base

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		exists, err := a.checker.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, a.suffix())
	}

	slog.Warn("slug allocation exhausted", "base", base, "attempts", a.maxAttempts)
	return "", fmt.Errorf("allocate slug %q after %d attempts: %w", base, a.maxAttempts, ErrExhausted)
}

// Candidate returns the unsuffixed slug Allocate starts from.
func Candidate(seed string) string {
	if s := Generate(seed); s != "" {
		return s
	}
	return Fallback
}

func randomSuffix() int {
	return suffixMin + rand.IntN(suffixMax-suffixMin+1)
}
