// Package shortid allocates short random identifiers (link slugs, clipper
// dashboard codes) and guarantees uniqueness against a caller-supplied
// existence check, without a central sequence counter.
package shortid

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"

	"github.com/rs/zerolog/log"
)

const (
	// Charset is lowercase-only; both use sites (5-char slugs, 4-char
	// dashboard codes) draw from it.
	Charset = "abcdefghijklmnopqrstuvwxyz"

	randomAttempts = 100
	suffixAttempts = 1000
)

// ErrAllocationExhausted is returned when both the random phase and the
// numeric-suffix phase run out of attempts. Realistically this only happens
// once the codespace approaches saturation.
var ErrAllocationExhausted = errors.New("identifier allocation exhausted after all attempts")

// ExistsFunc reports whether a candidate code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Allocate generates a uniformly random code of the given length and probes
// it against exists. Up to 100 random attempts; after that it appends an
// ascending numeric suffix (1, 2, 3, ...) to the last generated base and
// probes sequentially, up to 1000 more attempts.
//
// The existence check is advisory: the store's unique constraint is the
// authoritative collision detector, so callers creating rows should retry
// the whole allocate-and-create cycle on a duplicate-key error.
func Allocate(ctx context.Context, length int, exists ExistsFunc) (string, error) {
	var base string

	for attempt := 0; attempt < randomAttempts; attempt++ {
		code, err := randomCode(length)
		if err != nil {
			return "", err
		}
		base = code

		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}

		log.Warn().
			Str("code", code).
			Int("attempt", attempt+1).
			Msg("Collision detected, retrying")
	}

	// Random phase exhausted: probe the last base with ascending suffixes.
	for suffix := 1; suffix <= suffixAttempts; suffix++ {
		code := base + strconv.Itoa(suffix)

		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			log.Info().
				Str("code", code).
				Int("suffix", suffix).
				Msg("Allocated code via suffix fallback")
			return code, nil
		}
	}

	return "", ErrAllocationExhausted
}

// randomCode generates a cryptographically secure random string.
func randomCode(length int) (string, error) {
	result := make([]byte, length)
	for i := range result {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(Charset))))
		if err != nil {
			return "", err
		}
		result[i] = Charset[num.Int64()]
	}
	return string(result), nil
}
