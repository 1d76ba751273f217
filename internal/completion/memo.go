// internal/completion/memo.go
package completion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"onboarding-workers/internal/models"
)

// DefaultMemoSize is used when a non-positive size is configured.
const DefaultMemoSize = 1024

// Memo caches step percentages keyed by a fingerprint of the form state.
// It is safe for concurrent use.
type Memo struct {
	cache *lru.Cache[string, []int]
}

// NewMemo creates a memo holding up to size evaluated states.
func NewMemo(size int) (*Memo, error) {
	if size <= 0 {
		size = DefaultMemoSize
	}
	cache, err := lru.New[string, []int](size)
	if err != nil {
		return nil, fmt.Errorf("create completion memo: %w", err)
	}
	return &Memo{cache: cache}, nil
}

// Fingerprint hashes the canonical JSON encoding of the state. Map keys are
// sorted by encoding/json, so equal states give equal fingerprints.
func Fingerprint(s *models.FormState) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode form state: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Steps returns the step percentages, computing them on a miss. The bool
// reports whether the value came from the cache.
func (m *Memo) Steps(s *models.FormState) ([]int, bool) {
	key, err := Fingerprint(s)
	if err != nil {
		return CalculateAllStepCompletions(s), false
	}
	if steps, ok := m.cache.Get(key); ok {
		return append([]int(nil), steps...), true
	}
	steps := CalculateAllStepCompletions(s)
	m.cache.Add(key, append([]int(nil), steps...))
	return steps, false
}

// Evaluate is Evaluate backed by the memo.
func (m *Memo) Evaluate(s *models.FormState, stepNames []string) (Report, bool) {
	steps, hit := m.Steps(s)
	return reportFrom(steps, stepNames), hit
}

// Len returns the number of cached states.
func (m *Memo) Len() int {
	return m.cache.Len()
}

// Purge drops every cached state.
func (m *Memo) Purge() {
	m.cache.Purge()
}
