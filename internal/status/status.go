// Package status owns the canonical agent status vocabulary.
//
// Every entry point that accepts a status string must route it through
// Normalize before persisting or forwarding it. The contract layer and the
// log store only ever see the canonical values.
package status

import (
	"fmt"
	"sort"
	"strings"
)

// Canonical status values. These are the only values written to the chain
// or the log store.
const (
	Online  = "online"
	Idle    = "idle"
	Stopped = "stopped"
)

// aliases maps each canonical status to the raw vocabularies seen from
// frontends and older agents. Matching is case-insensitive.
var aliases = map[string][]string{
	Online:  {"online", "active", "running"},
	Idle:    {"idle", "paused", "suspended"},
	Stopped: {"stopped", "inactive", "disabled"},
}

// byAlias is the inverted lookup table, built once at init.
var byAlias = func() map[string]string {
	m := make(map[string]string)
	for canonical, raws := range aliases {
		for _, raw := range raws {
			m[raw] = canonical
		}
	}
	return m
}()

// InvalidStatusError reports an unrecognized status string together with
// the full accepted vocabulary, so handlers can surface a useful message.
type InvalidStatusError struct {
	Raw      string
	Accepted []string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("status: invalid status %q (accepted: %s)", e.Raw, strings.Join(e.Accepted, ", "))
}

// Accepted returns every alias Normalize understands, sorted for stable
// error messages and API responses.
func Accepted() []string {
	out := make([]string, 0, len(byAlias))
	for raw := range byAlias {
		out = append(out, raw)
	}
	sort.Strings(out)
	return out
}

// Normalize maps a raw status string onto the canonical vocabulary.
// It is pure and deterministic; unknown values return *InvalidStatusError.
func Normalize(raw string) (string, error) {
	if canonical, ok := byAlias[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return canonical, nil
	}
	return "", &InvalidStatusError{Raw: raw, Accepted: Accepted()}
}

// IsCanonical reports whether s is already one of the three canonical
// values. Callers that require pre-normalized input use this as a guard.
func IsCanonical(s string) bool {
	return s == Online || s == Idle || s == Stopped
}
