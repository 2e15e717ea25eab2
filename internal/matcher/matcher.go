// Package matcher classifies imported requirements against the
// reference-function catalog. A single deterministic strategy is used
// everywhere: exact name, then domain-scoped substring, then
// cross-domain substring, then word-overlap scoring, all on one
// confidence scale in [0, 1].
package matcher

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/odaworks/delivery-cli/internal/model"
)

// Options holds the confidence policy for the matcher. The same scale
// applies to every call site so classification results cannot diverge
// between code paths.
type Options struct {
	// ExactConfidence is reported for exact (normalized) name equality.
	ExactConfidence float64
	// DomainSubstringConfidence is reported for substring containment
	// within the hinted domain.
	DomainSubstringConfidence float64
	// CrossSubstringConfidence is reported for substring containment
	// across the full catalog.
	CrossSubstringConfidence float64
	// OverlapThreshold is the minimum word-overlap score a candidate
	// must reach to qualify.
	OverlapThreshold float64
}

// DefaultOptions returns the standard confidence policy.
func DefaultOptions() Options {
	return Options{
		ExactConfidence:           1.0,
		DomainSubstringConfidence: 0.8,
		CrossSubstringConfidence:  0.6,
		OverlapThreshold:          0.7,
	}
}

// Validate checks that the confidence policy is internally consistent.
func (o Options) Validate() error {
	var errs []string

	for _, c := range []struct {
		name string
		v    float64
	}{
		{"exact_confidence", o.ExactConfidence},
		{"domain_substring_confidence", o.DomainSubstringConfidence},
		{"cross_substring_confidence", o.CrossSubstringConfidence},
		{"overlap_threshold", o.OverlapThreshold},
	} {
		if c.v <= 0 || c.v > 1 {
			errs = append(errs, c.name+" must be in (0, 1]")
		}
	}

	if o.ExactConfidence < o.DomainSubstringConfidence ||
		o.DomainSubstringConfidence < o.CrossSubstringConfidence {
		errs = append(errs, "confidences must be ordered exact >= domain >= cross")
	}

	if len(errs) > 0 {
		return eris.Errorf("matcher: options validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Matcher finds the best catalog entry for free-text function names.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	opts Options
}

// New creates a Matcher with the given options.
func New(opts Options) (*Matcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Matcher{opts: opts}, nil
}

// Match pairs a catalog entry with the confidence of its selection.
type Match struct {
	Function   model.ReferenceFunction
	Confidence float64
}

// FindBestMatch returns the single best catalog candidate for a
// free-text function name, or nil when nothing qualifies. domainHint,
// when non-empty, scopes the substring pass to functions of that
// domain. The catalog is never mutated; ties keep first-seen order.
func (m *Matcher) FindBestMatch(nameRaw, domainHint string, funcs []model.ReferenceFunction) *Match {
	raw := NormalizeName(nameRaw)
	if raw == "" {
		return nil
	}

	// Pass 1: exact name equality short-circuits everything else.
	for i := range funcs {
		if NormalizeName(funcs[i].Name) == raw {
			return &Match{Function: funcs[i], Confidence: m.opts.ExactConfidence}
		}
	}

	// Pass 2: substring containment, restricted to the hinted domain.
	if hint := NormalizeName(domainHint); hint != "" {
		for i := range funcs {
			if NormalizeName(funcs[i].DomainName) != hint {
				continue
			}
			if containsEither(NormalizeName(funcs[i].Name), raw) {
				return &Match{Function: funcs[i], Confidence: m.opts.DomainSubstringConfidence}
			}
		}
	}

	// Pass 3: substring containment across the full catalog.
	for i := range funcs {
		if containsEither(NormalizeName(funcs[i].Name), raw) {
			return &Match{Function: funcs[i], Confidence: m.opts.CrossSubstringConfidence}
		}
	}

	// Pass 4: word-overlap scoring. The score itself is the confidence.
	rawTokens := tokenize(nameRaw)
	if len(rawTokens) == 0 {
		return nil
	}

	var best *Match
	for i := range funcs {
		score := overlapScore(rawTokens, tokenize(funcs[i].Name))
		if score < m.opts.OverlapThreshold {
			continue
		}
		if best == nil || score > best.Confidence {
			best = &Match{Function: funcs[i], Confidence: score}
		}
	}
	return best
}

// containsEither reports substring containment in either direction.
func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// overlapScore returns the fraction of raw tokens that partially match
// any candidate token. Partial means either token contains the other.
func overlapScore(rawTokens, candTokens []string) float64 {
	if len(rawTokens) == 0 || len(candTokens) == 0 {
		return 0
	}

	matched := 0
	for _, rt := range rawTokens {
		for _, ct := range candTokens {
			if containsEither(rt, ct) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(rawTokens))
}
