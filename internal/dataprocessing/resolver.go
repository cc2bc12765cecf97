package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"gsewatch/internal/config"
	"gsewatch/internal/infrastructure"
)

// CanonicalSet is the set of canonical ledger symbols known to the
// system, indexed for case-insensitive lookup.
type CanonicalSet struct {
	byUpper map[string]string
}

// NewCanonicalSet builds a set from canonical symbols.
func NewCanonicalSet(symbols []string) *CanonicalSet {
	set := &CanonicalSet{byUpper: make(map[string]string, len(symbols))}
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		set.byUpper[strings.ToUpper(s)] = s
	}
	return set
}

// Lookup returns the canonical symbol for a token, compared
// case-insensitively.
func (s *CanonicalSet) Lookup(token string) (string, bool) {
	canonical, ok := s.byUpper[strings.ToUpper(strings.TrimSpace(token))]
	return canonical, ok
}

// Symbols returns the canonical symbols in sorted order.
func (s *CanonicalSet) Symbols() []string {
	out := make([]string, 0, len(s.byUpper))
	for _, v := range s.byUpper {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// MatchStrategy is one way of matching a raw symbol token against the
// canonical set. Strategies are tried in order; the first match wins.
type MatchStrategy interface {
	Name() string
	Match(token string, set *CanonicalSet) (string, bool)
}

// exactMatch matches the token case-insensitively as-is.
type exactMatch struct{}

func (exactMatch) Name() string { return "exact" }

func (exactMatch) Match(token string, set *CanonicalSet) (string, bool) {
	return set.Lookup(token)
}

// markerStrip removes non-alphanumeric marker characters (asterisks,
// spaces, punctuation) before matching. Handles tokens like "PBC**".
type markerStrip struct{}

func (markerStrip) Name() string { return "marker_strip" }

func (markerStrip) Match(token string, set *CanonicalSet) (string, bool) {
	var b strings.Builder
	for _, r := range token {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	stripped := b.String()
	if stripped == "" || stripped == token {
		return "", false
	}
	return set.Lookup(stripped)
}

// aliasVariants matches via the configured alias table and qualifier
// suffixes: a token may carry a suffix the ledger key lacks, or lack
// one the ledger key carries.
type aliasVariants struct {
	suffixes []string
	aliases  map[string]string
}

func (aliasVariants) Name() string { return "alias" }

func (a aliasVariants) Match(token string, set *CanonicalSet) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(token))

	if target, ok := a.aliases[upper]; ok {
		if canonical, found := set.Lookup(target); found {
			return canonical, true
		}
	}

	for _, suffix := range a.suffixes {
		suffix = strings.ToUpper(suffix)
		if strings.HasSuffix(upper, suffix) {
			if canonical, ok := set.Lookup(strings.TrimSuffix(upper, suffix)); ok {
				return canonical, true
			}
		}
		if canonical, ok := set.Lookup(upper + suffix); ok {
			return canonical, true
		}
	}
	return "", false
}

// Resolver matches raw source symbol tokens to canonical ledger
// identifiers. A miss is not an error: upstream symbol lists evolve
// independently, so callers skip, log and continue.
type Resolver struct {
	strategies []MatchStrategy
	logger     *slog.Logger
	metrics    *infrastructure.PipelineMetrics
}

// NewResolver builds the default strategy chain: exact match, marker
// strip, then configured alias variants.
func NewResolver(listings *config.Listings, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	aliases := make(map[string]string, len(listings.Aliases))
	for raw, canonical := range listings.Aliases {
		aliases[strings.ToUpper(raw)] = canonical
	}
	return &Resolver{
		strategies: []MatchStrategy{
			exactMatch{},
			markerStrip{},
			aliasVariants{suffixes: listings.AliasSuffixes, aliases: aliases},
		},
		logger:  logger.With(slog.String("component", "resolver")),
		metrics: metrics,
	}
}

// Resolve returns the canonical symbol for a raw token, or false when
// no strategy matches.
func (r *Resolver) Resolve(ctx context.Context, token string, set *CanonicalSet) (string, bool) {
	for _, strategy := range r.strategies {
		if canonical, ok := strategy.Match(token, set); ok {
			if strategy.Name() != "exact" {
				r.logger.DebugContext(ctx, "resolved symbol via fallback",
					slog.String("token", token),
					slog.String("canonical", canonical),
					slog.String("strategy", strategy.Name()))
			}
			return canonical, true
		}
	}

	r.metrics.AddResolutionMiss(ctx)
	r.logger.WarnContext(ctx, "unmatched symbol token",
		slog.String("token", token))
	return "", false
}
