package resolver

import "strings"

// ResolverBuilderOption is a functional option for configuring a Resolver via NewResolver.
type ResolverBuilderOption func(*resolver)

// WithIdlePatterns is an option builder that replaces the idle name patterns.
//
// Parameters:
//   - patterns: case-insensitive substrings, highest priority first
//
// Returns:
//   - ResolverBuilderOption: a function that applies the idle patterns option to a resolver
func WithIdlePatterns(patterns ...string) ResolverBuilderOption {
	return func(r *resolver) {
		r.idlePatterns = lowered(patterns)
	}
}

// WithAttackPatterns is an option builder that replaces the attack name patterns.
//
// Parameters:
//   - patterns: case-insensitive substrings, highest priority first
//
// Returns:
//   - ResolverBuilderOption: a function that applies the attack patterns option to a resolver
func WithAttackPatterns(patterns ...string) ResolverBuilderOption {
	return func(r *resolver) {
		r.attackPatterns = lowered(patterns)
	}
}

// WithRootPatterns is an option builder that replaces the root-like node name patterns
// used for root-motion stripping.
//
// Parameters:
//   - patterns: case-insensitive substrings matched against track targets
//
// Returns:
//   - ResolverBuilderOption: a function that applies the root patterns option to a resolver
func WithRootPatterns(patterns ...string) ResolverBuilderOption {
	return func(r *resolver) {
		r.rootPatterns = lowered(patterns)
	}
}

func lowered(patterns []string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = strings.ToLower(p)
	}
	return out
}
