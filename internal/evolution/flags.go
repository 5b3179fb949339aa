package evolution

import (
	"fmt"
	"strings"
)

// Flag is a bit set selecting the strategy, selection direction and
// verbosity of an engine.
type Flag uint32

const (
	// FlagRecombination produces offspring by recombining two survivors.
	FlagRecombination Flag = 1 << iota
	// FlagMutation enables mutation. Alone it selects the mutation-only
	// strategy, with recombination it mutates children with the configured
	// probability.
	FlagMutation
	// FlagAlwaysMutate mutates every child regardless of the probability.
	FlagAlwaysMutate
	// FlagKeepLastGeneration replaces only the dead tail of the current
	// generation in place instead of building a whole new one.
	FlagKeepLastGeneration
	// FlagAbortRequirement consults the continuation predicate before every
	// generation.
	FlagAbortRequirement
	// FlagGreedy runs per-worker greedy hill climbing. Every greedy trial is
	// mutated.
	FlagGreedy
	// FlagSortMax maximises fitness. Without it fitness is minimised.
	FlagSortMax
	// FlagVerboseOneline writes a rewritten status line per evaluated slot.
	FlagVerboseOneline
	// FlagVerboseHigh logs generation summaries at info level.
	FlagVerboseHigh
	// FlagVerboseUltra writes one status line per evaluated slot.
	FlagVerboseUltra
)

const (
	verbosityMask = FlagVerboseOneline | FlagVerboseHigh | FlagVerboseUltra
	freeMask      = FlagSortMax | FlagAbortRequirement | verbosityMask
)

var flagNames = []struct {
	flag Flag
	name string
}{
	{FlagRecombination, "recombination"},
	{FlagMutation, "mutation"},
	{FlagAlwaysMutate, "always_mutate"},
	{FlagKeepLastGeneration, "keep_last_generation"},
	{FlagAbortRequirement, "abort_requirement"},
	{FlagGreedy, "greedy"},
	{FlagSortMax, "sort_max"},
	{FlagVerboseOneline, "verbose_oneline"},
	{FlagVerboseHigh, "verbose_high"},
	{FlagVerboseUltra, "verbose_ultra"},
}

// Has reports whether every bit of o is set in f.
func (f Flag) Has(o Flag) bool {
	return f&o == o
}

func (f Flag) String() string {
	if f == 0 {
		return "none"
	}
	parts := make([]string, 0, len(flagNames))
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	if rest := f &^ allFlags(); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

func allFlags() Flag {
	var all Flag
	for _, fn := range flagNames {
		all |= fn.flag
	}
	return all
}

// ParseFlag maps a flag name (as printed by Flag.String) to its bit.
func ParseFlag(name string) (Flag, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, fn := range flagNames {
		if fn.name == n {
			return fn.flag, nil
		}
	}
	return 0, fmt.Errorf("unknown flag %q", name)
}

// ParseFlags combines several flag names.
func ParseFlags(names []string) (Flag, error) {
	var f Flag
	for _, n := range names {
		bit, err := ParseFlag(n)
		if err != nil {
			return 0, err
		}
		f |= bit
	}
	return f, nil
}

// Strategy is the generation-advance algorithm selected by the flags.
type Strategy int

const (
	StrategyRecombination Strategy = iota
	StrategyMutation
	StrategyGreedy
)

func (s Strategy) String() string {
	switch s {
	case StrategyRecombination:
		return "recombination"
	case StrategyMutation:
		return "mutation"
	case StrategyGreedy:
		return "greedy"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

func strategyFor(f Flag) Strategy {
	switch {
	case f.Has(FlagGreedy):
		return StrategyGreedy
	case f.Has(FlagRecombination):
		return StrategyRecombination
	default:
		return StrategyMutation
	}
}

var legalBases = map[Flag]bool{
	FlagRecombination:                                   true,
	FlagRecombination | FlagMutation:                    true,
	FlagRecombination | FlagMutation | FlagAlwaysMutate: true,
	FlagMutation:                    true,
	FlagMutation | FlagAlwaysMutate: true,
}

// validateFlags accepts the supported combinations. Sort direction,
// verbosity and the abort requirement combine with everything. Greedy
// mutates unconditionally and excludes recombination, mutation and
// keep-last-generation.
func validateFlags(f Flag) error {
	if rest := f &^ allFlags(); rest != 0 {
		return fmt.Errorf("unknown flag bits 0x%x", uint32(rest))
	}
	core := f &^ freeMask
	if core.Has(FlagGreedy) {
		if extra := core &^ (FlagGreedy | FlagAlwaysMutate); extra != 0 {
			return fmt.Errorf("greedy cannot be combined with %s", extra)
		}
		return nil
	}
	base := core &^ FlagKeepLastGeneration
	if !legalBases[base] {
		return fmt.Errorf("unsupported flag combination %s", f)
	}
	return nil
}
