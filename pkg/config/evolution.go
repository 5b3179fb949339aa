package config

import (
	"fmt"

	"github.com/GoSim-25-26J-441/evolution-core/internal/evolution"
)

var verbosityFlags = []evolution.Flag{
	0,
	evolution.FlagVerboseOneline,
	evolution.FlagVerboseHigh,
	evolution.FlagVerboseHigh | evolution.FlagVerboseUltra,
}

// EvolutionFlags maps the flag names, sort direction, verbosity and stop
// conditions of the spec to engine flags. sortMax is used when the spec
// leaves the sort direction unset.
func (s *RunSpec) EvolutionFlags(sortMax bool) (evolution.Flag, error) {
	flags, err := evolution.ParseFlags(s.Evolution.Flags)
	if err != nil {
		return 0, err
	}
	switch s.Evolution.Sort {
	case "max":
		flags |= evolution.FlagSortMax
	case "min":
		flags &^= evolution.FlagSortMax
	default:
		if sortMax {
			flags |= evolution.FlagSortMax
		}
	}
	if v := s.Evolution.Verbosity; v > 0 && v < len(verbosityFlags) {
		flags |= verbosityFlags[v]
	}
	if s.Stop.Enabled() {
		flags |= evolution.FlagAbortRequirement
	}
	return flags, nil
}

// EvolutionConfig builds the engine configuration of the spec.
func (s *RunSpec) EvolutionConfig(sortMax bool) (evolution.Config, error) {
	flags, err := s.EvolutionFlags(sortMax)
	if err != nil {
		return evolution.Config{}, fmt.Errorf("%w: %w", evolution.ErrInvalidConfig, err)
	}
	e := s.Evolution
	b := evolution.NewConfigBuilder().
		PopulationSize(e.PopulationSize).
		GenerationLimit(e.GenerationLimit).
		MutationProbability(e.MutationProbability).
		DeathPercentage(e.DeathPercentage).
		Workers(e.Workers).
		MinQuicksort(e.MinQuicksort).
		Seed(e.Seed).
		Flags(flags)
	if e.Greedy != nil {
		b = b.Greedy(e.Greedy.Size, e.Greedy.Individuals)
	}
	return b.Build()
}

// SchedulerKind returns the configured scheduler.
func (s *RunSpec) SchedulerKind() evolution.SchedulerKind {
	kind, _ := evolution.ParseSchedulerKind(s.Evolution.Scheduler)
	return kind
}
