package evolution

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every configuration error.
var ErrInvalidConfig = errors.New("invalid evolution config")

// DefaultMinQuicksort is the partition size below which selection falls back
// to insertion sort.
const DefaultMinQuicksort = 16

// mutationResolution is the number of random bits compared against the
// mutation threshold.
const mutationResolution = 53

// Config is an immutable run configuration. The zero value is not usable;
// obtain one from ConfigBuilder.Build.
type Config struct {
	populationSize      int
	generationLimit     int
	mutationProbability float64
	deathPercentage     float64
	workers             int
	greedySize          int
	greedyIndividuals   int
	flags               Flag
	minQuicksort        int
	seed                int64

	deaths            int
	survivors         int
	mutationThreshold uint64
	built             bool
}

// PopulationSize returns the number of individuals per generation. In greedy
// mode it is three times the worker count.
func (c Config) PopulationSize() int { return c.populationSize }

// GenerationLimit returns the maximum number of generations to run.
func (c Config) GenerationLimit() int { return c.generationLimit }

// MutationProbability returns the probability a recombined child is mutated.
func (c Config) MutationProbability() float64 { return c.mutationProbability }

// DeathPercentage returns the fraction of the population replaced each
// generation.
func (c Config) DeathPercentage() float64 { return c.deathPercentage }

// Workers returns the number of workers.
func (c Config) Workers() int { return c.workers }

// GreedySize returns the mutation trials per worker per greedy generation.
func (c Config) GreedySize() int { return c.greedySize }

// GreedyIndividuals returns the create-and-keep-best trials of the greedy
// initial fill.
func (c Config) GreedyIndividuals() int { return c.greedyIndividuals }

// Flags returns the flag set.
func (c Config) Flags() Flag { return c.flags }

// MinQuicksort returns the insertion sort threshold of selection.
func (c Config) MinQuicksort() int { return c.minQuicksort }

// Seed returns the base seed of the worker random sources. Zero means the
// wall clock is used.
func (c Config) Seed() int64 { return c.seed }

// Deaths returns round(population_size * death_percentage).
func (c Config) Deaths() int { return c.deaths }

// Survivors returns population_size - deaths.
func (c Config) Survivors() int { return c.survivors }

// Strategy returns the generation-advance algorithm.
func (c Config) Strategy() Strategy { return strategyFor(c.flags) }

// SortMax reports whether fitness is maximised.
func (c Config) SortMax() bool { return c.flags.Has(FlagSortMax) }

// KeepsLastGeneration reports whether offspring replace the dead tail of the
// current generation in place.
func (c Config) KeepsLastGeneration() bool { return c.flags.Has(FlagKeepLastGeneration) }

// Multiplier returns how many generations the population storage holds.
func (c Config) Multiplier() int {
	if c.KeepsLastGeneration() || c.Strategy() == StrategyGreedy {
		return 1
	}
	return 2
}

// Capacity returns the number of population slots.
func (c Config) Capacity() int {
	return c.populationSize * c.Multiplier()
}

// Better reports whether fitness a is strictly better than b under the
// configured sort direction. Selection, greedy and improvement counting all
// use it.
func (c Config) Better(a, b int64) bool {
	if c.flags.Has(FlagSortMax) {
		return a > b
	}
	return a < b
}

// ConfigBuilder collects run parameters and validates them in Build.
type ConfigBuilder struct {
	cfg Config
}

// NewConfigBuilder returns a builder with one worker and the default
// quicksort threshold.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{cfg: Config{
		workers:      1,
		minQuicksort: DefaultMinQuicksort,
	}}
}

func (b *ConfigBuilder) PopulationSize(n int) *ConfigBuilder {
	b.cfg.populationSize = n
	return b
}

func (b *ConfigBuilder) GenerationLimit(n int) *ConfigBuilder {
	b.cfg.generationLimit = n
	return b
}

func (b *ConfigBuilder) MutationProbability(p float64) *ConfigBuilder {
	b.cfg.mutationProbability = p
	return b
}

func (b *ConfigBuilder) DeathPercentage(p float64) *ConfigBuilder {
	b.cfg.deathPercentage = p
	return b
}

func (b *ConfigBuilder) Workers(n int) *ConfigBuilder {
	b.cfg.workers = n
	return b
}

// Greedy sets the per-generation trial count and the initial fill trials.
// It does not set FlagGreedy.
func (b *ConfigBuilder) Greedy(size, individuals int) *ConfigBuilder {
	b.cfg.greedySize = size
	b.cfg.greedyIndividuals = individuals
	return b
}

func (b *ConfigBuilder) Flags(f Flag) *ConfigBuilder {
	b.cfg.flags = f
	return b
}

func (b *ConfigBuilder) MinQuicksort(n int) *ConfigBuilder {
	b.cfg.minQuicksort = n
	return b
}

func (b *ConfigBuilder) Seed(seed int64) *ConfigBuilder {
	b.cfg.seed = seed
	return b
}

// Build validates the parameters and derives deaths, survivors and the
// mutation threshold.
func (b *ConfigBuilder) Build() (Config, error) {
	cfg := b.cfg

	if err := validateFlags(cfg.flags); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.workers < 1 {
		return Config{}, fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfig, cfg.workers)
	}
	if cfg.flags.Has(FlagGreedy) {
		if cfg.greedySize <= 0 {
			return Config{}, fmt.Errorf("%w: greedy size must be > 0, got %d", ErrInvalidConfig, cfg.greedySize)
		}
		if cfg.greedyIndividuals <= 0 {
			return Config{}, fmt.Errorf("%w: greedy individuals must be > 0, got %d", ErrInvalidConfig, cfg.greedyIndividuals)
		}
		cfg.populationSize = 3 * cfg.workers
	}
	if cfg.populationSize <= 0 {
		return Config{}, fmt.Errorf("%w: population size must be > 0, got %d", ErrInvalidConfig, cfg.populationSize)
	}
	if cfg.generationLimit < 0 {
		return Config{}, fmt.Errorf("%w: generation limit must be >= 0, got %d", ErrInvalidConfig, cfg.generationLimit)
	}
	if !inUnitInterval(cfg.mutationProbability) {
		return Config{}, fmt.Errorf("%w: mutation probability must be in [0,1], got %v", ErrInvalidConfig, cfg.mutationProbability)
	}
	if !inUnitInterval(cfg.deathPercentage) {
		return Config{}, fmt.Errorf("%w: death percentage must be in [0,1], got %v", ErrInvalidConfig, cfg.deathPercentage)
	}
	if cfg.minQuicksort < 1 {
		cfg.minQuicksort = DefaultMinQuicksort
	}

	cfg.deaths = int(math.Round(float64(cfg.populationSize) * cfg.deathPercentage))
	cfg.survivors = cfg.populationSize - cfg.deaths
	cfg.mutationThreshold = uint64(cfg.mutationProbability * (1 << mutationResolution))
	cfg.built = true
	return cfg, nil
}

func inUnitInterval(p float64) bool {
	return p >= 0 && p <= 1
}
