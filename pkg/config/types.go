package config

// RunSpec describes one evolution run: the problem to solve, the engine
// settings and the optional early-stop conditions.
type RunSpec struct {
	Problem     ProblemSpec   `yaml:"problem" json:"problem"`
	Evolution   EvolutionSpec `yaml:"evolution" json:"evolution"`
	Stop        *StopSpec     `yaml:"stop,omitempty" json:"stop,omitempty"`
	CallbackURL string        `yaml:"callback_url,omitempty" json:"callback_url,omitempty"`
}

// ProblemSpec selects a registered problem
type ProblemSpec struct {
	Name string `yaml:"name" json:"name"`
	// Size is the problem dimension: cities for tsp, bits for onemax.
	Size int   `yaml:"size" json:"size"`
	Seed int64 `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// EvolutionSpec holds the engine settings
type EvolutionSpec struct {
	PopulationSize      int         `yaml:"population_size" json:"population_size"`
	GenerationLimit     int         `yaml:"generation_limit" json:"generation_limit"`
	MutationProbability float64     `yaml:"mutation_probability" json:"mutation_probability"`
	DeathPercentage     float64     `yaml:"death_percentage" json:"death_percentage"`
	Workers             int         `yaml:"workers" json:"workers"`
	Sort                string      `yaml:"sort,omitempty" json:"sort,omitempty"` // min or max
	Flags               []string    `yaml:"flags" json:"flags"`
	Greedy              *GreedySpec `yaml:"greedy,omitempty" json:"greedy,omitempty"`
	MinQuicksort        int         `yaml:"min_quicksort,omitempty" json:"min_quicksort,omitempty"`
	Seed                int64       `yaml:"seed,omitempty" json:"seed,omitempty"`
	Scheduler           string      `yaml:"scheduler,omitempty" json:"scheduler,omitempty"` // auto, serial, slots, spawn
	Verbosity           int         `yaml:"verbosity,omitempty" json:"verbosity,omitempty"` // 0-3
}

// GreedySpec configures the greedy strategy
type GreedySpec struct {
	Size        int `yaml:"size" json:"size"`
	Individuals int `yaml:"individuals" json:"individuals"`
}

// StopSpec holds early-stop conditions. Any condition that is met stops the
// run.
type StopSpec struct {
	TargetFitness            *int64 `yaml:"target_fitness,omitempty" json:"target_fitness,omitempty"`
	NoImprovementGenerations int    `yaml:"no_improvement_generations,omitempty" json:"no_improvement_generations,omitempty"`
	PlateauGenerations       int    `yaml:"plateau_generations,omitempty" json:"plateau_generations,omitempty"`
	FitnessTolerance         int64  `yaml:"fitness_tolerance,omitempty" json:"fitness_tolerance,omitempty"`
	MinGenerations           int    `yaml:"min_generations,omitempty" json:"min_generations,omitempty"`
}

// Enabled reports whether any stop condition is set.
func (s *StopSpec) Enabled() bool {
	return s != nil && (s.TargetFitness != nil || s.NoImprovementGenerations > 0 || s.PlateauGenerations > 0)
}

// DaemonConfig represents the evod daemon configuration
type DaemonConfig struct {
	LogLevel        string         `yaml:"log_level"`
	LogFormat       string         `yaml:"log_format"` // json or text
	GRPCAddr        string         `yaml:"grpc_addr"`
	HTTPAddr        string         `yaml:"http_addr"`
	MaxParallelRuns int            `yaml:"max_parallel_runs"`
	QueueCapacity   int            `yaml:"queue_capacity"`
	Callback        CallbackConfig `yaml:"callback"`
}

// CallbackConfig controls delivery of run completion webhooks
type CallbackConfig struct {
	TimeoutMs  int    `yaml:"timeout_ms"`
	MaxRetries int    `yaml:"max_retries"`
	Backoff    string `yaml:"backoff"` // exponential or constant
	BaseMs     int    `yaml:"base_ms"`
	MaxMs      int    `yaml:"max_ms"`
}
