package worker

type Config struct {
	// PrefixPruning enables the optimality shortcut: once a prefix leaves
	// the machine waiting for the earliest remaining release, every other
	// pending alternative on every rank is discarded.
	PrefixPruning bool

	// InitialBound seeds the upper bound. Zero or less means unbounded.
	InitialBound int

	// Seed drives the choice of work-stealing victims; zero picks a
	// time-based seed.
	Seed int64
}

func DefaultConfig() Config {
	return Config{PrefixPruning: true}
}
