package ecs

import (
	"log/slog"
	"runtime"
)

// Config controls a World's fixed parameters at construction time. Unlike
// the warehouse example's package-level Config singleton, this is passed
// explicitly into NewWorld: the design notes rule out global mutable
// state, and a library meant to host multiple independent simulations in
// one process cannot share one package-level config across them.
type Config struct {
	// Workers is the fixed number of worker-pool goroutines. Defaults to
	// runtime.NumCPU()-1, floored at 1.
	Workers int

	// ColumnInitialCapacity is the starting capacity of a freshly created
	// archetype's columns.
	ColumnInitialCapacity int

	// QueueInitialCapacity is the starting capacity of the create/destroy
	// and add/remove deferred queues.
	QueueInitialCapacity int

	// DebugValidate enables ValidateInvariants() checks on every tick, after
	// the structural phase drains and before systems run.
	// Intended for tests and development builds; leave false in
	// production for the zero-overhead path requires.
	DebugValidate bool

	// Logger receives system-failure log lines. Defaults to
	// slog.Default() if nil.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sane defaults for development use.
func DefaultConfig() Config {
	workers := runtime.NumCPU() - 1
	if workers < 1 {
		workers = 1
	}
	return Config{
		Workers:               workers,
		ColumnInitialCapacity: columnInitialCapacity,
		QueueInitialCapacity:  64,
		DebugValidate:         false,
		Logger:                slog.Default(),
	}
}

func (c Config) normalized() Config {
	if c.Workers < 1 {
		c.Workers = runtime.NumCPU() - 1
		if c.Workers < 1 {
			c.Workers = 1
		}
	}
	if c.ColumnInitialCapacity <= 0 {
		c.ColumnInitialCapacity = columnInitialCapacity
	}
	if c.QueueInitialCapacity <= 0 {
		c.QueueInitialCapacity = 64
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
