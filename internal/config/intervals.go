package config

import "time"

// Worker intervals
const (
	// SessionSweepInterval defines how often terminal and expired claim sessions are purged
	SessionSweepInterval = 30 * time.Second

	// SessionRetention is how long a terminal session stays queryable
	SessionRetention = 2 * time.Minute

	// SimulationInterval defines how often the route simulator emits a position fix
	SimulationInterval = 3 * time.Second

	// SimulationSpeedKmh is the walking speed of the simulated user
	SimulationSpeedKmh = 5.0

	// LocalVerifyLatency mimics the round trip of a remote claim verification
	LocalVerifyLatency = 2 * time.Second
)
