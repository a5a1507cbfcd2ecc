package config

import (
	"fmt"
	"time"

	"github.com/tolchain/consensuscore/connection"
)

// Schedule builds the connection.Schedule described by c. Validate
// should be called first; Schedule does not re-validate.
func (c RetryConfig) Schedule() (connection.Schedule, error) {
	switch c.Kind {
	case "fixed":
		count := c.Count
		if count <= 0 {
			count = 1
		}
		delays := make([]time.Duration, count)
		for i := range delays {
			delays[i] = c.Initial
		}
		return connection.FixedSchedule(delays...), nil
	case "exponential":
		return connection.ExponentialSchedule(c.Initial, c.Multiplier, c.Max), nil
	default:
		return nil, fmt.Errorf("config: unknown retry kind %q", c.Kind)
	}
}
