// Package engineconfig holds the engine's typed startup configuration. The
// compression algorithm is captured here as an enum resolved once at
// startup rather than read from process-wide state inside the hot path.
package engineconfig

import (
	"encoding/json"
	"fmt"

	"github.com/trajflow/engine/internal/trajectory"
)

// CompressionAlgorithm is the user-facing name for a trajectory.Algorithm.
type CompressionAlgorithm string

const (
	AlgorithmOPW           CompressionAlgorithm = "opw"
	AlgorithmOPWTimeRatio  CompressionAlgorithm = "opw_tr"
	AlgorithmUniform       CompressionAlgorithm = "uniform"
	AlgorithmDeadReckoning CompressionAlgorithm = "dead_reckoning"
)

// Resolve maps the user-facing algorithm name to its trajectory.Algorithm,
// failing with a clear error on anything unrecognized.
func (a CompressionAlgorithm) Resolve() (trajectory.Algorithm, error) {
	switch a {
	case AlgorithmOPW:
		return trajectory.OPW, nil
	case AlgorithmOPWTimeRatio:
		return trajectory.OPWTimeRatio, nil
	case AlgorithmUniform:
		return trajectory.Uniform, nil
	case AlgorithmDeadReckoning:
		return trajectory.DeadReckoning, nil
	default:
		return 0, fmt.Errorf("engineconfig: unrecognized compression algorithm %q", a)
	}
}

// Config is the engine's startup configuration.
type Config struct {
	CompressionAlgorithm CompressionAlgorithm `json:"compression_algorithm"`
	RecordsPath          string                `json:"records_path"`
	POIsPath             string                `json:"pois_path,omitempty"`
	ModelPath            string                `json:"model_path,omitempty"`
	MaxTrajectorySize    int                   `json:"max_trajectory_size,omitempty"`
	MetricsAddr          string                `json:"metrics_addr,omitempty"`
}

// Validate checks that Config carries everything the driver needs to start,
// failing with a clear error if a required option is missing or the
// compression algorithm is unrecognized.
func (c *Config) Validate() error {
	if c.CompressionAlgorithm == "" {
		return fmt.Errorf("engineconfig: compression_algorithm is required")
	}
	if _, err := c.CompressionAlgorithm.Resolve(); err != nil {
		return err
	}
	if c.RecordsPath == "" {
		return fmt.Errorf("engineconfig: records_path is required")
	}
	if c.MaxTrajectorySize < 0 {
		return fmt.Errorf("engineconfig: max_trajectory_size must be >= 0, got %d", c.MaxTrajectorySize)
	}
	return nil
}

// TrajectoryMaxSize returns the configured per-trajectory row cap, or
// trajectory.Unbounded when unset.
func (c *Config) TrajectoryMaxSize() int {
	if c.MaxTrajectorySize == 0 {
		return trajectory.Unbounded
	}
	return c.MaxTrajectorySize
}

// LoadConfig parses a JSON configuration document and validates it.
func LoadConfig(data []byte) (*Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("engineconfig: parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
