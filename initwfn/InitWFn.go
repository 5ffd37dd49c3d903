// Package initwfn describes Gorgonia weight initializers so that they
// can be stored in YAML configuration files.
package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available
type Type string

// Available InitWFn types
const (
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
	HeU      Type = "HeU"
	HeN      Type = "HeN"
	Gaussian Type = "Gaussian"
	Uniform  Type = "Uniform"
	Constant Type = "Constant"
	Zeroes   Type = "Zeroes"
	Ones     Type = "Ones"
)

// Config describes a weight initializer. Only the fields used by the
// initializer's Type are read: Gain for the Glorot and He
// initializers, Mean and StdDev for Gaussian, Low and High for Uniform
// and Value for Constant.
type Config struct {
	Type   Type    `yaml:"type"`
	Gain   float64 `yaml:"gain,omitempty"`
	Mean   float64 `yaml:"mean,omitempty"`
	StdDev float64 `yaml:"stddev,omitempty"`
	Low    float64 `yaml:"low,omitempty"`
	High   float64 `yaml:"high,omitempty"`
	Value  float64 `yaml:"value,omitempty"`
}

// Default returns the initializer used for new forward models
func Default() Config {
	return Config{Type: GlorotU, Gain: 1.0}
}

// Validate returns an error if the Config does not describe a usable
// initializer
func (c Config) Validate() error {
	switch c.Type {
	case GlorotU, GlorotN, HeU, HeN:
		if c.Gain <= 0 {
			return fmt.Errorf("validate: %v gain must be positive, got %v",
				c.Type, c.Gain)
		}

	case Gaussian:
		if c.StdDev <= 0 {
			return fmt.Errorf("validate: gaussian standard deviation must "+
				"be positive, got %v", c.StdDev)
		}

	case Uniform:
		if c.Low >= c.High {
			return fmt.Errorf("validate: uniform bounds [%v, %v) are empty",
				c.Low, c.High)
		}

	case Constant, Zeroes, Ones:

	default:
		return fmt.Errorf("validate: no such initializer %q", c.Type)
	}
	return nil
}

// Create returns the Gorgonia InitWFn that the Config describes
func (c Config) Create() (G.InitWFn, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}

	switch c.Type {
	case GlorotU:
		return G.GlorotU(c.Gain), nil
	case GlorotN:
		return G.GlorotN(c.Gain), nil
	case HeU:
		return G.HeU(c.Gain), nil
	case HeN:
		return G.HeN(c.Gain), nil
	case Gaussian:
		return G.Gaussian(c.Mean, c.StdDev), nil
	case Uniform:
		return G.Uniform(c.Low, c.High), nil
	case Constant:
		return G.ValuesOf(c.Value), nil
	case Ones:
		return G.Ones(), nil
	default:
		return G.Zeroes(), nil
	}
}

func (c Config) String() string {
	return fmt.Sprintf("{%v InitWFn}", c.Type)
}
