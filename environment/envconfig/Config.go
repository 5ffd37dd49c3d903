// Package envconfig provides configuration of learned-dynamics
// environments and a factory that wires the real environment, the
// forward model and the dynamics environment together. Configurations
// in this package are YAML serializable.
package envconfig

import (
	"fmt"
	"os"

	"github.com/samuelfneumann/dynenv/environment"
	"github.com/samuelfneumann/dynenv/environment/dynamics"
	"github.com/samuelfneumann/dynenv/environment/gym"
	"github.com/samuelfneumann/dynenv/environment/imagefile"
	"github.com/samuelfneumann/dynenv/initwfn"
	"github.com/samuelfneumann/dynenv/network"
	"gonum.org/v1/gonum/spatial/r1"
	"gopkg.in/yaml.v3"
)

// Backend names the kind of real environment used to obtain the first
// observation of each rollout
type Backend string

// Available backends
const (
	Gym       Backend = "gym"
	ImageFile Backend = "imagefile"
)

// Defaults
const (
	DefaultStack      = 4
	DefaultC          = 0.7
	DefaultHeight     = 96
	DefaultWidth      = 96
	DefaultActionDim  = 3
	DefaultDiscount   = 0.99
	DefaultParamDir   = "dynamics/param"
	DefaultActivation = "relu"
	DefaultSteps      = 1000
)

// RolloutConfig configures the rollout experiment run by the CLI
type RolloutConfig struct {
	Steps  int    `yaml:"steps"`
	Output string `yaml:"output"`
}

// Config implements a configuration of a learned-dynamics environment
type Config struct {
	EnvID    string  `yaml:"env_id"`
	Backend  Backend `yaml:"backend"`
	FrameDir string  `yaml:"frame_dir"`
	Shuffle  bool    `yaml:"shuffle"`

	Seed     uint64  `yaml:"seed"`
	ImgStack int     `yaml:"img_stack"`
	Device   string  `yaml:"device"`
	C        float64 `yaml:"c"`
	ParamDir string  `yaml:"param_dir"`

	UnrollLength int `yaml:"unroll_length"`
	Height       int `yaml:"height"`
	Width        int `yaml:"width"`
	ActionDim    int `yaml:"action_dim"`

	// Hidden and Activation describe the forward model created by
	// init-params. Models loaded from parameter files carry their own.
	Hidden     []int          `yaml:"hidden"`
	Activation string         `yaml:"activation"`
	Init       initwfn.Config `yaml:"init"`

	Discount  float64 `yaml:"discount"`
	Normalize bool    `yaml:"normalize"`

	Rollout RolloutConfig `yaml:"rollout"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		EnvID:        gym.CarRacing,
		Backend:      Gym,
		ImgStack:     DefaultStack,
		Device:       network.CPU.String(),
		C:            DefaultC,
		ParamDir:     DefaultParamDir,
		UnrollLength: dynamics.DefaultUnrollLength,
		Height:       DefaultHeight,
		Width:        DefaultWidth,
		ActionDim:    DefaultActionDim,
		Hidden:       []int{256},
		Activation:   DefaultActivation,
		Init:         initwfn.Default(),
		Discount:     DefaultDiscount,
		Normalize:    true,
		Rollout: RolloutConfig{
			Steps: DefaultSteps,
		},
	}
}

// Load reads a configuration from a YAML file. Fields missing from the
// file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: could not read config: %v", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("load: could not parse config %v: %v", path,
			err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load: %v", err)
	}
	return cfg, nil
}

// Save writes a configuration to a YAML file
func Save(path string, cfg *Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Marshal returns the YAML encoding of the configuration
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate returns an error if the configuration cannot be used to
// create an environment
func (c *Config) Validate() error {
	switch c.Backend {
	case Gym:
		if c.EnvID == "" {
			return fmt.Errorf("validate: env_id is required for backend %v",
				c.Backend)
		}
	case ImageFile:
		if c.FrameDir == "" {
			return fmt.Errorf("validate: frame_dir is required for backend %v",
				c.Backend)
		}
	default:
		return fmt.Errorf("validate: unknown backend %q", c.Backend)
	}

	if _, err := network.ParseDevice(c.Device); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if c.Rollout.Steps < 1 {
		return fmt.Errorf("validate: rollout steps must be positive, "+
			"got %v", c.Rollout.Steps)
	}
	if err := c.Architecture().Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if err := c.Init.Validate(); err != nil {
		return fmt.Errorf("validate: init: %v", err)
	}
	return c.DynamicsConfig().Validate()
}

// ParamPath returns the path of the forward model parameter file
// selected by the constant C
func (c *Config) ParamPath() string {
	return network.ParamPath(c.ParamDir, c.C)
}

// Architecture returns the forward model architecture described by
// the configuration
func (c *Config) Architecture() network.Architecture {
	hidden := make([]int, len(c.Hidden))
	copy(hidden, c.Hidden)

	return network.Architecture{
		StackDepth: c.ImgStack,
		Rows:       c.Height,
		Cols:       c.Width,
		ActionDim:  c.ActionDim,
		Hidden:     hidden,
		Activation: c.Activation,
	}
}

// DynamicsConfig returns the configuration of the dynamics environment
func (c *Config) DynamicsConfig() dynamics.Config {
	return dynamics.Config{
		StackDepth:   c.ImgStack,
		Rows:         c.Height,
		Cols:         c.Width,
		UnrollLength: c.UnrollLength,
		Discount:     c.Discount,
		Normalize:    c.Normalize,
	}
}

// ActionSpec returns the action specification used by real
// environments that do not define their own
func (c *Config) ActionSpec() environment.Spec {
	if c.ActionDim == len(environment.CarRacingActions) {
		return environment.NewBoxSpec(environment.CarRacingActions,
			environment.Action)
	}
	return environment.NewUniformSpec(c.ActionDim, environment.Action,
		r1.Interval{Min: -1, Max: 1})
}

// CreateReal returns the real environment described by the
// configuration
func (c *Config) CreateReal() (environment.Real, error) {
	var (
		real environment.Real
		err  error
	)
	switch c.Backend {
	case Gym:
		real, err = gym.New(c.EnvID, c.Height, c.Width, c.Seed)

	case ImageFile:
		real, err = imagefile.New(c.FrameDir, c.ActionSpec(), c.Shuffle,
			c.Seed)

	default:
		return nil, fmt.Errorf("createReal: no such backend %q", c.Backend)
	}

	if err != nil {
		return nil, fmt.Errorf("createReal: %v", err)
	}
	return real, nil
}

// LoadModel loads the forward model selected by C onto the configured
// device and checks that it fits the configured observations and
// actions
func (c *Config) LoadModel() (*network.ForwardModel, error) {
	device, err := network.ParseDevice(c.Device)
	if err != nil {
		return nil, fmt.Errorf("loadModel: %v", err)
	}

	model, err := network.Load(c.ParamPath(), device)
	if err != nil {
		return nil, fmt.Errorf("loadModel: %w", err)
	}

	got, want := model.Architecture(), c.Architecture()
	if got.StackDepth != want.StackDepth || got.Rows != want.Rows ||
		got.Cols != want.Cols || got.ActionDim != want.ActionDim {
		model.Close()
		return nil, fmt.Errorf("loadModel: model in %v expects stack %v of "+
			"%vx%v frames and %v actions, configuration has stack %v of "+
			"%vx%v frames and %v actions", c.ParamPath(), got.StackDepth,
			got.Rows, got.Cols, got.ActionDim, want.StackDepth, want.Rows,
			want.Cols, want.ActionDim)
	}

	return model, nil
}

// Create returns the dynamics environment described by the
// configuration. The forward model is loaded before the real
// environment is created, so a missing parameter file fails fast.
func (c *Config) Create() (*dynamics.Env, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}

	model, err := c.LoadModel()
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}

	real, err := c.CreateReal()
	if err != nil {
		model.Close()
		return nil, fmt.Errorf("create: %v", err)
	}

	env, err := dynamics.New(real, model, c.DynamicsConfig())
	if err != nil {
		model.Close()
		real.Close()
		return nil, fmt.Errorf("create: %v", err)
	}

	return env, nil
}
