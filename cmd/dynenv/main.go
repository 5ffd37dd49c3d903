// Command dynenv rolls agents out in learned-dynamics environments
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/dynenv/agent/random"
	"github.com/samuelfneumann/dynenv/environment/envconfig"
	"github.com/samuelfneumann/dynenv/environment/gym"
	"github.com/samuelfneumann/dynenv/experiment"
	"github.com/samuelfneumann/dynenv/experiment/trackers"
	"github.com/samuelfneumann/dynenv/frame"
	"github.com/samuelfneumann/dynenv/network"
	ts "github.com/samuelfneumann/dynenv/timestep"
	"github.com/samuelfneumann/dynenv/utils/progressbar"
	"github.com/spf13/cobra"
)

var (
	configFile string
	seed       int64
	steps      int
	output     string
	force      bool
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("dynenv: ")

	rootCmd := &cobra.Command{
		Use:           "dynenv",
		Short:         "learned-dynamics environment tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file path (yaml)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", -1,
		"random seed, overrides the config file when non-negative")

	rolloutCmd := &cobra.Command{
		Use:   "rollout",
		Short: "roll a random agent out in the learned dynamics",
		RunE:  runRollout,
	}
	rolloutCmd.Flags().IntVar(&steps, "steps", 0,
		"number of steps, overrides the config file when positive")
	rolloutCmd.Flags().StringVar(&output, "output", "",
		"directory for tracked data, overrides the config file")

	initCmd := &cobra.Command{
		Use:   "init-params",
		Short: "write a randomly initialized forward model parameter file",
		RunE:  initParams,
	}
	initCmd.Flags().BoolVar(&force, "force", false,
		"overwrite an existing parameter file")

	renderCmd := &cobra.Command{
		Use:   "render [steps] [file]",
		Short: "render the observation stack after some random steps",
		Args:  cobra.ExactArgs(2),
		RunE:  renderStack,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		RunE:  printConfig,
	}

	rootCmd.AddCommand(rolloutCmd, initCmd, renderCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

// loadConfig returns the configuration selected by the global flags
func loadConfig() (*envconfig.Config, error) {
	cfg := envconfig.Default()
	if configFile != "" {
		var err error
		if cfg, err = envconfig.Load(configFile); err != nil {
			return nil, err
		}
	}
	if seed >= 0 {
		cfg.Seed = uint64(seed)
	}
	return cfg, cfg.Validate()
}

func runRollout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if steps > 0 {
		cfg.Rollout.Steps = steps
	}
	if output != "" {
		cfg.Rollout.Output = output
	}
	if cfg.Backend == envconfig.Gym {
		defer gym.Shutdown()
	}

	env, err := cfg.Create()
	if err != nil {
		return err
	}
	defer env.Close()
	log.Printf("created %v", env)

	agent, err := random.New(env.ActionSpec(), cfg.Seed)
	if err != nil {
		return err
	}

	returns := trackers.NewReturn(filepath.Join(cfg.Rollout.Output,
		"returns.bin"))
	lengths := trackers.NewEpisodeLength(filepath.Join(cfg.Rollout.Output,
		"lengths.bin"))
	stats := trackers.NewFrameStats(filepath.Join(cfg.Rollout.Output,
		"frame_means.bin"))
	exp := experiment.NewOnline(env, agent, uint(cfg.Rollout.Steps),
		returns, lengths, stats)
	if cfg.Rollout.Output != "" {
		exp.Register(trackers.NewFrames(filepath.Join(cfg.Rollout.Output,
			"frames"), cfg.Normalize))
	}

	bar := progressbar.New(os.Stderr, 40, cfg.Rollout.Steps)
	exp.OnStep = func(step ts.TimeStep) {
		bar.Increment()
		bar.SetLabel(fmt.Sprintf("episode %v", exp.Episodes()))
		bar.Display()
	}

	runErr := exp.Run()
	bar.Close()
	if runErr != nil {
		return runErr
	}

	mean, std := stats.Summary()
	log.Printf("ran %v steps over %v episodes, %v finished, newest frame "+
		"mean %.4f (std %.4f)", exp.Steps(), exp.Episodes(),
		len(lengths.Data()), mean, std)

	if cfg.Rollout.Output == "" {
		return nil
	}
	if err := os.MkdirAll(cfg.Rollout.Output, 0o755); err != nil {
		return fmt.Errorf("could not create output directory: %v", err)
	}
	if err := exp.Save(); err != nil {
		return err
	}
	log.Printf("saved rollout data to %v", cfg.Rollout.Output)
	return nil
}

func initParams(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := cfg.ParamPath()
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("parameter file %v exists, use --force to "+
			"overwrite it", path)
	}

	device, err := network.ParseDevice(cfg.Device)
	if err != nil {
		return err
	}
	init, err := cfg.Init.Create()
	if err != nil {
		return err
	}
	model, err := network.New(cfg.Architecture(), device, init)
	if err != nil {
		return err
	}
	defer model.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create parameter directory: %v", err)
	}
	if err := model.Save(path); err != nil {
		return err
	}
	log.Printf("wrote randomly initialized parameters to %v", path)
	return nil
}

func renderStack(cmd *cobra.Command, args []string) error {
	var n int
	if _, err := fmt.Sscan(args[0], &n); err != nil || n < 0 {
		return fmt.Errorf("invalid number of steps %q", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Backend == envconfig.Gym {
		defer gym.Shutdown()
	}

	env, err := cfg.Create()
	if err != nil {
		return err
	}
	defer env.Close()

	agent, err := random.New(env.ActionSpec(), cfg.Seed)
	if err != nil {
		return err
	}

	step, err := env.Reset()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		step, _, err = env.Step(step.Observation, agent.SelectAction(step))
		if err != nil {
			return err
		}
	}

	if err := frame.SaveRender(args[1], step.Observation,
		cfg.Normalize); err != nil {
		return err
	}
	log.Printf("rendered stack after %v steps to %v", n, args[1])
	return nil
}

func printConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
