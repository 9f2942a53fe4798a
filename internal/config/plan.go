package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
)

type PlanConfig struct {
	ConfigPath string `yaml:"-"`

	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`

	Sizing `yaml:",inline"`

	Format string `yaml:"format"`
}

func ParsePlanConfig(args []string) PlanConfig {
	c, err := parsePlan(args, flag.ExitOnError)
	if err != nil {
		log.Fatalf("[FATAL] plan config: %v", err)
	}
	return c
}

func parsePlan(args []string, handling flag.ErrorHandling) (PlanConfig, error) {
	fs := flag.NewFlagSet("plan", handling)
	c := PlanConfig{Format: "text"}

	fs.StringVar(&c.ConfigPath, "config", "", "YAML file with plan settings (flags override it)")
	fs.Int64Var(&c.Min, "min", c.Min, "Lower bound of the key range (inclusive)")
	fs.Int64Var(&c.Max, "max", c.Max, "Upper bound of the key range (inclusive)")
	c.Sizing.register(fs)
	fs.StringVar(&c.Format, "format", c.Format, "Output format: text or yaml")

	if err := parseWithFile(fs, args, &c.ConfigPath, &c); err != nil {
		return c, err
	}
	c.Sizing.keepFlagMode(fs)

	return c, c.Validate()
}

func (c PlanConfig) Validate() error {
	if !c.Sizing.IsSet() {
		return errors.New("one of batch-size or batch-count is required")
	}

	if err := c.Sizing.Validate(); err != nil {
		return err
	}

	if c.Format != "text" && c.Format != "yaml" {
		return fmt.Errorf("unknown format %q", c.Format)
	}

	return nil
}
