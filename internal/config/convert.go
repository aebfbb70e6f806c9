package config

import (
	"github.com/danmuck/tunframe/internal/pump"
)

func (c Config) PumpConfig() pump.Config {
	return pump.Config{
		Name:      c.Name,
		ReadSize:  c.ReadSize,
		WriteSize: c.WriteSize,
		BatchSize: c.BatchSize,
		Limits:    c.Limits,
	}
}
