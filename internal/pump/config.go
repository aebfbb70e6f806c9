package pump

import "github.com/danmuck/tunframe/internal/protocol/frame"

type Config struct {
	Name      string
	ReadSize  int
	WriteSize int
	BatchSize int
	Limits    frame.Limits
}

func DefaultConfig() Config {
	return Config{
		Name:      "link",
		ReadSize:  32 * 1024,
		WriteSize: 32 * 1024,
		BatchSize: 64,
		Limits:    frame.DefaultLimits(),
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Name == "" {
		c.Name = def.Name
	}
	if c.ReadSize <= 0 {
		c.ReadSize = def.ReadSize
	}
	if c.WriteSize <= 0 {
		c.WriteSize = def.WriteSize
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	return c
}
