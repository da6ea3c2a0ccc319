package rohc

import "github.com/go-rohc/tcp6846/config"

// EngineConfigFromFile loads engine tunables from the shared YAML
// config package, adapting config.Config to the EngineConfig this
// package actually consumes.
func EngineConfigFromFile(cfg *config.Config) EngineConfig {
	return EngineConfig{
		MaxTCPOptionIndex:            cfg.MaxTCPOptionIndex,
		OptionValueArenaSize:         cfg.OptionValueArenaSize,
		TTLIrregularOnAnyOuterChange: cfg.TTLIrregularOnAnyOuterChange,
	}
}
