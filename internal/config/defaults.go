package config

import "time"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":3000",
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			HostDetails:     true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Probe: ProbeConfig{
			Engine:   "imaging",
			Timezone: "Local",
			API: JobConfig{
				Width:        10,
				Height:       10,
				Color:        "#00FF00",
				TargetWidth:  5,
				TargetHeight: 5,
				Format:       "png",
			},
			Page: JobConfig{
				Width:        100,
				Height:       100,
				Color:        "#FF6464",
				TargetWidth:  50,
				TargetHeight: 50,
				Format:       "png",
			},
		},
	}
}
