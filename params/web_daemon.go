package params

import "os"

// DefaultMaxBodyBytes caps request bodies on the write routes.
const DefaultMaxBodyBytes int64 = 8 << 20

type WebDaemonConfig struct {
	ListenerConfig
	DataDir string

	// Token guards the write routes (populate, delete, bus details).
	// If empty, all requests are allowed.
	Token string

	// MaxBodyBytes caps request bodies; larger requests get 413.
	// Non-positive means DefaultMaxBodyBytes.
	MaxBodyBytes int64

	Sinks  *SinksConfig
	Influx *InfluxConfig
}

func DefaultWebListenerConfig() ListenerConfig {
	return ListenerConfig{
		Network: "tcp",
		Address: "localhost:3000",
	}
}

func DefaultWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		DataDir:        DefaultDatadirRoot,
		ListenerConfig: DefaultWebListenerConfig(),
		Token:          os.Getenv("BUSTRACK_TOKEN"),
		MaxBodyBytes:   DefaultMaxBodyBytes,
		Sinks:          &SinksConfig{},
		Influx:         nil,
	}
}

func DefaultTestWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		DataDir: "",
		ListenerConfig: ListenerConfig{
			Network: "tcp",
			Address: "localhost:3333",
		},
		Sinks: &SinksConfig{},
	}
}
