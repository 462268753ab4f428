package gateway

import "time"

// Config is read with the GATEWAY prefix.
type Config struct {
	Addr      string `envconfig:"ADDR" default:":8002"`
	StaticDir string `envconfig:"STATIC_DIR" default:"frontend"`
	// SessionRetain keeps a disconnected session resumable for this long. Zero
	// destroys the session with its last connection.
	SessionRetain   time.Duration `envconfig:"SESSION_RETAIN" default:"0s"`
	JanitorInterval time.Duration `envconfig:"JANITOR_INTERVAL" default:"1m"`
	// UpgradeLimit is websocket upgrades per minute per client IP.
	UpgradeLimit int           `envconfig:"UPGRADE_LIMIT" default:"30"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	// MaxMessageBytes bounds one inbound frame payload.
	MaxMessageBytes int `envconfig:"MAX_MESSAGE_BYTES" default:"65536"`
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8002"
	}
	if c.UpgradeLimit <= 0 {
		c.UpgradeLimit = 30
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = 64 << 10
	}
	return c
}
