package main

import (
	"fmt"
	"time"
)

// Config carries every per-run setting. It is built from CLI flags,
// validated once, and passed by value so no component can mutate it
// behind another's back.
type Config struct {
	BrokerHost string
	BrokerPort int
	Username   string
	Password   string

	// DiscoveryPrefix is the Home Assistant MQTT discovery prefix the
	// hub subscribes to.
	DiscoveryPrefix string

	// Delete clears the retained discovery configs for the listing
	// instead of syncing its current values.
	Delete bool

	HTTPTimeout    time.Duration
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

func defaultConfig() Config {
	return Config{
		BrokerHost:      "localhost",
		BrokerPort:      1883,
		DiscoveryPrefix: "homeassistant",
		HTTPTimeout:     10 * time.Second,
		ConnectTimeout:  10 * time.Second,
		PublishTimeout:  5 * time.Second,
	}
}

func (c Config) validate() error {
	if c.Password != "" && c.Username == "" {
		return fmt.Errorf("MQTT broker password provided without a username")
	}
	if c.BrokerPort < 1 || c.BrokerPort > 65535 {
		return fmt.Errorf("invalid MQTT broker port %d", c.BrokerPort)
	}
	if c.DiscoveryPrefix == "" {
		return fmt.Errorf("discovery topic prefix must not be empty")
	}
	return nil
}
