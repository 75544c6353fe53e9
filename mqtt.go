package main

import (
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// publisher is the minimal broker surface the sync needs. The paho
// client satisfies it through brokerPublisher; tests substitute an
// in-memory capture.
type publisher interface {
	Publish(topic string, payload []byte, retained bool) error
	Disconnect()
}

type brokerPublisher struct {
	client         mqtt.Client
	publishTimeout time.Duration
}

// connectBroker opens the single MQTT connection for the run. The
// client ID carries the listing identity so overlapping invocations
// for different listings never evict each other's session.
func connectBroker(cfg Config, identity string) (*brokerPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.BrokerHost, cfg.BrokerPort)).
		SetClientID(fmt.Sprintf("%s-%s-%s", appName, appVersion, identity)).
		SetKeepAlive(10 * time.Second).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(false)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
		slog.Info("Using provided MQTT credentials", "username", cfg.Username)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("MQTT connect not completed within %s", cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("MQTT connect failed: %w", err)
	}

	slog.Debug("Connected to MQTT broker", "host", cfg.BrokerHost, "port", cfg.BrokerPort)
	return &brokerPublisher{client: client, publishTimeout: cfg.PublishTimeout}, nil
}

// Publish sends at QoS 1 and blocks until the broker acknowledges or
// the timeout elapses. Retained delivery must be acked before the
// connection closes or the message can be lost.
func (b *brokerPublisher) Publish(topic string, payload []byte, retained bool) error {
	token := b.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(b.publishTimeout) {
		return fmt.Errorf("publish to %s not acknowledged within %s", topic, b.publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s failed: %w", topic, err)
	}
	return nil
}

// Disconnect quiesces so in-flight publishes flush before the process
// exits.
func (b *brokerPublisher) Disconnect() {
	b.client.Disconnect(250)
	slog.Debug("Disconnected from MQTT broker")
}
