package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// statePrefix roots the state topics, kept separate from the discovery
// prefix so state traffic never pollutes the hub's discovery tree.
const statePrefix = "tkpd2mqtt"

// sensorDescriptor ties one exposed listing attribute to its Home
// Assistant metadata.
type sensorDescriptor struct {
	kind        sensorKind
	deviceClass string
	unit        string
}

// sensorDescriptors is the static schema of a tracked listing: one
// entity per attribute, all grouped under one device by the identity.
var sensorDescriptors = []sensorDescriptor{
	{kind: sensorName},
	{kind: sensorPrice, deviceClass: "monetary", unit: "IDR"},
	{kind: sensorStock},
}

// discoveryConfig is the retained payload that lets Home Assistant
// auto-register a sensor entity. Field order is fixed so that repeated
// runs with an unchanged listing produce byte-identical payloads.
type discoveryConfig struct {
	Origin            configOrigin `json:"origin"`
	Device            configDevice `json:"device"`
	Platform          string       `json:"platform"`
	DeviceClass       string       `json:"device_class,omitempty"`
	UnitOfMeasurement string       `json:"unit_of_measurement,omitempty"`
	ForceUpdate       bool         `json:"force_update"`
	UniqueID          string       `json:"unique_id"`
	StateTopic        string       `json:"state_topic"`

	// Name stays null so the hub derives entity names from the device.
	Name *string `json:"name"`
}

type configOrigin struct {
	Name       string `json:"name"`
	SupportURL string `json:"support_url"`
	SWVersion  string `json:"sw_version"`
}

type configDevice struct {
	Identifiers  string `json:"identifiers"`
	SerialNumber string `json:"serial_number"`
}

func discoveryTopic(prefix, identity string, kind sensorKind) string {
	return fmt.Sprintf("%s/sensor/tkpd-%s/%s/config", prefix, identity, kind)
}

func stateTopic(identity string, kind sensorKind) string {
	return fmt.Sprintf("%s/%s/%s", statePrefix, identity, kind)
}

// buildDiscoveryConfig renders the discovery payload for one sensor.
// The device block is identical across the three sensors of a listing
// so the hub shows them as a single device.
func buildDiscoveryConfig(identity, shopDomain, productKey string, desc sensorDescriptor) ([]byte, error) {
	cfg := discoveryConfig{
		Origin: configOrigin{
			Name:       appName,
			SupportURL: appSupportURL,
			SWVersion:  appVersion,
		},
		Device: configDevice{
			Identifiers:  fmt.Sprintf("%s-%s", appName, identity),
			SerialNumber: fmt.Sprintf("%s/%s", shopDomain, productKey),
		},
		Platform:          "sensor",
		DeviceClass:       desc.deviceClass,
		UnitOfMeasurement: desc.unit,
		ForceUpdate:       true,
		UniqueID:          fmt.Sprintf("%s-%s-%s", appName, identity, desc.kind),
		StateTopic:        stateTopic(identity, desc.kind),
	}

	payload, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s discovery config: %w", desc.kind, err)
	}
	return payload, nil
}

// publishDiscoveryConfigs registers the three sensors of a listing via
// retained config messages. All configs must be acknowledged before any
// state is published; the first failure aborts the run.
func publishDiscoveryConfigs(pub publisher, prefix, identity, shopDomain, productKey string) error {
	for _, desc := range sensorDescriptors {
		payload, err := buildDiscoveryConfig(identity, shopDomain, productKey, desc)
		if err != nil {
			return err
		}

		topic := discoveryTopic(prefix, identity, desc.kind)
		if err := pub.Publish(topic, payload, true); err != nil {
			return fmt.Errorf("discovery config for %s: %w", desc.kind, err)
		}
		slog.Debug("Published discovery config", "topic", topic, "bytes", len(payload))
	}
	return nil
}

// publishDiscoveryRemoval clears the retained configs, which the hub's
// discovery convention treats as entity removal. Idempotent: clearing
// an already-empty config topic is a no-op on the broker.
func publishDiscoveryRemoval(pub publisher, prefix, identity string) error {
	for _, desc := range sensorDescriptors {
		topic := discoveryTopic(prefix, identity, desc.kind)
		if err := pub.Publish(topic, nil, true); err != nil {
			return fmt.Errorf("discovery removal for %s: %w", desc.kind, err)
		}
		slog.Debug("Cleared discovery config", "topic", topic)
	}
	return nil
}
