package main

import (
	"fmt"
	"log/slog"
	"strconv"
)

// stateValue serializes the scalar carried on one sensor's state topic.
// No transformation beyond serialization happens here.
func stateValue(snapshot ProductSnapshot, kind sensorKind) string {
	switch kind {
	case sensorName:
		return snapshot.Name
	case sensorPrice:
		return strconv.FormatInt(snapshot.Price, 10)
	case sensorStock:
		return strconv.FormatInt(snapshot.Stock, 10)
	}
	return ""
}

// publishStates sends the current value for each sensor, retained so
// the hub recovers last-known values after a restart. Callers must only
// invoke this after every discovery config was acknowledged.
func publishStates(pub publisher, identity string, snapshot ProductSnapshot) error {
	for _, desc := range sensorDescriptors {
		topic := stateTopic(identity, desc.kind)
		value := stateValue(snapshot, desc.kind)
		if err := pub.Publish(topic, []byte(value), true); err != nil {
			return fmt.Errorf("state for %s: %w", desc.kind, err)
		}
		slog.Debug("Published state", "topic", topic, "value", value)
	}
	return nil
}
