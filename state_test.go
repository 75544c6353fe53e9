package main

import (
	"testing"
	"time"
)

func TestStateValue(t *testing.T) {
	snapshot := ProductSnapshot{
		Name:      "Example Item",
		Price:     150000,
		Stock:     12,
		FetchedAt: time.Now(),
	}

	testCases := []struct {
		kind sensorKind
		want string
	}{
		{sensorName, "Example Item"},
		{sensorPrice, "150000"},
		{sensorStock, "12"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.kind), func(t *testing.T) {
			if got := stateValue(snapshot, tc.kind); got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestPublishStates(t *testing.T) {
	pub := &fakePublisher{}
	snapshot := ProductSnapshot{Name: "Example Item", Price: 150000, Stock: 12}

	if err := publishStates(pub, "21e0aa55", snapshot); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	wantPayloads := map[string]string{
		"tkpd2mqtt/21e0aa55/name":  "Example Item",
		"tkpd2mqtt/21e0aa55/price": "150000",
		"tkpd2mqtt/21e0aa55/stock": "12",
	}
	if len(pub.records) != len(wantPayloads) {
		t.Fatalf("Expected %d state publishes, got %d", len(wantPayloads), len(pub.records))
	}
	for _, rec := range pub.records {
		want, known := wantPayloads[rec.topic]
		if !known {
			t.Errorf("Unexpected state topic %q", rec.topic)
			continue
		}
		if string(rec.payload) != want {
			t.Errorf("Expected payload %q on %q, got %q", want, rec.topic, rec.payload)
		}
		if !rec.retained {
			t.Errorf("Expected retained state on %q", rec.topic)
		}
	}
}

func TestPublishStates_AbortsOnFailure(t *testing.T) {
	pub := &fakePublisher{failOn: "/price"}
	err := publishStates(pub, "21e0aa55", ProductSnapshot{Name: "Example Item", Price: 1, Stock: 1})
	if err == nil {
		t.Fatal("Expected error from failing publish")
	}
	if len(pub.records) != 1 {
		t.Errorf("Expected 1 successful publish before abort, got %d", len(pub.records))
	}
}
