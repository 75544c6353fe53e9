package main

import "time"

// ProductSnapshot holds the listing values read during a single run.
// It is constructed once per run and never mutated afterwards.
type ProductSnapshot struct {
	Name      string
	Price     int64 // IDR, whole rupiah
	Stock     int64
	FetchedAt time.Time
}

// sensorKind names one tracked listing attribute exposed as a separate
// Home Assistant entity. The value doubles as a topic path segment and
// a unique-id suffix, so it must stay stable across releases.
type sensorKind string

const (
	sensorName  sensorKind = "name"
	sensorPrice sensorKind = "price"
	sensorStock sensorKind = "stock"
)
