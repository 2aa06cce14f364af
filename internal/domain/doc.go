// Package domain contains the core types for the DataMorph transformation
// pipeline: tabular payloads, instruction sets, and audit telemetry records.
package domain
