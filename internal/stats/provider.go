// Package stats supplies the hardware telemetry mapping merged into
// snapshots. Providers poll on their own cadence and never gate title
// transitions.
package stats

import "context"

// Provider produces one named telemetry mapping per poll. Providers
// report degraded readings as placeholder values (e.g. "timeout",
// "connection error") rather than errors, so the snapshot always shows
// something; an error means the provider itself is broken.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// Poll gathers the current telemetry values. The returned mapping
	// is owned by the caller.
	Poll(ctx context.Context) (map[string]string, error)
}
