// Package harvest defines the core types shared across the observation
// harvesting pipeline: the raw observation shape returned by the remote API,
// the normalized export record, and the small interfaces each stage depends on.
package harvest
