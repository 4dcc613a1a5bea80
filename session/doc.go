// Package session holds the authenticated-user snapshot behind a small
// Store interface. The in-memory store serves single-process front ends;
// the Redis store shares one browser context's session across gateway
// replicas and process restarts. Snapshots are encoded in a versioned
// binary format so store contents survive rolling upgrades.
package session
