// Package store is the in-memory cache of rendered plot images. Entries are
// keyed by query.PlotQuery.Key() and expire after a fixed TTL.
package store
