// Package storage implements the content-addressed artifact store the
// engine persists node outputs into. Writes go through a private staging
// directory and become visible only on an atomic commit into a
// fingerprint-addressed location; an interrupted writer leaves nothing
// behind but sweepable staging garbage. A durable manifest maps
// fingerprints to committed entries and is the cache index consulted on
// process restart.
//
// Writers targeting the same resource name are serialized; distinct
// resource names proceed independently. That per-name lock is the only
// lock the engine requires of the store.
package storage
