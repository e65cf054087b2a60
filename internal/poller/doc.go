// Package poller drives the pipeline on a fixed interval.
//
// Each cycle builds a fresh market snapshot, runs the engine over it,
// and hands the result to a handler for persistence and publication.
// Failed cycles are counted and logged; the loop never stops on error.
package poller
