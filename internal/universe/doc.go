// Package universe maintains the contract universe the pipeline scans:
// the listed Treasury futures per series and the deliverable-bond static
// data behind them. Contract IDs are expensive to resolve against the
// gateway, so the registry caches them and reconciles on an interval,
// notifying subscribers when a series rolls to a new front contract.
package universe
