// Package engine orchestrates the calendar-spread pipeline: CTD
// selection, basis and carry, pair ranking, position sizing, fee
// adjustment, and the risk overlay, in that order over one snapshot.
package engine
