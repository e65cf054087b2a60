// Package stream maintains the optional websocket feed from the
// gateway. REST polling is the baseline data path; when enabled, the
// stream buffers intra-poll ticks that the poller folds into the next
// snapshot.
package stream
