// Package gateway provides the REST client for the local brokerage
// gateway (Client Portal style, default https://localhost:5000/v1/api).
//
// The gateway terminates TLS with a self-signed certificate and holds a
// brokerage session that expires unless tickled; Keepalive runs that
// loop. All endpoints return wire types that convert to model types via
// To* helpers.
package gateway
