// Package marketdata builds pipeline snapshots from the gateway:
// contract quotes parsed out of the display conventions (32nds prices,
// suffixed volumes, prior-close markers), deliverable-bond legs per
// quoted side, trailing daily closes, and the account value.
package marketdata
