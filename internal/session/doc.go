// Package session holds the Gmail access credential and builds the
// implicit-flow authorization URL that produces it.
//
// The credential is never persisted. A Gmail 401 or 403 expires it.
package session
