// Package mutation implements optimistic label changes.
//
// A single-message mutation moves through Idle, Applied, then Confirmed or
// RolledBack. The local label set is changed before the server is asked, and
// it is not reverted when the server rejects the change: RolledBack only
// records the failure.
//
// Bulk mutations skip the local step entirely. One batch request is sent for
// the whole selection and the caller's view is reloaded from the server when
// it succeeds.
package mutation
