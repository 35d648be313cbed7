// Package inbox holds the state of one mail client session: the loaded
// message view, the labels, the open message, the bulk selection and the
// credential.
//
// Every operation handles its own failures. A failed call produces exactly
// one notification through the Notifier and is also returned to the caller.
// A rejected credential ends the session.
//
// The open message is a copy of its list entry. Label changes go through the
// mutation package and are written to both copies; nothing else modifies a
// message except a reload, which replaces the whole view.
package inbox
