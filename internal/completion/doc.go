// Package completion summarizes, drafts and classifies email text with a
// generative-language model.
//
// The Service methods never return errors. A failed or empty generation
// turns into a placeholder string, and a failed sentiment batch into an
// empty map, so callers can render the result directly.
package completion
