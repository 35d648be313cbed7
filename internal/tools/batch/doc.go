// Package batch provides helpers for tools that act on several messages at
// once.
//
// This package includes helpers for:
//   - Parsing parameters that accept both single values and arrays
//   - Reporting per-message outcomes, including label mutation states
//   - Formatting batch results in a consistent JSON structure
package batch
