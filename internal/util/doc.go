// Package util provides small shared helpers for the SDK.
//
// This package contains slice chunking used for request batching and
// time helpers used by logging and expiry reporting.
package util
