// Package agent implements the credential sidecar daemon: it builds one
// managed key per configured credential, keeps them renewed in the
// background, and serves tokens, health and metrics over a small HTTP
// API. Key configuration reloads at runtime without dropping unchanged
// keys.
package agent
