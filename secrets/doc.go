// Package secrets resolves credential material from pluggable backends:
// in-memory values, environment variables, files on disk, and HashiCorp
// Vault. A Source yields one string secret per key, which is all the key
// package needs to fill in a grant's client secret without the secret
// living in process arguments or source code.
package secrets
