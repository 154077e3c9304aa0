// Package config provides configuration types and loading for the
// relevai-agent sidecar and the SDK's configurable components.
//
// Configuration files are YAML with environment variable substitution:
// ${VAR} expands to the variable's value and ${VAR:-default} falls back
// to the default when the variable is unset. A literal dollar sign is
// written as $$.
//
// Example:
//
//	server:
//	  listenAddress: ":8600"
//	keys:
//	  - name: reporting
//	    authUrl: https://auth.relev.ai/oauth/token
//	    clientId: svc-reporting
//	    grantType: client_credentials
//	    clientSecret: ${REPORTING_CLIENT_SECRET}
//
// The Watcher reloads configuration when the file changes, debouncing
// rapid successive writes and keeping the last valid configuration when
// a reload fails.
package config
