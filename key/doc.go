// Package key manages the lifecycle of a short-lived bearer credential
// obtained from an OAuth2-style token endpoint.
//
// A Key owns the current access token, its expiration, and the decoded
// header/claim mappings, guarded by one exclusive lock. Token access renews
// synchronously when the credential is missing or inside the safety margin,
// while a background refresher keeps it fresh so foreground callers rarely
// block on network I/O. Dependent clients register renewal hooks that fire
// after every successful renewal.
//
//	k, err := key.NewServiceKey(ctx, authURL, clientID, clientSecret)
//	if err != nil {
//		return err
//	}
//	defer k.Close()
//
//	tok, err := k.Token(ctx)
//
// Hooks are weakly held: AddHook returns a *Registration the subscriber
// must keep alive for as long as it wants notifications.
//
//	reg := k.AddHook(func(k *key.Key) { rebuildTransport(k) })
//	defer reg.Remove()
//
// # Thread Safety
//
// All methods on Key are safe for concurrent use.
package key
