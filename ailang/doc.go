// Package ailang provides an HTTP client for the RelevAI AI-Lang API, an
// Ollama-compatible chat and embedding service.
//
// A Client binds to a key.Key: it caches the current Authorization value
// and registers a renewal hook so the cached value is swapped atomically
// whenever the credential is renewed. In-flight requests keep the header
// they were built with; subsequent requests pick up the new token.
//
//	k, err := key.NewServiceKey(ctx, authURL, clientID, clientSecret)
//	if err != nil {
//		return err
//	}
//	defer k.Close()
//
//	client, err := ailang.New(k, ailang.WithModel("llama3.2"))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	resp, err := client.Chat(ctx, &ailang.ChatRequest{
//		Messages: []ailang.Message{{Role: "user", Content: "hello"}},
//	})
//
// Embedding calls are batched transparently and can be backed by an
// optional cache keyed on model and input, so repeated inputs skip the
// network entirely.
package ailang
