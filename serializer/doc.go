// Package serializer converts values to and from bytes and
// base64-encoded strings in a pluggable wire format: JSON for
// interoperability, MessagePack for compact structured data, and
// LZ4-compressed JSON for large payloads such as embedding batches.
package serializer
