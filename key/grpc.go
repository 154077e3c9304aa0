package key

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
)

// rpcCredentials implements credentials.PerRPCCredentials on top of a Key,
// so every RPC carries a token that is renewed as needed rather than a
// snapshot taken at dial time.
type rpcCredentials struct {
	key *Key
}

// GetRequestMetadata returns the authorization metadata for a gRPC call.
func (c *rpcCredentials) GetRequestMetadata(ctx context.Context, _ ...string) (map[string]string, error) {
	value, err := c.key.AuthorizationValue(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"authorization": value}, nil
}

// RequireTransportSecurity indicates whether transport security is required.
func (c *rpcCredentials) RequireTransportSecurity() bool {
	return false
}

// RPCCredentials returns per-RPC credentials backed by the key, for use
// with grpc.WithPerRPCCredentials.
func (k *Key) RPCCredentials() credentials.PerRPCCredentials {
	return &rpcCredentials{key: k}
}

// UnaryClientInterceptor returns a unary client interceptor that attaches
// a bearer token to the outgoing metadata of every call. A renewal
// failure aborts the RPC.
func (k *Key) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		value, err := k.AuthorizationValue(ctx)
		if err != nil {
			return err
		}

		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", value)

		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// StreamClientInterceptor returns a stream client interceptor that
// attaches a bearer token to the outgoing metadata of every stream. A
// renewal failure aborts stream creation.
func (k *Key) StreamClientInterceptor() grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		value, err := k.AuthorizationValue(ctx)
		if err != nil {
			return nil, err
		}

		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", value)

		return streamer(ctx, desc, cc, method, opts...)
	}
}

// Ensure rpcCredentials implements credentials.PerRPCCredentials.
var _ credentials.PerRPCCredentials = (*rpcCredentials)(nil)
