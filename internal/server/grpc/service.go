package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// The identity service exchanges google.protobuf.Struct messages, so no
// generated stubs are needed on either side.
const (
	ServiceName = "socialid.v1.IdentityService"

	MethodPing              = "/" + ServiceName + "/Ping"
	MethodVerifySocialMedia = "/" + ServiceName + "/VerifySocialMedia"
	MethodGetCredential     = "/" + ServiceName + "/GetCredential"
	MethodListCredentials   = "/" + ServiceName + "/ListCredentials"
	MethodListMyCredentials = "/" + ServiceName + "/ListMyCredentials"
	MethodDeleteCredential  = "/" + ServiceName + "/DeleteCredential"
)

// IdentityServiceServer is the server API of socialid.v1.IdentityService.
type IdentityServiceServer interface {
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifySocialMedia(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCredential(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCredentials(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMyCredentials(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteCredential(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(IdentityServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(IdentityServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(IdentityServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// IdentityServiceDesc describes socialid.v1.IdentityService for grpc.Server.
var IdentityServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IdentityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unaryHandler(MethodPing, IdentityServiceServer.Ping)},
		{MethodName: "VerifySocialMedia", Handler: unaryHandler(MethodVerifySocialMedia, IdentityServiceServer.VerifySocialMedia)},
		{MethodName: "GetCredential", Handler: unaryHandler(MethodGetCredential, IdentityServiceServer.GetCredential)},
		{MethodName: "ListCredentials", Handler: unaryHandler(MethodListCredentials, IdentityServiceServer.ListCredentials)},
		{MethodName: "ListMyCredentials", Handler: unaryHandler(MethodListMyCredentials, IdentityServiceServer.ListMyCredentials)},
		{MethodName: "DeleteCredential", Handler: unaryHandler(MethodDeleteCredential, IdentityServiceServer.DeleteCredential)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "socialid/v1/identity.proto",
}

// RegisterIdentityServiceServer registers srv on s.
func RegisterIdentityServiceServer(s grpc.ServiceRegistrar, srv IdentityServiceServer) {
	s.RegisterService(&IdentityServiceDesc, srv)
}

// IdentityServiceClient is a thin client for socialid.v1.IdentityService.
type IdentityServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewIdentityServiceClient(cc grpc.ClientConnInterface) *IdentityServiceClient {
	return &IdentityServiceClient{cc: cc}
}

func (c *IdentityServiceClient) call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *IdentityServiceClient) Ping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, MethodPing, in, opts...)
}

func (c *IdentityServiceClient) VerifySocialMedia(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, MethodVerifySocialMedia, in, opts...)
}

func (c *IdentityServiceClient) GetCredential(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, MethodGetCredential, in, opts...)
}

func (c *IdentityServiceClient) ListCredentials(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, MethodListCredentials, in, opts...)
}

func (c *IdentityServiceClient) ListMyCredentials(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, MethodListMyCredentials, in, opts...)
}

func (c *IdentityServiceClient) DeleteCredential(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, MethodDeleteCredential, in, opts...)
}
