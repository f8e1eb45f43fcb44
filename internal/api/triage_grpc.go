package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// TriageServiceName is the fully qualified gRPC service name.
	TriageServiceName = "mirador.triage.v1.Triage"
	// RankFullMethod is the method path used by clients and interceptors.
	RankFullMethod = "/" + TriageServiceName + "/Rank"
)

// TriageServer is the server API for the triage service. Requests and responses are
// google.protobuf.Struct documents carrying the JSON rank request and report.
type TriageServer interface {
	Rank(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterTriageServer attaches srv to the gRPC registrar.
func RegisterTriageServer(s grpc.ServiceRegistrar, srv TriageServer) {
	s.RegisterService(&TriageServiceDesc, srv)
}

func rankHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TriageServer).Rank(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: RankFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TriageServer).Rank(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// TriageServiceDesc describes the triage service for grpc.ServiceRegistrar.
var TriageServiceDesc = grpc.ServiceDesc{
	ServiceName: TriageServiceName,
	HandlerType: (*TriageServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Rank",
			Handler:    rankHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mirador/triage/v1/triage.proto",
}

// TriageClient calls the triage service.
type TriageClient struct {
	cc grpc.ClientConnInterface
}

// NewTriageClient wraps an established connection.
func NewTriageClient(cc grpc.ClientConnInterface) *TriageClient {
	return &TriageClient{cc: cc}
}

// Rank sends a rank request document and returns the report document.
func (c *TriageClient) Rank(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, RankFullMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
