package evod

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The EvolutionService carries runs as google.protobuf.Struct documents with
// the same JSON shape as the HTTP API. Run ids travel as StringValue.
const (
	EvolutionServiceName = "evolution.v1.EvolutionService"

	methodCreateRun       = "/" + EvolutionServiceName + "/CreateRun"
	methodStartRun        = "/" + EvolutionServiceName + "/StartRun"
	methodStopRun         = "/" + EvolutionServiceName + "/StopRun"
	methodGetRun          = "/" + EvolutionServiceName + "/GetRun"
	methodListRuns        = "/" + EvolutionServiceName + "/ListRuns"
	methodGetRunMetrics   = "/" + EvolutionServiceName + "/GetRunMetrics"
	methodStreamRunEvents = "/" + EvolutionServiceName + "/StreamRunEvents"
)

// EvolutionServiceServer is the server API for the EvolutionService.
type EvolutionServiceServer interface {
	CreateRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartRun(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	StopRun(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetRun(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListRuns(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetRunMetrics(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	StreamRunEvents(*wrapperspb.StringValue, grpc.ServerStreamingServer[structpb.Struct]) error
}

// RegisterEvolutionServiceServer registers srv on s.
func RegisterEvolutionServiceServer(s grpc.ServiceRegistrar, srv EvolutionServiceServer) {
	s.RegisterService(&EvolutionServiceDesc, srv)
}

func unaryHandler[Req any, PReq interface {
	*Req
}](method string, call func(EvolutionServiceServer, context.Context, PReq) (*structpb.Struct, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EvolutionServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(EvolutionServiceServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func streamRunEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(EvolutionServiceServer).StreamRunEvents(in,
		&grpc.GenericServerStream[wrapperspb.StringValue, structpb.Struct]{ServerStream: stream})
}

// EvolutionServiceDesc describes the EvolutionService for grpc.Server.
var EvolutionServiceDesc = grpc.ServiceDesc{
	ServiceName: EvolutionServiceName,
	HandlerType: (*EvolutionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateRun",
			Handler: unaryHandler(methodCreateRun, func(s EvolutionServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.CreateRun(ctx, in)
			}),
		},
		{
			MethodName: "StartRun",
			Handler: unaryHandler(methodStartRun, func(s EvolutionServiceServer, ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
				return s.StartRun(ctx, in)
			}),
		},
		{
			MethodName: "StopRun",
			Handler: unaryHandler(methodStopRun, func(s EvolutionServiceServer, ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
				return s.StopRun(ctx, in)
			}),
		},
		{
			MethodName: "GetRun",
			Handler: unaryHandler(methodGetRun, func(s EvolutionServiceServer, ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
				return s.GetRun(ctx, in)
			}),
		},
		{
			MethodName: "ListRuns",
			Handler: unaryHandler(methodListRuns, func(s EvolutionServiceServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
				return s.ListRuns(ctx, in)
			}),
		},
		{
			MethodName: "GetRunMetrics",
			Handler: unaryHandler(methodGetRunMetrics, func(s EvolutionServiceServer, ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
				return s.GetRunMetrics(ctx, in)
			}),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamRunEvents",
			Handler:       streamRunEventsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "evolution/v1/evolution.proto",
}

// EvolutionServiceClient is the client API for the EvolutionService.
type EvolutionServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewEvolutionServiceClient(cc grpc.ClientConnInterface) *EvolutionServiceClient {
	return &EvolutionServiceClient{cc: cc}
}

func (c *EvolutionServiceClient) invoke(ctx context.Context, method string, in any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *EvolutionServiceClient) CreateRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodCreateRun, in, opts...)
}

func (c *EvolutionServiceClient) StartRun(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodStartRun, in, opts...)
}

func (c *EvolutionServiceClient) StopRun(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodStopRun, in, opts...)
}

func (c *EvolutionServiceClient) GetRun(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetRun, in, opts...)
}

func (c *EvolutionServiceClient) ListRuns(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodListRuns, in, opts...)
}

func (c *EvolutionServiceClient) GetRunMetrics(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetRunMetrics, in, opts...)
}

func (c *EvolutionServiceClient) StreamRunEvents(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &EvolutionServiceDesc.Streams[0], methodStreamRunEvents, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[wrapperspb.StringValue, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
