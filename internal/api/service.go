package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "botpanel.v1.Bridge"

// Full method names, as used by clients.
const (
	CallMethod       = "/" + ServiceName + "/Call"
	WatchMethod      = "/" + ServiceName + "/Watch"
	GetSessionMethod = "/" + ServiceName + "/GetSession"
)

// Every message on the wire is a google.protobuf.Struct (or Empty for the
// argument-less requests). The types below are their typed views.

// CallRequest invokes a named bridge command.
type CallRequest struct {
	Name string
	Args *structpb.Value
}

// Proto returns the wire form.
func (r *CallRequest) Proto() *structpb.Struct {
	s := &structpb.Struct{Fields: map[string]*structpb.Value{
		"name": structpb.NewStringValue(r.Name),
	}}
	if r.Args != nil {
		s.Fields["args"] = r.Args
	}
	return s
}

// CallRequestFromProto reads a wire call request.
func CallRequestFromProto(s *structpb.Struct) *CallRequest {
	f := s.GetFields()
	return &CallRequest{Name: f["name"].GetStringValue(), Args: f["args"]}
}

// CallResponse carries the command result, or the error it reported.
type CallResponse struct {
	Result *structpb.Value
	Error  string
}

// Proto returns the wire form.
func (r *CallResponse) Proto() *structpb.Struct {
	s := &structpb.Struct{Fields: map[string]*structpb.Value{}}
	if r.Result != nil {
		s.Fields["result"] = r.Result
	}
	if r.Error != "" {
		s.Fields["error"] = structpb.NewStringValue(r.Error)
	}
	return s
}

// CallResponseFromProto reads a wire call response.
func CallResponseFromProto(s *structpb.Struct) *CallResponse {
	f := s.GetFields()
	return &CallResponse{Result: f["result"], Error: f["error"].GetStringValue()}
}

// EventEnvelope wraps one bridge event on the wire.
type EventEnvelope struct {
	EventID          string
	Session          string
	Name             string
	Payload          *structpb.Value
	OccurredAtUnixMs int64
}

// Proto returns the wire form.
func (e *EventEnvelope) Proto() *structpb.Struct {
	s := &structpb.Struct{Fields: map[string]*structpb.Value{
		"eventId":          structpb.NewStringValue(e.EventID),
		"session":          structpb.NewStringValue(e.Session),
		"name":             structpb.NewStringValue(e.Name),
		"occurredAtUnixMs": structpb.NewNumberValue(float64(e.OccurredAtUnixMs)),
	}}
	if e.Payload != nil {
		s.Fields["payload"] = e.Payload
	}
	return s
}

// EventEnvelopeFromProto reads a wire event.
func EventEnvelopeFromProto(s *structpb.Struct) *EventEnvelope {
	f := s.GetFields()
	return &EventEnvelope{
		EventID:          f["eventId"].GetStringValue(),
		Session:          f["session"].GetStringValue(),
		Name:             f["name"].GetStringValue(),
		Payload:          f["payload"],
		OccurredAtUnixMs: int64(f["occurredAtUnixMs"].GetNumberValue()),
	}
}

// GetSessionResponse describes the running daemon.
type GetSessionResponse struct {
	Session  string
	PID      int
	UptimeMs int64
	Attached bool
}

// Proto returns the wire form.
func (r *GetSessionResponse) Proto() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"session":  structpb.NewStringValue(r.Session),
		"pid":      structpb.NewNumberValue(float64(r.PID)),
		"uptimeMs": structpb.NewNumberValue(float64(r.UptimeMs)),
		"attached": structpb.NewBoolValue(r.Attached),
	}}
}

// GetSessionResponseFromProto reads wire daemon metadata.
func GetSessionResponseFromProto(s *structpb.Struct) *GetSessionResponse {
	f := s.GetFields()
	return &GetSessionResponse{
		Session:  f["session"].GetStringValue(),
		PID:      int(f["pid"].GetNumberValue()),
		UptimeMs: int64(f["uptimeMs"].GetNumberValue()),
		Attached: f["attached"].GetBoolValue(),
	}
}

// BridgeServer is the server API of the bridge service.
type BridgeServer interface {
	Call(context.Context, *CallRequest) (*CallResponse, error)
	Watch(*emptypb.Empty, WatchServer) error
	GetSession(context.Context, *emptypb.Empty) (*GetSessionResponse, error)
}

// WatchServer is the server side of a Watch stream.
type WatchServer interface {
	Send(*EventEnvelope) error
	grpc.ServerStream
}

type watchServer struct {
	grpc.ServerStream
}

func (s *watchServer) Send(env *EventEnvelope) error {
	return s.ServerStream.SendMsg(env.Proto())
}

func callHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req any) (any, error) {
		resp, err := srv.(BridgeServer).Call(ctx, CallRequestFromProto(req.(*structpb.Struct)))
		if err != nil {
			return nil, err
		}
		return resp.Proto(), nil
	}
	if interceptor == nil {
		return call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CallMethod}
	return interceptor(ctx, in, info, call)
}

func getSessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	get := func(ctx context.Context, req any) (any, error) {
		resp, err := srv.(BridgeServer).GetSession(ctx, req.(*emptypb.Empty))
		if err != nil {
			return nil, err
		}
		return resp.Proto(), nil
	}
	if interceptor == nil {
		return get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetSessionMethod}
	return interceptor(ctx, in, info, get)
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(BridgeServer).Watch(in, &watchServer{stream})
}

// WatchStreamDesc describes the Watch stream for clients opening it.
var WatchStreamDesc = grpc.StreamDesc{
	StreamName:    "Watch",
	Handler:       watchHandler,
	ServerStreams: true,
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BridgeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Call", Handler: callHandler},
		{MethodName: "GetSession", Handler: getSessionHandler},
	},
	Streams:  []grpc.StreamDesc{WatchStreamDesc},
	Metadata: "botpanel/v1/bridge.proto",
}

// RegisterBridgeServer registers srv on s.
func RegisterBridgeServer(s grpc.ServiceRegistrar, srv BridgeServer) {
	s.RegisterService(&serviceDesc, srv)
}
