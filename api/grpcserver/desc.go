package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "gulog.wal.v1.WAL"

	appendMethod     = "/" + ServiceName + "/Append"
	readMethod       = "/" + ServiceName + "/Read"
	lastRecordMethod = "/" + ServiceName + "/LastRecord"

	// RecordIDHeader carries the id of the record returned by LastRecord.
	RecordIDHeader = "gulog-record-id"

	// DefaultMaxMessageSize bounds request and response messages on both
	// ends. Encoded records are sent as raw bytes, so a record fits as long
	// as its payload plus the checksum and framing stay below the limit.
	DefaultMaxMessageSize = 64 << 20
)

// ServerOptions sizes the server for messages up to maxMsg bytes.
func ServerOptions(maxMsg int) []grpc.ServerOption {
	if maxMsg <= 0 {
		maxMsg = DefaultMaxMessageSize
	}
	return []grpc.ServerOption{
		grpc.MaxRecvMsgSize(maxMsg),
		grpc.MaxSendMsgSize(maxMsg),
	}
}

// DialOptions sizes a client connection for messages up to maxMsg bytes.
func DialOptions(maxMsg int) []grpc.DialOption {
	if maxMsg <= 0 {
		maxMsg = DefaultMaxMessageSize
	}
	return []grpc.DialOption{
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(maxMsg),
			grpc.MaxCallSendMsgSize(maxMsg),
		),
	}
}

// WALServer is the server API of the gulog.wal.v1.WAL service. Messages
// are protobuf well-known types:
//
//	Append(BytesValue payload)  -> StringValue id
//	Read(StringValue id)        -> BytesValue encoded record
//	LastRecord(Empty)           -> BytesValue encoded record, id in the
//	                               gulog-record-id header (empty log: no
//	                               header, empty value)
type WALServer interface {
	Append(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	Read(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	LastRecord(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
}

func Register(s grpc.ServiceRegistrar, srv WALServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WALServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Append", Handler: appendHandler},
		{MethodName: "Read", Handler: readHandler},
		{MethodName: "LastRecord", Handler: lastRecordHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gulog/wal/v1/wal.proto",
}

func appendHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WALServer).Append(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: appendMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WALServer).Append(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func readHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WALServer).Read(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: readMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WALServer).Read(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func lastRecordHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WALServer).LastRecord(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: lastRecordMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WALServer).LastRecord(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
