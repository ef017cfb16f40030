package grpcserver

import (
	"context"
	"errors"
	"log"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"gulog/service"
	"gulog/wal"
)

// Server adapts LogService to gRPC.
type Server struct {
	svc *service.LogService
}

var _ WALServer = (*Server)(nil)

func NewServer(svc *service.LogService) *Server {
	return &Server{svc: svc}
}

// -------------------- Commands --------------------

func (s *Server) Append(
	ctx context.Context,
	req *wrapperspb.BytesValue,
) (*wrapperspb.StringValue, error) {
	rec, err := s.svc.Append(ctx, req.GetValue())
	if err != nil {
		log.Printf("[gRPC] Append failed: %v", err)
		return nil, toStatus(err)
	}

	log.Printf("[gRPC] Append id=%s size=%d", rec.ID, len(rec.Data))
	return wrapperspb.String(rec.Key()), nil
}

// -------------------- Queries --------------------

func (s *Server) Read(
	ctx context.Context,
	req *wrapperspb.StringValue,
) (*wrapperspb.BytesValue, error) {
	id, err := wal.ParseKey(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	rec, err := s.svc.Read(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(wal.Encode(rec)), nil
}

func (s *Server) LastRecord(
	ctx context.Context,
	_ *emptypb.Empty,
) (*wrapperspb.BytesValue, error) {
	rec, err := s.svc.Last(ctx)
	if err != nil {
		log.Printf("[gRPC] LastRecord failed: %v", err)
		return nil, toStatus(err)
	}
	if rec == nil {
		return &wrapperspb.BytesValue{}, nil
	}

	if err := grpc.SetHeader(ctx, metadata.Pairs(RecordIDHeader, rec.Key())); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(wal.Encode(rec)), nil
}

// --- converters ---

// Reasons attached as ErrorInfo details, so that classes sharing a status
// code stay apart on the wire.
const (
	errorDomain            = "gulog.wal"
	reasonStoreUnavailable = "STORE_UNAVAILABLE"
	reasonListUnavailable  = "LIST_UNAVAILABLE"
)

// toStatus keeps the WAL error classes apart on the wire.
func toStatus(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, wal.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, wal.ErrChecksumMismatch):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, wal.ErrCorrupt):
		return status.Error(codes.Internal, err.Error())
	case errors.Is(err, wal.ErrListUnavailable):
		return withReason(codes.Unavailable, reasonListUnavailable, err)
	case errors.Is(err, wal.ErrStoreUnavailable):
		return withReason(codes.Unavailable, reasonStoreUnavailable, err)
	default:
		return status.Error(codes.Unknown, err.Error())
	}
}

func withReason(code codes.Code, reason string, err error) error {
	st, derr := status.New(code, err.Error()).WithDetails(&errdetails.ErrorInfo{
		Reason: reason,
		Domain: errorDomain,
	})
	if derr != nil {
		return status.Error(code, err.Error())
	}
	return st.Err()
}
