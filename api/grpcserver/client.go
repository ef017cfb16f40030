package grpcserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"gulog/wal"
)

// ErrMessageTooLarge is returned when a request or response exceeds the
// message size limit of either end.
var ErrMessageTooLarge = errors.New("grpcserver: message exceeds size limit")

// Client calls a remote WAL service. Records coming back are decoded and
// checksum validated locally, so corruption in transit is caught as well.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Append(ctx context.Context, data []byte) (ulid.ULID, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, appendMethod, wrapperspb.Bytes(data), out); err != nil {
		return ulid.ULID{}, fromStatus(err)
	}
	return wal.ParseKey(out.GetValue())
}

func (c *Client) Read(ctx context.Context, id ulid.ULID) (*wal.Record, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, readMethod, wrapperspb.String(id.String()), out); err != nil {
		return nil, fromStatus(err)
	}
	return decodeValid(id.String(), out.GetValue())
}

// LastRecord returns nil, nil for an empty log.
func (c *Client) LastRecord(ctx context.Context) (*wal.Record, error) {
	var md metadata.MD
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, lastRecordMethod, &emptypb.Empty{}, out, grpc.Header(&md)); err != nil {
		return nil, fromStatus(err)
	}

	ids := md.Get(RecordIDHeader)
	if len(ids) == 0 {
		return nil, nil
	}
	return decodeValid(ids[0], out.GetValue())
}

func decodeValid(key string, b []byte) (*wal.Record, error) {
	rec, err := wal.Decode(key, b)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", wal.ErrCorrupt, key, err)
	}
	if !rec.Valid() {
		return nil, fmt.Errorf("%w: %s", wal.ErrChecksumMismatch, key)
	}
	return rec, nil
}

// fromStatus turns a status error back into the matching wal error.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", wal.ErrNotFound, st.Message())
	case codes.DataLoss:
		return fmt.Errorf("%w: %s", wal.ErrChecksumMismatch, st.Message())
	case codes.Internal:
		return fmt.Errorf("%w: %s", wal.ErrCorrupt, st.Message())
	case codes.ResourceExhausted:
		return fmt.Errorf("%w: %s", ErrMessageTooLarge, st.Message())
	case codes.Unavailable:
		if reasonOf(st) == reasonListUnavailable {
			return fmt.Errorf("%w: %s", wal.ErrListUnavailable, st.Message())
		}
		return fmt.Errorf("%w: %s", wal.ErrStoreUnavailable, st.Message())
	default:
		return err
	}
}

func reasonOf(st *status.Status) string {
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == errorDomain {
			return info.GetReason()
		}
	}
	return ""
}
