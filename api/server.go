// Package api exposes a service.Service over gRPC.
package api

import (
	"context"
	"errors"
	"fmt"
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/frankonly/zkmerkle/crypto"
	"github.com/frankonly/zkmerkle/merkle"
	"github.com/frankonly/zkmerkle/service"
	"github.com/frankonly/zkmerkle/storage"
)

// State is what the server needs from the tree owner.
type State interface {
	Root() ([]byte, error)
	Leaf(index int) ([]byte, error)
	Path(index int) ([][]byte, error)
	Update(index int, leaf []byte) ([]byte, error)
	UpdateValue(index int, value []byte) ([]byte, error)
	Rebuild() error
}

type Server struct {
	state State
}

var _ StateServer = (*Server)(nil)

func NewServer(state State) *Server {
	return &Server{state: state}
}

func (s *Server) Root(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	root, err := s.state.Root()
	if err != nil {
		return nil, toStatus(err)
	}

	return wrapperspb.Bytes(root), nil
}

func (s *Server) Leaf(_ context.Context, in *wrapperspb.UInt64Value) (*wrapperspb.BytesValue, error) {
	index, err := toIndex(in.GetValue())
	if err != nil {
		return nil, err
	}

	leaf, err := s.state.Leaf(index)
	if err != nil {
		return nil, toStatus(err)
	}

	return wrapperspb.Bytes(leaf), nil
}

func (s *Server) Path(_ context.Context, in *wrapperspb.UInt64Value) (*structpb.ListValue, error) {
	index, err := toIndex(in.GetValue())
	if err != nil {
		return nil, err
	}

	path, err := s.state.Path(index)
	if err != nil {
		return nil, toStatus(err)
	}

	list := &structpb.ListValue{Values: make([]*structpb.Value, len(path))}
	for i, node := range path {
		list.Values[i] = structpb.NewStringValue(crypto.EncodeHex(node))
	}

	return list, nil
}

func (s *Server) Update(_ context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	fields := in.GetFields()

	number, ok := fields[FieldIndex].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "missing index")
	}
	if number.NumberValue < 0 || number.NumberValue != math.Trunc(number.NumberValue) {
		return nil, status.Errorf(codes.InvalidArgument, "invalid index %v", number.NumberValue)
	}
	index, err := toIndex(uint64(number.NumberValue))
	if err != nil {
		return nil, err
	}

	var root []byte
	switch {
	case fields[FieldLeaf] != nil:
		leaf, err := crypto.DecodeHex(fields[FieldLeaf].GetStringValue())
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid leaf: %v", err)
		}
		root, err = s.state.Update(index, leaf)
		if err != nil {
			return nil, toStatus(err)
		}
	case fields[FieldValue] != nil:
		value, err := crypto.ParseValue(fields[FieldValue].GetStringValue())
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid value: %v", err)
		}
		root, err = s.state.UpdateValue(index, value)
		if err != nil {
			return nil, toStatus(err)
		}
	default:
		return nil, status.Error(codes.InvalidArgument, "either leaf or value is required")
	}

	return wrapperspb.Bytes(root), nil
}

func (s *Server) Rebuild(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	if err := s.state.Rebuild(); err != nil {
		return nil, toStatus(err)
	}

	root, err := s.state.Root()
	if err != nil {
		return nil, toStatus(err)
	}

	return wrapperspb.Bytes(root), nil
}

func toIndex(value uint64) (int, error) {
	if value > math.MaxInt32 {
		return 0, status.Error(codes.OutOfRange, fmt.Sprintf("%v: %d", merkle.ErrIndexOutOfRange, value))
	}

	return int(value), nil
}

func toStatus(err error) error {
	var hashErr *merkle.HashError

	switch {
	case errors.Is(err, service.ErrInconsistent):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, merkle.ErrIndexOutOfRange), errors.Is(err, storage.ErrOutOfRange):
		return status.Error(codes.OutOfRange, err.Error())
	case errors.Is(err, merkle.ErrTimeout):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.As(err, &hashErr) && hashErr.Kind == merkle.Malformed:
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, merkle.ErrHash):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, crypto.ErrNotInField):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrNoLeafHasher):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
