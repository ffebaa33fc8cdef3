package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/frankonly/zkmerkle/crypto"
)

// ServiceName is the full gRPC name of the state service.
const ServiceName = "zkmerkle.State"

// Update request fields.
const (
	FieldIndex = "index"
	FieldLeaf  = "leaf"
	FieldValue = "value"
)

// StateServer is the server side of zkmerkle.State. Requests and responses are
// protobuf well-known types:
//
//	Root(Empty) BytesValue           current root
//	Leaf(UInt64Value) BytesValue     leaf at index
//	Path(UInt64Value) ListValue      authentication path as 0x hex strings
//	Update(Struct) BytesValue        new root; Struct holds "index" and
//	                                 either "leaf" (0x hex node) or "value"
//	                                 (raw value hashed into a leaf)
//	Rebuild(Empty) BytesValue        root after recomputing the tree
type StateServer interface {
	Root(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	Leaf(context.Context, *wrapperspb.UInt64Value) (*wrapperspb.BytesValue, error)
	Path(context.Context, *wrapperspb.UInt64Value) (*structpb.ListValue, error)
	Update(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	Rebuild(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
}

func RegisterStateServer(s grpc.ServiceRegistrar, srv StateServer) {
	s.RegisterService(&StateServiceDesc, srv)
}

var StateServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StateServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Root", Handler: rootHandler},
		{MethodName: "Leaf", Handler: leafHandler},
		{MethodName: "Path", Handler: pathHandler},
		{MethodName: "Update", Handler: updateHandler},
		{MethodName: "Rebuild", Handler: rebuildHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func rootHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StateServer).Root(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Root"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StateServer).Root(ctx, req.(*emptypb.Empty))
	})
}

func leafHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.UInt64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StateServer).Leaf(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Leaf"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StateServer).Leaf(ctx, req.(*wrapperspb.UInt64Value))
	})
}

func pathHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.UInt64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StateServer).Path(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Path"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StateServer).Path(ctx, req.(*wrapperspb.UInt64Value))
	})
}

func updateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StateServer).Update(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Update"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StateServer).Update(ctx, req.(*structpb.Struct))
	})
}

func rebuildHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StateServer).Rebuild(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Rebuild"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StateServer).Rebuild(ctx, req.(*emptypb.Empty))
	})
}

// StateClient is the client side of zkmerkle.State.
type StateClient struct {
	cc grpc.ClientConnInterface
}

func NewStateClient(cc grpc.ClientConnInterface) *StateClient {
	return &StateClient{cc: cc}
}

func (c *StateClient) Root(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Root", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StateClient) Leaf(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Leaf", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StateClient) Path(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Path", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StateClient) Update(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Update", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StateClient) Rebuild(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Rebuild", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRequest builds an Update request. Exactly one of leaf and value is
// used: a non-nil leaf replaces the node directly, otherwise value is hashed
// into a leaf by the server.
func UpdateRequest(index uint64, leaf []byte, value string) *structpb.Struct {
	fields := map[string]*structpb.Value{
		FieldIndex: structpb.NewNumberValue(float64(index)),
	}
	if leaf != nil {
		fields[FieldLeaf] = structpb.NewStringValue(crypto.EncodeHex(leaf))
	} else {
		fields[FieldValue] = structpb.NewStringValue(value)
	}

	return &structpb.Struct{Fields: fields}
}
