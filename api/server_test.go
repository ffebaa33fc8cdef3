package api

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/frankonly/zkmerkle/crypto"
	"github.com/frankonly/zkmerkle/merkle"
	"github.com/frankonly/zkmerkle/merkle/merkletest"
	"github.com/frankonly/zkmerkle/service"
	"github.com/frankonly/zkmerkle/storage"
)

func newClient(t *testing.T, hasher merkle.Hasher, cfg service.Config) *StateClient {
	t.Helper()
	r := require.New(t)

	tree, err := merkle.New(hasher, merkletest.Values(1, 5))
	r.NoError(err)

	svc, err := service.New(tree, storage.NewTreeStore(storage.NewMemory()), cfg, zaptest.NewLogger(t).Sugar())
	r.NoError(err)

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterStateServer(server, NewServer(svc))
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	r.NoError(err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewStateClient(conn)
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRootLeafPath(t *testing.T) {
	r := require.New(t)
	ctx := testContext(t)

	client := newClient(t, crypto.SHA256{}, service.Config{Oracle: crypto.NameSHA256})
	reference, err := merkle.New(crypto.SHA256{}, merkletest.Values(1, 5))
	r.NoError(err)

	root, err := client.Root(ctx, &emptypb.Empty{})
	r.NoError(err)
	r.Equal(reference.Root(), root.GetValue())

	leaf, err := client.Leaf(ctx, wrapperspb.UInt64(2))
	r.NoError(err)
	r.Equal(merkletest.Value(3), leaf.GetValue())

	path, err := client.Path(ctx, wrapperspb.UInt64(4))
	r.NoError(err)
	want, err := reference.Path(4)
	r.NoError(err)
	r.Len(path.GetValues(), len(want))
	for i, node := range want {
		r.Equal(crypto.EncodeHex(node), path.GetValues()[i].GetStringValue())
	}
}

func TestOutOfRange(t *testing.T) {
	r := require.New(t)
	ctx := testContext(t)

	client := newClient(t, crypto.SHA256{}, service.Config{Oracle: crypto.NameSHA256})

	_, err := client.Leaf(ctx, wrapperspb.UInt64(5))
	r.Equal(codes.OutOfRange, status.Code(err))

	_, err = client.Path(ctx, wrapperspb.UInt64(1<<40))
	r.Equal(codes.OutOfRange, status.Code(err))

	_, err = client.Update(ctx, UpdateRequest(9, merkletest.Value(1), ""))
	r.Equal(codes.OutOfRange, status.Code(err))
}

func TestUpdate(t *testing.T) {
	r := require.New(t)
	ctx := testContext(t)

	client := newClient(t, crypto.SHA256{}, service.Config{Oracle: crypto.NameSHA256, LeafHasher: crypto.SHA256{}})

	root, err := client.Update(ctx, UpdateRequest(1, merkletest.Value(42), ""))
	r.NoError(err)

	leaves := merkletest.Values(1, 5)
	leaves[1] = merkletest.Value(42)
	reference, err := merkle.New(crypto.SHA256{}, leaves)
	r.NoError(err)
	r.Equal(reference.Root(), root.GetValue())

	root, err = client.Update(ctx, UpdateRequest(3, nil, "100"))
	r.NoError(err)
	r.NoError(reference.Update(3, crypto.Hash(crypto.FieldValue(100))))
	r.Equal(reference.Root(), root.GetValue())

	leaf, err := client.Leaf(ctx, wrapperspb.UInt64(3))
	r.NoError(err)
	r.Equal(crypto.Hash(crypto.FieldValue(100)), leaf.GetValue())
}

func TestUpdateInvalid(t *testing.T) {
	r := require.New(t)
	ctx := testContext(t)

	client := newClient(t, crypto.SHA256{}, service.Config{Oracle: crypto.NameSHA256})

	_, err := client.Update(ctx, &structpb.Struct{})
	r.Equal(codes.InvalidArgument, status.Code(err))

	_, err = client.Update(ctx, &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldIndex: structpb.NewNumberValue(1.5),
		FieldLeaf:  structpb.NewStringValue("0x01"),
	}})
	r.Equal(codes.InvalidArgument, status.Code(err))

	_, err = client.Update(ctx, &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldIndex: structpb.NewNumberValue(1),
	}})
	r.Equal(codes.InvalidArgument, status.Code(err))

	_, err = client.Update(ctx, &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldIndex: structpb.NewNumberValue(1),
		FieldLeaf:  structpb.NewStringValue("zz"),
	}})
	r.Equal(codes.InvalidArgument, status.Code(err))

	_, err = client.Update(ctx, UpdateRequest(1, nil, "-3"))
	r.Equal(codes.InvalidArgument, status.Code(err))

	// no leaf hasher configured
	_, err = client.Update(ctx, UpdateRequest(1, nil, "3"))
	r.Equal(codes.FailedPrecondition, status.Code(err))
}

func TestHashFailures(t *testing.T) {
	r := require.New(t)
	ctx := testContext(t)

	hasher := &merkletest.Failing{Hasher: merkletest.Additive{}, FailAfter: -1, Kind: merkle.Timeout}
	client := newClient(t, hasher, service.Config{Oracle: "additive", Atomic: true})

	hasher.Arm(0)
	_, err := client.Update(ctx, UpdateRequest(0, merkletest.Value(7), ""))
	r.Equal(codes.DeadlineExceeded, status.Code(err))

	hasher.Kind = merkle.Unavailable
	hasher.Arm(0)
	_, err = client.Update(ctx, UpdateRequest(0, merkletest.Value(7), ""))
	r.Equal(codes.Unavailable, status.Code(err))

	// atomic updates keep the tree usable
	_, err = client.Root(ctx, &emptypb.Empty{})
	r.NoError(err)
}

func TestInconsistent(t *testing.T) {
	r := require.New(t)
	ctx := testContext(t)

	hasher := &merkletest.Failing{Hasher: merkletest.Additive{}, FailAfter: -1}
	client := newClient(t, hasher, service.Config{Oracle: "additive"})

	hasher.Arm(1)
	_, err := client.Update(ctx, UpdateRequest(0, merkletest.Value(7), ""))
	r.Equal(codes.Unavailable, status.Code(err))

	_, err = client.Root(ctx, &emptypb.Empty{})
	r.Equal(codes.Unavailable, status.Code(err))

	hasher.Arm(-1)
	root, err := client.Rebuild(ctx, &emptypb.Empty{})
	r.NoError(err)

	leaves := merkletest.Values(1, 5)
	leaves[0] = merkletest.Value(7)
	reference, err := merkle.New(merkletest.Additive{}, leaves)
	r.NoError(err)
	r.Equal(reference.Root(), root.GetValue())

	current, err := client.Root(ctx, &emptypb.Empty{})
	r.NoError(err)
	r.Equal(root.GetValue(), current.GetValue())
}

func TestUpdateOutOfField(t *testing.T) {
	r := require.New(t)
	ctx := testContext(t)

	client := newClient(t, crypto.MiMC{}, service.Config{Oracle: crypto.NameMiMC})
	before, err := client.Root(ctx, &emptypb.Empty{})
	r.NoError(err)

	_, err = client.Update(ctx, UpdateRequest(2, bytes.Repeat([]byte{0xff}, 32), ""))
	r.Equal(codes.InvalidArgument, status.Code(err))

	after, err := client.Root(ctx, &emptypb.Empty{})
	r.NoError(err)
	r.Equal(before.GetValue(), after.GetValue())

	_, err = client.Update(ctx, UpdateRequest(2, merkletest.Value(9), ""))
	r.NoError(err)
}
