package blocklogv1

import (
	"context"

	"google.golang.org/grpc"
)

// CursorServiceName is the fully qualified gRPC service name.
const CursorServiceName = "blocklog.v1.CursorService"

const (
	CursorService_Load_FullMethodName = "/" + CursorServiceName + "/Load"
	CursorService_Init_FullMethodName = "/" + CursorServiceName + "/Init"
	CursorService_Save_FullMethodName = "/" + CursorServiceName + "/Save"
	CursorService_List_FullMethodName = "/" + CursorServiceName + "/List"
)

// Cursor mirrors the stored cursor document.
type Cursor struct {
	Offset      uint64 `json:"offset"`
	EpochMicros uint64 `json:"epoch_us"`
	Writer      string `json:"writer"`
}

type LoadCursorRequest struct {
	Name string `json:"name"`
}

type InitCursorRequest struct {
	Name   string `json:"name"`
	Cursor Cursor `json:"cursor"`
}

// SaveCursorRequest overwrites a cursor if its blob still carries ETag.
type SaveCursorRequest struct {
	Name   string `json:"name"`
	Cursor Cursor `json:"cursor"`
	ETag   string `json:"etag"`
}

// CursorResponse is the cursor as stored plus the ETag needed to save it.
type CursorResponse struct {
	Name   string `json:"name"`
	Cursor Cursor `json:"cursor"`
	ETag   string `json:"etag"`
}

type ListCursorsRequest struct{}

type ListCursorsResponse struct {
	Names []string `json:"names"`
}

// CursorServiceServer is the server API for CursorService.
type CursorServiceServer interface {
	Load(context.Context, *LoadCursorRequest) (*CursorResponse, error)
	Init(context.Context, *InitCursorRequest) (*CursorResponse, error)
	Save(context.Context, *SaveCursorRequest) (*CursorResponse, error)
	List(context.Context, *ListCursorsRequest) (*ListCursorsResponse, error)
}

// RegisterCursorServiceServer registers srv on s.
func RegisterCursorServiceServer(s grpc.ServiceRegistrar, srv CursorServiceServer) {
	s.RegisterService(&CursorService_ServiceDesc, srv)
}

func unaryHandler[Req any, Resp any](method string, call func(CursorServiceServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CursorServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CursorServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CursorService_ServiceDesc describes CursorService for grpc.Server.
var CursorService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: CursorServiceName,
	HandlerType: (*CursorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Load", Handler: unaryHandler(CursorService_Load_FullMethodName, CursorServiceServer.Load)},
		{MethodName: "Init", Handler: unaryHandler(CursorService_Init_FullMethodName, CursorServiceServer.Init)},
		{MethodName: "Save", Handler: unaryHandler(CursorService_Save_FullMethodName, CursorServiceServer.Save)},
		{MethodName: "List", Handler: unaryHandler(CursorService_List_FullMethodName, CursorServiceServer.List)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "blocklog/v1/cursor.json",
}

// CursorServiceClient is the client API for CursorService.
type CursorServiceClient interface {
	Load(ctx context.Context, in *LoadCursorRequest, opts ...grpc.CallOption) (*CursorResponse, error)
	Init(ctx context.Context, in *InitCursorRequest, opts ...grpc.CallOption) (*CursorResponse, error)
	Save(ctx context.Context, in *SaveCursorRequest, opts ...grpc.CallOption) (*CursorResponse, error)
	List(ctx context.Context, in *ListCursorsRequest, opts ...grpc.CallOption) (*ListCursorsResponse, error)
}

type cursorServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCursorServiceClient returns a client that always selects the JSON codec.
func NewCursorServiceClient(cc grpc.ClientConnInterface) CursorServiceClient {
	return &cursorServiceClient{cc: cc}
}

func (c *cursorServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *cursorServiceClient) Load(ctx context.Context, in *LoadCursorRequest, opts ...grpc.CallOption) (*CursorResponse, error) {
	out := new(CursorResponse)
	if err := c.invoke(ctx, CursorService_Load_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cursorServiceClient) Init(ctx context.Context, in *InitCursorRequest, opts ...grpc.CallOption) (*CursorResponse, error) {
	out := new(CursorResponse)
	if err := c.invoke(ctx, CursorService_Init_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cursorServiceClient) Save(ctx context.Context, in *SaveCursorRequest, opts ...grpc.CallOption) (*CursorResponse, error) {
	out := new(CursorResponse)
	if err := c.invoke(ctx, CursorService_Save_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cursorServiceClient) List(ctx context.Context, in *ListCursorsRequest, opts ...grpc.CallOption) (*ListCursorsResponse, error) {
	out := new(ListCursorsResponse)
	if err := c.invoke(ctx, CursorService_List_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
