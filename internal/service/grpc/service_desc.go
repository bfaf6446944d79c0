package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName — полное имя gRPC-сервиса репозитория заказов.
const ServiceName = "orderdal.v1.OrderRepository"

// Имена методов сервиса.
const (
	MethodGetAll        = "GetAll"
	MethodGetAllInfo    = "GetAllInfo"
	MethodGetByID       = "GetByID"
	MethodGetByCustomer = "GetByCustomer"
	MethodGetByProduct  = "GetByProduct"
	MethodInsert        = "Insert"
	MethodUpdate        = "Update"
	MethodDelete        = "Delete"
)

// OrderRepositoryServer — серверная часть сервиса. Сообщения описаны
// well-known типами protobuf, поэтому генерация кода не требуется.
type OrderRepositoryServer interface {
	GetAll(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetAllInfo(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetByID(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	GetByCustomer(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	GetByProduct(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	Insert(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Update(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *wrapperspb.Int64Value) (*emptypb.Empty, error)
}

// RegisterOrderRepositoryServer регистрирует реализацию на gRPC-сервере.
func RegisterOrderRepositoryServer(s grpc.ServiceRegistrar, srv OrderRepositoryServer) {
	s.RegisterService(&OrderRepositoryServiceDesc, srv)
}

// OrderRepositoryServiceDesc описывает unary-методы сервиса.
var OrderRepositoryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderRepositoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodGetAll, func() *emptypb.Empty { return new(emptypb.Empty) },
			func(s OrderRepositoryServer, ctx context.Context, in *emptypb.Empty) (proto.Message, error) {
				return s.GetAll(ctx, in)
			}),
		unary(MethodGetAllInfo, func() *structpb.Struct { return new(structpb.Struct) },
			func(s OrderRepositoryServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
				return s.GetAllInfo(ctx, in)
			}),
		unary(MethodGetByID, newInt64Value,
			func(s OrderRepositoryServer, ctx context.Context, in *wrapperspb.Int64Value) (proto.Message, error) {
				return s.GetByID(ctx, in)
			}),
		unary(MethodGetByCustomer, newInt64Value,
			func(s OrderRepositoryServer, ctx context.Context, in *wrapperspb.Int64Value) (proto.Message, error) {
				return s.GetByCustomer(ctx, in)
			}),
		unary(MethodGetByProduct, newInt64Value,
			func(s OrderRepositoryServer, ctx context.Context, in *wrapperspb.Int64Value) (proto.Message, error) {
				return s.GetByProduct(ctx, in)
			}),
		unary(MethodInsert, func() *structpb.Struct { return new(structpb.Struct) },
			func(s OrderRepositoryServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
				return s.Insert(ctx, in)
			}),
		unary(MethodUpdate, func() *structpb.Struct { return new(structpb.Struct) },
			func(s OrderRepositoryServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
				return s.Update(ctx, in)
			}),
		unary(MethodDelete, newInt64Value,
			func(s OrderRepositoryServer, ctx context.Context, in *wrapperspb.Int64Value) (proto.Message, error) {
				return s.Delete(ctx, in)
			}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orderdal/v1/order_repository.proto",
}

func newInt64Value() *wrapperspb.Int64Value { return new(wrapperspb.Int64Value) }

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unary строит MethodDesc так же, как это делает protoc-gen-go-grpc.
func unary[Req proto.Message](
	method string,
	newReq func() Req,
	call func(OrderRepositoryServer, context.Context, Req) (proto.Message, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(OrderRepositoryServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
