package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// OrderRepositoryClient — клиент сервиса orderdal.v1.OrderRepository.
type OrderRepositoryClient struct {
	cc grpc.ClientConnInterface
}

// NewOrderRepositoryClient создаёт клиента поверх соединения.
func NewOrderRepositoryClient(cc grpc.ClientConnInterface) *OrderRepositoryClient {
	return &OrderRepositoryClient{cc: cc}
}

func (c *OrderRepositoryClient) GetAll(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(MethodGetAll), &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderRepositoryClient) GetAllInfo(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(MethodGetAllInfo), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderRepositoryClient) GetByID(ctx context.Context, id int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.byID(ctx, MethodGetByID, id, opts...)
}

func (c *OrderRepositoryClient) GetByCustomer(ctx context.Context, customerID int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.byID(ctx, MethodGetByCustomer, customerID, opts...)
}

func (c *OrderRepositoryClient) GetByProduct(ctx context.Context, productID int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.byID(ctx, MethodGetByProduct, productID, opts...)
}

func (c *OrderRepositoryClient) Insert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(MethodInsert), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderRepositoryClient) Update(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(MethodUpdate), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderRepositoryClient) Delete(ctx context.Context, id int64, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, fullMethod(MethodDelete), wrapperspb.Int64(id), &emptypb.Empty{}, opts...)
}

func (c *OrderRepositoryClient) byID(ctx context.Context, method string, id int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), wrapperspb.Int64(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
