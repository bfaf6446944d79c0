// Package grpcsvc публикует репозиторий заказов по gRPC.
package grpcsvc

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/vladislavdragonenkov/orderdal/internal/domain"
)

// OrderService реализует gRPC API поверх репозитория заказов.
type OrderService struct {
	repo   domain.OrderDataProxy
	logger *log.Entry
}

// NewOrderService конструирует сервис с зависимостями.
func NewOrderService(repo domain.OrderDataProxy, logger *log.Entry) *OrderService {
	if logger == nil {
		logger = log.WithField("component", "grpc-order-service")
	}
	return &OrderService{repo: repo, logger: logger}
}

func (s *OrderService) GetAll(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	orders, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, s.toStatus(err, MethodGetAll)
	}
	return s.encode(toProtoOrders(orders))
}

// GetAllInfo ожидает поля start и page_size.
func (s *OrderService) GetAllInfo(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start, pageSize, err := pageFromProto(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	infos, err := s.repo.GetAllInfo(ctx, start, pageSize)
	if err != nil {
		return nil, s.toStatus(err, MethodGetAllInfo)
	}
	return s.encode(toProtoInfos(infos))
}

func (s *OrderService) GetByID(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	order, err := s.repo.GetByID(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(err, MethodGetByID)
	}
	return s.encode(toProtoOrder(order))
}

func (s *OrderService) GetByCustomer(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	orders, err := s.repo.GetByCustomer(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(err, MethodGetByCustomer)
	}
	return s.encode(toProtoOrders(orders))
}

func (s *OrderService) GetByProduct(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	orders, err := s.repo.GetByProduct(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(err, MethodGetByProduct)
	}
	return s.encode(toProtoOrders(orders))
}

// Insert игнорирует переданный id: репозиторий присваивает новый.
func (s *OrderService) Insert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	order, err := fromProtoOrder(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	order.ID = 0
	saved, err := s.repo.Insert(ctx, order)
	if err != nil {
		return nil, s.toStatus(err, MethodInsert)
	}
	return s.encode(toProtoOrder(saved))
}

func (s *OrderService) Update(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	order, err := fromProtoOrder(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if order.ID == 0 {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	saved, err := s.repo.Update(ctx, order)
	if err != nil {
		return nil, s.toStatus(err, MethodUpdate)
	}
	return s.encode(toProtoOrder(saved))
}

func (s *OrderService) Delete(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	if err := s.repo.Delete(ctx, req.GetValue()); err != nil {
		return nil, s.toStatus(err, MethodDelete)
	}
	return &emptypb.Empty{}, nil
}

func (s *OrderService) encode(msg *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		s.logger.WithError(err).Error("failed to encode response")
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return msg, nil
}

// toStatus переводит доменные ошибки в gRPC-коды.
func (s *OrderService) toStatus(err error, method string) error {
	switch {
	case domain.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.logger.WithError(err).WithField("method", method).Error("repository call failed")
		return status.Error(codes.Internal, "repository call failed")
	}
}

var _ OrderRepositoryServer = (*OrderService)(nil)
