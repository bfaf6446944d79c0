package grpcsvc

import (
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vladislavdragonenkov/orderdal/internal/domain"
)

// Ключи полей в сообщениях structpb.
const (
	fieldID              = "id"
	fieldCustomerID      = "customer_id"
	fieldOrderDate       = "order_date"
	fieldOrders          = "orders"
	fieldStart           = "start"
	fieldPageSize        = "page_size"
	fieldOrderID         = "order_id"
	fieldCustomerName    = "customer_name"
	fieldTotalMinor      = "total_minor"
	fieldStatus          = "status"
	fieldHasShippedItems = "has_shipped_items"
)

// maxExactInt — наибольшее целое, которое structpb передаёт без потери точности.
const maxExactInt = 1 << 53

func orderFields(order domain.Order) map[string]any {
	return map[string]any{
		fieldID:         float64(order.ID),
		fieldCustomerID: float64(order.CustomerID),
		fieldOrderDate:  order.OrderDate.UTC().Format(time.RFC3339Nano),
	}
}

func infoFields(info domain.OrderInfo) map[string]any {
	return map[string]any{
		fieldOrderID:         float64(info.OrderID),
		fieldOrderDate:       info.OrderDate.UTC().Format(time.RFC3339Nano),
		fieldCustomerName:    info.CustomerName,
		fieldCustomerID:      float64(info.CustomerID),
		fieldTotalMinor:      float64(info.TotalMinor),
		fieldStatus:          info.Status,
		fieldHasShippedItems: info.HasShippedItems,
	}
}

func toProtoOrder(order domain.Order) (*structpb.Struct, error) {
	return structpb.NewStruct(orderFields(order))
}

func toProtoOrders(orders []domain.Order) (*structpb.Struct, error) {
	list := make([]any, 0, len(orders))
	for _, order := range orders {
		list = append(list, orderFields(order))
	}
	return structpb.NewStruct(map[string]any{fieldOrders: list})
}

func toProtoInfos(infos []domain.OrderInfo) (*structpb.Struct, error) {
	list := make([]any, 0, len(infos))
	for _, info := range infos {
		list = append(list, infoFields(info))
	}
	return structpb.NewStruct(map[string]any{fieldOrders: list})
}

// fromProtoOrder читает заказ из сообщения. Отсутствующие поля остаются нулевыми.
func fromProtoOrder(msg *structpb.Struct) (domain.Order, error) {
	var order domain.Order
	if msg == nil {
		return order, nil
	}
	fields := msg.GetFields()

	var err error
	if order.ID, err = intField(fields, fieldID); err != nil {
		return domain.Order{}, err
	}
	if order.CustomerID, err = intField(fields, fieldCustomerID); err != nil {
		return domain.Order{}, err
	}
	if v, ok := fields[fieldOrderDate]; ok {
		raw, isString := v.GetKind().(*structpb.Value_StringValue)
		if !isString {
			return domain.Order{}, fmt.Errorf("%s must be an RFC 3339 string", fieldOrderDate)
		}
		order.OrderDate, err = time.Parse(time.RFC3339Nano, raw.StringValue)
		if err != nil {
			return domain.Order{}, fmt.Errorf("%s: %w", fieldOrderDate, err)
		}
	}
	return order, nil
}

func pageFromProto(msg *structpb.Struct) (start, pageSize int, err error) {
	fields := msg.GetFields()
	s, err := intField(fields, fieldStart)
	if err != nil {
		return 0, 0, err
	}
	if _, ok := fields[fieldPageSize]; !ok {
		return int(s), domain.DefaultPageSize, nil
	}
	p, err := intField(fields, fieldPageSize)
	if err != nil {
		return 0, 0, err
	}
	return int(s), int(p), nil
}

func intField(fields map[string]*structpb.Value, key string) (int64, error) {
	v, ok := fields[key]
	if !ok {
		return 0, nil
	}
	num, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	f := num.NumberValue
	if f != math.Trunc(f) || math.Abs(f) > maxExactInt {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return int64(f), nil
}
