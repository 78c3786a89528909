package order

import "github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"

// RegisterHints registers the fixed routing hints of the Mapper and the Service operations.
func RegisterHints(registry *routing.HintRegistry) *routing.HintRegistry {
	return registry.
		ForOperation(MapperUnit, OpSelectByID, routing.HintForceRead).
		ForOperation(MapperUnit, OpSelectByOrderNo, routing.HintForceRead).
		ForOperation(MapperUnit, OpBatchInsert, routing.HintForceWrite).
		ForOperation(MapperUnit, OpBatchDelete, routing.HintForceWrite).
		ForOperation(ServiceUnit, OpGetOrderByID, routing.HintForceRead).
		ForOperation(ServiceUnit, OpGetOrderByOrderNo, routing.HintForceRead).
		ForOperation(ServiceUnit, OpCreateOrder, routing.HintForceWrite).
		ForOperation(ServiceUnit, OpUpdateOrder, routing.HintForceWrite).
		ForOperation(ServiceUnit, OpDeleteOrder, routing.HintForceWrite).
		ForOperation(ServiceUnit, OpPayOrder, routing.HintForceWrite).
		ForOperation(ServiceUnit, OpBatchCreateOrders, routing.HintForceWrite).
		ForOperation(ServiceUnit, OpBatchDeleteOrders, routing.HintForceWrite)
}
