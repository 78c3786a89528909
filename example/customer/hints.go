package customer

import "github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"

// RegisterHints registers the fixed routing hints of the Mapper and the Service operations.
// Operations without a hint are routed by their names.
func RegisterHints(registry *routing.HintRegistry) *routing.HintRegistry {
	return registry.
		ForOperation(MapperUnit, OpSelectByID, routing.HintForceRead).
		ForOperation(MapperUnit, OpSelectByCustomerCode, routing.HintForceRead).
		ForOperation(MapperUnit, OpBatchInsert, routing.HintForceWrite).
		ForOperation(MapperUnit, OpBatchDelete, routing.HintForceWrite).
		ForOperation(ServiceUnit, OpGetCustomerByID, routing.HintForceRead).
		ForOperation(ServiceUnit, OpGetCustomerByCode, routing.HintForceRead).
		ForOperation(ServiceUnit, OpCreateCustomer, routing.HintForceWrite).
		ForOperation(ServiceUnit, OpUpdateCustomer, routing.HintForceWrite).
		ForOperation(ServiceUnit, OpDeleteCustomer, routing.HintForceWrite).
		ForOperation(ServiceUnit, OpBatchCreateCustomers, routing.HintForceWrite).
		ForOperation(ServiceUnit, OpBatchDeleteCustomers, routing.HintForceWrite).
		ForOperation(ServiceUnit, OpActivateCustomer, routing.HintForceWrite).
		ForOperation(ServiceUnit, OpDeactivateCustomer, routing.HintForceWrite)
}
