package rpc

import (
	"github.com/ledgerflow/pathd/internal/rpc/rpc_types"
)

// This package is the HTTP/WebSocket transport for the method handlers in
// rpc_handlers. Its context, error and registry types used to be a second,
// parallel copy of rpc_types' own — these aliases collapse that back to one
// type system, so a handler registered here and a handler registered
// directly against rpc_types (as every rpc_handlers method is) satisfy the
// same interface.
type (
	RpcContext          = rpc_types.RpcContext
	RpcError            = rpc_types.RpcError
	MethodHandler       = rpc_types.MethodHandler
	MethodRegistry      = rpc_types.MethodRegistry
	Role                = rpc_types.Role
	WarningObject       = rpc_types.WarningObject
	SubscriptionType    = rpc_types.SubscriptionType
	SubscriptionConfig  = rpc_types.SubscriptionConfig
	SubscriptionRequest = rpc_types.SubscriptionRequest
	SubscriptionManager = rpc_types.SubscriptionManager
	Connection          = rpc_types.Connection
	WebSocketCommand    = rpc_types.WebSocketCommand
	WebSocketResponse   = rpc_types.WebSocketResponse
	BookRequest         = rpc_types.BookRequest
	CurrencySpec        = rpc_types.CurrencySpec
)

const (
	RoleGuest      = rpc_types.RoleGuest
	RoleUser       = rpc_types.RoleUser
	RoleAdmin      = rpc_types.RoleAdmin
	RoleIdentified = rpc_types.RoleIdentified

	ApiVersion1       = rpc_types.ApiVersion1
	ApiVersion2       = rpc_types.ApiVersion2
	ApiVersion3       = rpc_types.ApiVersion3
	DefaultApiVersion = rpc_types.DefaultApiVersion

	RpcMISSING_COMMAND   = rpc_types.RpcMISSING_COMMAND
	RpcCOMMAND_UNTRUSTED = rpc_types.RpcCOMMAND_UNTRUSTED
	RpcNOT_SUPPORTED     = rpc_types.RpcNOT_SUPPORTED
	RpcINVALID_PARAMS    = rpc_types.RpcINVALID_PARAMS
)

func NewMethodRegistry() *MethodRegistry {
	return rpc_types.NewMethodRegistry()
}

func NewSubscriptionManager() *SubscriptionManager {
	return rpc_types.NewSubscriptionManager()
}

func NewRpcError(code int, errorString, errorType, message string) *RpcError {
	return rpc_types.NewRpcError(code, errorString, errorType, message)
}

func RpcErrorInvalidParams(message string) *RpcError {
	return rpc_types.RpcErrorInvalidParams(message)
}

func RpcErrorMethodNotFound(method string) *RpcError {
	return rpc_types.RpcErrorMethodNotFound(method)
}

func RpcErrorInvalidApiVersion(version string) *RpcError {
	return rpc_types.RpcErrorInvalidApiVersion(version)
}
