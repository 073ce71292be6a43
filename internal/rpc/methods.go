package rpc

import (
	"github.com/ledgerflow/pathd/internal/rpc/rpc_handlers"
)

// registerAllMethods registers the RPC methods this server answers:
// the read-only order-book and path-finding surface plus the json proxy
// method every rippled-style client expects to be able to call through.
// This function is called by NewServer to set up the method registry.
func (s *Server) registerAllMethods() {
	s.registry.Register("book_offers", &rpc_handlers.BookOffersMethod{})
	s.registry.Register("path_find", &rpc_handlers.PathFindMethod{})
	s.registry.Register("ripple_path_find", &rpc_handlers.RipplePathFindMethod{})
	s.registry.Register("noripple_check", &rpc_handlers.NoRippleCheckMethod{})
	s.registry.Register("json", &rpc_handlers.JsonMethod{})
}
