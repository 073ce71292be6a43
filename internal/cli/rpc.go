package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ledgerflow/pathd/internal/config"
	"github.com/ledgerflow/pathd/internal/di"
	"github.com/ledgerflow/pathd/internal/rpc"
	"github.com/spf13/cobra"
)

// rpcCmd represents the rpc command group
var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "RPC client commands",
	Long:  `Execute RPC commands locally by calling the same handlers used by the server.`,
}

func init() {
	rootCmd.AddCommand(rpcCmd)
}

// methodRegistry holds all available RPC methods
var methodRegistry *rpc.MethodRegistry

// initMethodRegistry initializes the method registry with all available methods
func initMethodRegistry() *rpc.MethodRegistry {
	if methodRegistry != nil {
		return methodRegistry
	}

	installCLIServices()

	registry := rpc.NewMethodRegistry()
	registry.Register("book_offers", &rpc.BookOffersMethod{})
	registry.Register("path_find", &rpc.PathFindMethod{})
	registry.Register("ripple_path_find", &rpc.RipplePathFindMethod{})
	registry.Register("noripple_check", &rpc.NoRippleCheckMethod{})
	registry.Register("json", &rpc.JsonMethod{})

	methodRegistry = registry
	return registry
}

// installCLIServices loads the node's config and wires its ledger service
// into rpc_types.Services, the same way runServer does, so handlers called
// directly by these commands can reach a live ledger. A failure here just
// leaves the handlers to report "Ledger service not available" rather than
// aborting the command.
func installCLIServices() {
	cfg, err := config.LoadDefaultConfig()
	if err != nil {
		return
	}

	container := di.New()
	provider := di.NewProvider(container, cfg)
	if err := provider.RegisterAll(); err != nil {
		return
	}
	ledgerSvc, err := provider.GetLedgerService()
	if err != nil {
		return
	}

	rpc.NewServer(0).InstallServices(ledgerSvc)
}

// executeMethod calls an RPC method handler directly
func executeMethod(method string, params interface{}) error {
	registry := initMethodRegistry()

	handler, exists := registry.Get(method)
	if !exists {
		return fmt.Errorf("unknown method: %s", method)
	}

	// Create RPC context (CLI runs as admin role)
	rpcCtx := &rpc.RpcContext{
		Context:    context.Background(),
		Role:       rpc.RoleAdmin,
		ApiVersion: rpc.DefaultApiVersion,
		IsAdmin:    true,
		ClientIP:   "127.0.0.1", // Local CLI
	}

	// Marshal params to JSON if provided
	var paramBytes json.RawMessage
	if params != nil {
		bytes, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal parameters: %w", err)
		}
		paramBytes = json.RawMessage(bytes)
	}

	// Call the method handler directly
	result, rpcErr := handler.Handle(rpcCtx, paramBytes)
	if rpcErr != nil {
		return fmt.Errorf("RPC error [%d]: %s", rpcErr.Code, rpcErr.Message)
	}

	// Pretty print the result
	if result != nil {
		prettyJSON, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Printf("%+v\n", result)
			return nil
		}
		fmt.Println(string(prettyJSON))
	}

	return nil
}

// =============================================================================
// ORDER BOOK / PATH FINDING COMMANDS
// =============================================================================

var bookOffersCmd = &cobra.Command{
	Use:   "book_offers <taker_pays> <taker_gets> [ledger] [limit]",
	Short: "Get order book offers",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]interface{}{
			"taker_pays": args[0],
			"taker_gets": args[1],
		}

		if len(args) > 2 {
			params["ledger_index"] = args[2]
		}
		if len(args) > 3 {
			if limit, err := strconv.Atoi(args[3]); err == nil {
				params["limit"] = limit
			}
		}

		return executeMethod("book_offers", params)
	},
}

var pathFindCmd = &cobra.Command{
	Use:   "path_find <source_account> <destination_account> <destination_amount>",
	Short: "Find payment paths (WebSocket-only on the server; rejected here)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]interface{}{
			"source_account":      args[0],
			"destination_account": args[1],
			"destination_amount":  args[2],
		}
		return executeMethod("path_find", params)
	},
}

var ripplePathFindCmd = &cobra.Command{
	Use:   "ripple_path_find <json> [ledger]",
	Short: "Find payment paths (ripple format)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var pathRequest interface{}
		if err := json.Unmarshal([]byte(args[0]), &pathRequest); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}

		params := pathRequest
		if len(args) > 1 {
			// Convert to map to add ledger
			if paramsMap, ok := params.(map[string]interface{}); ok {
				paramsMap["ledger_index"] = args[1]
				params = paramsMap
			}
		}

		return executeMethod("ripple_path_find", params)
	},
}

var norippleCheckCmd = &cobra.Command{
	Use:   "noripple_check <account> [ledger]",
	Short: "Check NoRipple flag settings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]interface{}{
			"account": args[0],
		}
		if len(args) > 1 {
			params["ledger_index"] = args[1]
		}
		return executeMethod("noripple_check", params)
	},
}

// Generic JSON command for any method
var jsonCmd = &cobra.Command{
	Use:   "json <method> <json_params>",
	Short: "Execute any RPC method with JSON parameters",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		method := args[0]
		jsonParams := args[1]

		var params interface{}
		if err := json.Unmarshal([]byte(jsonParams), &params); err != nil {
			return fmt.Errorf("invalid JSON parameters: %w", err)
		}

		return executeMethod(method, params)
	},
}

func init() {
	rpcCmd.AddCommand(
		bookOffersCmd,
		pathFindCmd,
		ripplePathFindCmd,
		norippleCheckCmd,
		jsonCmd,
	)
}
