package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledgerflow/pathd/internal/config"
	"github.com/ledgerflow/pathd/internal/core/pathfinding"
	"github.com/ledgerflow/pathd/internal/core/tx/payment"
	"github.com/ledgerflow/pathd/internal/core/tx/sle"
	"github.com/ledgerflow/pathd/internal/di"
	"github.com/spf13/cobra"
)

const (
	pathFindSearchLevel = 3
	pathFindMaxPaths    = 4
)

// pathCmd groups commands that run the Pathfinder directly against the
// transaction engine's own ledger view and payment.RippleCalculate, rather
// than through the RPC query surface's trust-line headroom estimate.
var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Run the path finder against the transaction engine",
}

var pathFindCmdDirect = &cobra.Command{
	Use:   "find <source_account> <destination_account> <destination_amount>",
	Short: "Find payment paths settled through payment.RippleCalculate",
	Long: `find runs the same path discovery pipeline ripple_path_find exposes over
RPC, but against the node's own validated ledger and payment.RippleCalculate
rather than the RPC query surface's trust-line headroom estimate.

destination_amount is either a drop count for a native-currency payment, or
value/currency/issuer for an issued currency (e.g. 10/USD/rAccountAddress).`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPathFind(args[0], args[1], args[2])
	},
}

func init() {
	pathCmd.AddCommand(pathFindCmdDirect)
	rootCmd.AddCommand(pathCmd)
}

func runPathFind(srcArg, dstArg, amountArg string) error {
	cfg, err := config.LoadDefaultConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	container := di.New()
	provider := di.NewProvider(container, cfg)
	if err := provider.RegisterAll(); err != nil {
		return fmt.Errorf("register services: %w", err)
	}
	ledgerSvc, err := provider.GetLedgerService()
	if err != nil {
		return fmt.Errorf("ledger service: %w", err)
	}

	snapshot := ledgerSvc.GetValidatedLedger()
	if snapshot == nil {
		return fmt.Errorf("no validated ledger available")
	}

	srcAccount, err := sle.DecodeAccountID(srcArg)
	if err != nil {
		return fmt.Errorf("invalid source_account: %w", err)
	}
	dstAccount, err := sle.DecodeAccountID(dstArg)
	if err != nil {
		return fmt.Errorf("invalid destination_account: %w", err)
	}
	dstAmount, err := parsePathAmount(amountArg)
	if err != nil {
		return fmt.Errorf("invalid destination_amount: %w", err)
	}

	view := pathfinding.NewServiceLedgerView(ledgerSvc, "validated")
	cache := pathfinding.NewLineCache()
	oracle := pathfinding.NewFlowOracle(snapshot, snapshot.Sequence())

	req := pathfinding.PathRequest{
		SrcAccount: srcAccount,
		DstAccount: dstAccount,
		DstAmount:  dstAmount,
	}

	pf := pathfinding.NewPathfinder(cache, view, oracle, nil, req)

	if _, err := pf.FindPaths(pathFindSearchLevel); err != nil {
		return err
	}
	if err := pf.ComputeRanks(pathFindMaxPaths); err != nil {
		return err
	}
	best, err := pf.BestPaths(pathFindMaxPaths, nil)
	if err != nil {
		return err
	}

	alternatives := make([]interface{}, 0, len(best.Paths))
	for _, p := range best.Paths {
		alternatives = append(alternatives, pathToJSON(p))
	}

	result := map[string]interface{}{
		"source_account":      srcArg,
		"destination_account": dstArg,
		"ledger_index":        snapshot.Sequence(),
		"alternatives":        alternatives,
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// parsePathAmount accepts a bare drop count for a native-currency amount, or
// value/currency/issuer for an issued one.
func parsePathAmount(arg string) (payment.EitherAmount, error) {
	parts := strings.Split(arg, "/")
	if len(parts) == 1 {
		drops, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return payment.EitherAmount{}, fmt.Errorf("not a drop count: %w", err)
		}
		return payment.NewXRPEitherAmount(drops), nil
	}
	if len(parts) != 3 {
		return payment.EitherAmount{}, fmt.Errorf("expected value/currency/issuer, got %q", arg)
	}
	value, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return payment.EitherAmount{}, err
	}
	return payment.NewIOUEitherAmount(sle.NewIssuedAmountFromFloat64(value, parts[1], parts[2])), nil
}

// pathToJSON renders one selected Path in the same paths_computed shape
// ripple_path_find uses. The source and destination elements are implicit
// in the request, so only the middle hops become path steps.
func pathToJSON(p pathfinding.Path) map[string]interface{} {
	var steps []interface{}
	for _, el := range p[1 : len(p)-1] {
		step := map[string]interface{}{}
		if el.IsBook {
			step["currency"] = el.Issue.Currency
			if !el.Issue.IsXRP() {
				if issuer, err := sle.EncodeAccountID(el.Issue.Issuer); err == nil {
					step["issuer"] = issuer
				}
			}
			step["type"] = 48
		} else {
			if addr, err := sle.EncodeAccountID(el.Account); err == nil {
				step["account"] = addr
			}
			step["type"] = 1
		}
		steps = append(steps, step)
	}
	return map[string]interface{}{"paths_computed": steps}
}
