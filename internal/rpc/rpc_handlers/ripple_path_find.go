package rpc_handlers

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/ledgerflow/pathd/internal/core/pathfinding"
	"github.com/ledgerflow/pathd/internal/core/tx/payment"
	"github.com/ledgerflow/pathd/internal/core/tx/sle"
	"github.com/ledgerflow/pathd/internal/rpc/rpc_types"
)

// pathfindRegistrar is shared across every ripple_path_find call this node
// serves, tracking per-phase timing the way a single metrics.ResourceManager
// tracks every peer's resource charge.
var pathfindRegistrar = pathfinding.NewLoadEventRegistrar()

const (
	defaultPathSearchLevel = 3
	defaultMaxPaths        = 4
)

// RipplePathFindMethod handles the ripple_path_find RPC method
type RipplePathFindMethod struct{}

func (m *RipplePathFindMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		SourceAccount      string            `json:"source_account"`
		DestinationAccount string            `json:"destination_account"`
		DestinationAmount  json.RawMessage   `json:"destination_amount"`
		SendMax            json.RawMessage   `json:"send_max,omitempty"`
		SourceCurrencies   []json.RawMessage `json:"source_currencies,omitempty"`
		rpc_types.LedgerSpecifier
	}

	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	if request.SourceAccount == "" || request.DestinationAccount == "" {
		return nil, rpc_types.RpcErrorInvalidParams("source_account and destination_account are required")
	}
	if len(request.DestinationAmount) == 0 {
		return nil, rpc_types.RpcErrorInvalidParams("destination_amount is required")
	}

	if rpc_types.Services == nil || rpc_types.Services.Ledger == nil {
		return nil, rpc_types.RpcErrorInternal("Ledger service not available")
	}

	srcAccount, err := sle.DecodeAccountID(request.SourceAccount)
	if err != nil {
		return nil, rpc_types.RpcErrorInvalidParams("Invalid source_account: " + err.Error())
	}
	dstAccount, err := sle.DecodeAccountID(request.DestinationAccount)
	if err != nil {
		return nil, rpc_types.RpcErrorInvalidParams("Invalid destination_account: " + err.Error())
	}

	dstAmountParsed, err := ParseAmountFromJSON(request.DestinationAmount)
	if err != nil {
		return nil, rpc_types.RpcErrorInvalidParams("Invalid destination_amount: " + err.Error())
	}
	dstAmount, err := eitherAmountFromRPCAmount(dstAmountParsed)
	if err != nil {
		return nil, rpc_types.RpcErrorInvalidParams("Invalid destination_amount: " + err.Error())
	}

	ledgerIndex := "validated"
	if request.LedgerIndex != "" {
		ledgerIndex = request.LedgerIndex.String()
	}

	view := newRPCLedgerViewFor(ledgerIndex, dstAmount)
	cache := pathfinding.NewLineCache()
	oracle := pathfinding.NewRPCFlowOracle(view.LinesFn)

	req := pathfinding.PathRequest{
		SrcAccount: srcAccount,
		DstAccount: dstAccount,
		DstAmount:  dstAmount,
	}

	pf := pathfinding.NewPathfinder(cache, view, oracle, pathfindRegistrar, req)

	found, err := pf.FindPaths(defaultPathSearchLevel)
	if err != nil {
		return nil, pathfindErrorToRPC(err)
	}

	alternatives := []interface{}{}
	if found {
		if err := pf.ComputeRanks(defaultMaxPaths); err != nil {
			return nil, pathfindErrorToRPC(err)
		}
		best, err := pf.BestPaths(defaultMaxPaths, nil)
		if err != nil {
			return nil, pathfindErrorToRPC(err)
		}
		for _, p := range best.Paths {
			alternatives = append(alternatives, pathToAlternative(p, request.DestinationAmount))
		}
	}

	response := map[string]interface{}{
		"source_account":      request.SourceAccount,
		"destination_account": request.DestinationAccount,
		"destination_amount":  request.DestinationAmount,
		"alternatives":        alternatives,
		"full_reply":          true,
	}
	return response, nil
}

func (m *RipplePathFindMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

func (m *RipplePathFindMethod) SupportedApiVersions() []int {
	return []int{rpc_types.ApiVersion1, rpc_types.ApiVersion2, rpc_types.ApiVersion3}
}

// pathToAlternative renders one selected Path in ripple_path_find's
// paths_computed shape. The source and destination elements are implicit,
// so only the middle hops become path steps.
func pathToAlternative(p pathfinding.Path, dstAmountJSON json.RawMessage) map[string]interface{} {
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
	return map[string]interface{}{
		"paths_computed": []interface{}{steps},
		"source_amount":  dstAmountJSON,
	}
}

// eitherAmountFromRPCAmount converts a parsed rpc_types.Amount into the
// payment.EitherAmount the pathfinding package's PathRequest expects.
func eitherAmountFromRPCAmount(amt rpc_types.Amount) (payment.EitherAmount, error) {
	if amt.Currency == "" && amt.Issuer == "" {
		drops, err := strconv.ParseInt(amt.Value, 10, 64)
		if err != nil {
			return payment.EitherAmount{}, err
		}
		return payment.NewXRPEitherAmount(drops), nil
	}
	value, err := strconv.ParseFloat(amt.Value, 64)
	if err != nil {
		return payment.EitherAmount{}, err
	}
	return payment.NewIOUEitherAmount(sle.NewIssuedAmountFromFloat64(value, amt.Currency, amt.Issuer)), nil
}

// newRPCLedgerViewFor builds the LedgerView the pathfinder runs against,
// over the node's shared rpc.Services.Ledger, restricted to probing the
// native and destination order books per pathfinding.LedgerView's BooksFor
// contract.
func newRPCLedgerViewFor(ledgerIndex string, dstAmount payment.EitherAmount) *pathfinding.RPCLedgerView {
	dst := pathfinding.NativeIssue()
	if !dstAmount.IsNative {
		if issuer, err := sle.DecodeAccountID(dstAmount.IOU.Issuer); err == nil {
			dst = pathfinding.NewIssue(dstAmount.IOU.Currency, issuer)
		}
	}
	candidates := []pathfinding.Issue{pathfinding.NativeIssue()}
	if !dst.IsXRP() {
		candidates = append(candidates, dst)
	}

	return &pathfinding.RPCLedgerView{
		AccountExistsFn: func(_ context.Context, addr string) (bool, error) {
			if _, err := rpc_types.Services.Ledger.GetAccountInfo(addr, ledgerIndex); err != nil {
				return false, nil
			}
			return true, nil
		},
		LinesFn: func(_ context.Context, addr string) ([]pathfinding.TrustLine, error) {
			result, err := rpc_types.Services.Ledger.GetAccountLines(addr, ledgerIndex, "", 0)
			if err != nil {
				return nil, nil
			}
			lines := make([]pathfinding.TrustLine, 0, len(result.Lines))
			for _, l := range result.Lines {
				line, err := pathfinding.NewTrustLineFromDecimal(l.Account, l.Currency, l.Limit, l.Balance, l.NoRipple, l.Authorized, l.Freeze)
				if err != nil {
					continue
				}
				lines = append(lines, line)
			}
			return lines, nil
		},
		BooksFn: func(_ context.Context, issueIn pathfinding.Issue) ([]pathfinding.Issue, error) {
			gets := rpcAmountForIssue(issueIn)
			var out []pathfinding.Issue
			for _, candidate := range candidates {
				if candidate == issueIn {
					continue
				}
				pays := rpcAmountForIssue(candidate)
				result, err := rpc_types.Services.Ledger.GetBookOffers(gets, pays, ledgerIndex, 1)
				if err != nil {
					continue
				}
				if len(result.Offers) > 0 {
					out = append(out, candidate)
				}
			}
			return out, nil
		},
	}
}

func rpcAmountForIssue(issue pathfinding.Issue) rpc_types.Amount {
	if issue.IsXRP() {
		return rpc_types.Amount{}
	}
	issuer, _ := sle.EncodeAccountID(issue.Issuer)
	return rpc_types.Amount{Currency: issue.Currency, Issuer: issuer}
}

// pathfindErrorToRPC maps a pathfinding.PathfindError onto a stable RPC
// error code per SPEC_FULL.md's error table; any other error becomes an
// internal error.
func pathfindErrorToRPC(err error) *rpc_types.RpcError {
	pfErr, ok := err.(*pathfinding.PathfindError)
	if !ok {
		return rpc_types.RpcErrorInternal(err.Error())
	}
	switch pfErr.Kind {
	case pathfinding.ErrInvalidSource:
		return rpc_types.RpcErrorActNotFound("Source account not found: " + pfErr.Message)
	case pathfinding.ErrInvalidDestination:
		return rpc_types.RpcErrorActNotFound("Destination account not found: " + pfErr.Message)
	case pathfinding.ErrMalformedCurrency:
		return rpc_types.RpcErrorInvalidParams(pfErr.Message)
	default:
		return rpc_types.RpcErrorInternal(pfErr.Message)
	}
}
