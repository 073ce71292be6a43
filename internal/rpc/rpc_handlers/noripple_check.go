package rpc_handlers

import (
	"encoding/json"
	"fmt"

	"github.com/ledgerflow/pathd/internal/rpc/rpc_types"
)

// NoRippleCheckMethod handles the noripple_check RPC method
type NoRippleCheckMethod struct{}

func (m *NoRippleCheckMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		rpc_types.AccountParam
		rpc_types.LedgerSpecifier
		Role         string `json:"role,omitempty"` // "gateway" or "user"
		Transactions bool   `json:"transactions,omitempty"`
		Limit        uint32 `json:"limit,omitempty"`
	}

	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	if request.Account == "" {
		return nil, rpc_types.RpcErrorInvalidParams("Missing required parameter: account")
	}
	if request.Role != "" && request.Role != "gateway" && request.Role != "user" {
		return nil, rpc_types.RpcErrorInvalidParams("role must be \"gateway\" or \"user\"")
	}
	isGateway := request.Role == "gateway"

	if rpc_types.Services == nil || rpc_types.Services.Ledger == nil {
		return nil, rpc_types.RpcErrorInternal("Ledger service not available")
	}

	ledgerIndex := "validated"
	if request.LedgerIndex != "" {
		ledgerIndex = request.LedgerIndex.String()
	}

	limit := request.Limit
	if limit == 0 {
		limit = 300
	}

	result, err := rpc_types.Services.Ledger.GetAccountLines(request.Account, ledgerIndex, "", limit)
	if err != nil {
		return nil, rpc_types.RpcErrorActNotFound("Account not found: " + err.Error())
	}

	problems, transactions := analyzeNoRipple(request.Account, result.Lines, isGateway, request.Transactions)

	response := map[string]interface{}{
		"account":      request.Account,
		"problems":     problems,
		"ledger_hash":  FormatLedgerHash(result.LedgerHash),
		"ledger_index": result.LedgerIndex,
		"validated":    result.Validated,
	}
	if request.Transactions {
		response["transactions"] = transactions
	}

	return response, nil
}

func (m *NoRippleCheckMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

func (m *NoRippleCheckMethod) SupportedApiVersions() []int {
	return []int{rpc_types.ApiVersion1, rpc_types.ApiVersion2, rpc_types.ApiVersion3}
}

// analyzeNoRipple implements the two rules rippled's NoRippleCheck applies:
// a gateway should set no_ripple on every one of its trust lines (so
// balances it issues never ripple through it unexpectedly); a regular user
// should set no_ripple on a line whenever more than one line in the same
// currency would otherwise leave rippling open between them, per the same
// pass-through concern pathfinding.isNoRippleOut enforces during search.
func analyzeNoRipple(account string, lines []rpc_types.TrustLine, isGateway, wantTx bool) ([]string, []interface{}) {
	var problems []string
	var transactions []interface{}

	if isGateway {
		for _, l := range lines {
			if l.NoRipple {
				continue
			}
			problems = append(problems, fmt.Sprintf(
				"You should probably set the no ripple flag on your %s line to %s", l.Currency, l.Account))
			if wantTx {
				transactions = append(transactions, trustSetNoRippleTx(account, l, true))
			}
		}
		return problems, transactions
	}

	rippleableByCurrency := make(map[string][]rpc_types.TrustLine)
	for _, l := range lines {
		if l.NoRipple {
			continue
		}
		rippleableByCurrency[l.Currency] = append(rippleableByCurrency[l.Currency], l)
	}
	for currency, rippleable := range rippleableByCurrency {
		if len(rippleable) < 2 {
			continue
		}
		for _, l := range rippleable {
			problems = append(problems, fmt.Sprintf(
				"You should probably set the no ripple flag on your %s line to %s", currency, l.Account))
			if wantTx {
				transactions = append(transactions, trustSetNoRippleTx(account, l, false))
			}
		}
	}
	return problems, transactions
}

// trustSetNoRippleTx renders the unsigned TrustSet the caller would submit
// to fix one flagged line.
func trustSetNoRippleTx(account string, line rpc_types.TrustLine, isGateway bool) map[string]interface{} {
	flag := uint32(0x00020000) // tfSetNoRipple
	return map[string]interface{}{
		"TransactionType": "TrustSet",
		"Account":         account,
		"Flags":           flag,
		"LimitAmount": map[string]interface{}{
			"currency": line.Currency,
			"issuer":   line.Account,
			"value":    line.Limit,
		},
	}
}
