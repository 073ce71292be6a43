package nftoken

import (
	"encoding/hex"
	"errors"

	"github.com/ledgerflow/pathd/internal/core/amendment"
	"github.com/ledgerflow/pathd/internal/core/ledger/entry"
	"github.com/ledgerflow/pathd/internal/core/ledger/keylet"
	"github.com/ledgerflow/pathd/internal/core/tx"
	"github.com/ledgerflow/pathd/internal/core/tx/sle"
)

func init() {
	tx.Register(tx.TypeNFTokenCancelOffer, func() tx.Transaction {
		return &NFTokenCancelOffer{BaseTx: *tx.NewBaseTx(tx.TypeNFTokenCancelOffer, "")}
	})
}

// NFTokenCancelOffer cancels NFToken offers.
type NFTokenCancelOffer struct {
	tx.BaseTx

	// NFTokenOffers is the list of offer IDs to cancel (required)
	NFTokenOffers []string `json:"NFTokenOffers" xrpl:"NFTokenOffers"`
}

// NewNFTokenCancelOffer creates a new NFTokenCancelOffer transaction
func NewNFTokenCancelOffer(account string, offerIDs []string) *NFTokenCancelOffer {
	return &NFTokenCancelOffer{
		BaseTx:        *tx.NewBaseTx(tx.TypeNFTokenCancelOffer, account),
		NFTokenOffers: offerIDs,
	}
}

// TxType returns the transaction type
func (n *NFTokenCancelOffer) TxType() tx.Type {
	return tx.TypeNFTokenCancelOffer
}

// Validate validates the NFTokenCancelOffer transaction
// Reference: rippled NFTokenCancelOffer.cpp preflight
func (n *NFTokenCancelOffer) Validate() error {
	if err := n.BaseTx.Validate(); err != nil {
		return err
	}

	// Check flags - no flags are valid for NFTokenCancelOffer
	if n.GetFlags()&tfNFTokenCancelOfferMask != 0 {
		return errors.New("temINVALID_FLAG: invalid flags for NFTokenCancelOffer")
	}

	// Must have at least one offer ID
	if len(n.NFTokenOffers) == 0 {
		return errors.New("temMALFORMED: NFTokenOffers is required")
	}

	// Cannot exceed maximum offer count
	if len(n.NFTokenOffers) > maxTokenOfferCancelCount {
		return errors.New("temMALFORMED: NFTokenOffers exceeds maximum count")
	}

	// Check for duplicates
	seen := make(map[string]bool)
	for _, offerID := range n.NFTokenOffers {
		if seen[offerID] {
			return errors.New("temMALFORMED: duplicate offer ID in NFTokenOffers")
		}
		seen[offerID] = true
	}

	return nil
}

// Flatten returns a flat map of all transaction fields
func (n *NFTokenCancelOffer) Flatten() (map[string]any, error) {
	return tx.ReflectFlatten(n)
}

// RequiredAmendments returns the amendments required for this transaction type
func (n *NFTokenCancelOffer) RequiredAmendments() [][32]byte {
	return [][32]byte{amendment.FeatureNonFungibleTokensV1}
}

// Apply applies the NFTokenCancelOffer transaction to the ledger.
// Reference: rippled NFTokenCancelOffer.cpp doApply and preclaim
func (co *NFTokenCancelOffer) Apply(ctx *tx.ApplyContext) tx.Result {
	accountID := ctx.AccountID

	for _, offerIDHex := range co.NFTokenOffers {
		offerIDBytes, err := hex.DecodeString(offerIDHex)
		if err != nil || len(offerIDBytes) != 32 {
			continue
		}

		var offerKeyBytes [32]byte
		copy(offerKeyBytes[:], offerIDBytes)
		offerKey := keylet.Keylet{Type: entry.TypeNFTokenOffer, Key: offerKeyBytes}

		offerData, err := ctx.View.Read(offerKey)
		if err != nil || offerData == nil {
			continue
		}

		offer, err := sle.ParseNFTokenOffer(offerData)
		if err != nil {
			continue
		}

		// Check authorization to cancel
		isExpired := offer.Expiration != 0 && offer.Expiration <= ctx.Config.ParentCloseTime
		isOwner := offer.Owner == accountID
		isDestination := offer.HasDestination && offer.Destination == accountID

		if !isOwner && !isDestination && !isExpired {
			return tx.TecNO_PERMISSION
		}

		// Refund escrowed amount for buy offers
		if offer.Flags&lsfSellNFToken == 0 && offer.Amount > 0 {
			if offer.Owner == accountID {
				ctx.Account.Balance += offer.Amount
			} else {
				ownerKey := keylet.Account(offer.Owner)
				ownerData, err := ctx.View.Read(ownerKey)
				if err == nil && ownerData != nil {
					ownerAccount, err := sle.ParseAccountRoot(ownerData)
					if err == nil {
						ownerAccount.Balance += offer.Amount
						ownerUpdated, _ := sle.SerializeAccountRoot(ownerAccount)
						if ownerUpdated != nil {
							ctx.View.Update(ownerKey, ownerUpdated)
						}
					}
				}
			}
		}

		// Decrease owner count
		if offer.Owner == accountID {
			if ctx.Account.OwnerCount > 0 {
				ctx.Account.OwnerCount--
			}
		} else {
			ownerKey := keylet.Account(offer.Owner)
			ownerData, err := ctx.View.Read(ownerKey)
			if err == nil && ownerData != nil {
				ownerAccount, err := sle.ParseAccountRoot(ownerData)
				if err == nil && ownerAccount.OwnerCount > 0 {
					ownerAccount.OwnerCount--
					ownerUpdated, _ := sle.SerializeAccountRoot(ownerAccount)
					if ownerUpdated != nil {
						ctx.View.Update(ownerKey, ownerUpdated)
					}
				}
			}
		}

		// Delete the offer with proper directory cleanup
		deleteTokenOffer(ctx.View, offerKey)
	}

	return tx.TesSUCCESS
}
