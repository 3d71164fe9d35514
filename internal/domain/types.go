package domain

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventKind represents the kind of ledger event
type EventKind string

const (
	EventKindRegistered EventKind = "registered"
	EventKindListed     EventKind = "listed"
	EventKindUnlisted   EventKind = "unlisted"
	EventKindSold       EventKind = "sold"
)

// IsValidEventKind checks if an event kind is known to the ledger
func IsValidEventKind(kind EventKind) bool {
	return kind == EventKindRegistered ||
		kind == EventKindListed ||
		kind == EventKindUnlisted ||
		kind == EventKindSold
}

// PaymentPolicy decides whether an attached payment satisfies a listing price
type PaymentPolicy string

const (
	// PaymentPolicyExact accepts only a payment equal to the listed price
	PaymentPolicyExact PaymentPolicy = "exact"
	// PaymentPolicyRefundOverpayment accepts payment >= price and moves only the price;
	// the excess never leaves the buyer's account
	PaymentPolicyRefundOverpayment PaymentPolicy = "refund_overpayment"
)

// IsValidPaymentPolicy checks if a payment policy is supported
func IsValidPaymentPolicy(policy PaymentPolicy) bool {
	return policy == PaymentPolicyExact || policy == PaymentPolicyRefundOverpayment
}

// Accepts reports whether payment satisfies price under the policy
func (p PaymentPolicy) Accepts(payment, price *big.Int) bool {
	if payment == nil || price == nil || price.Sign() <= 0 {
		return false
	}

	switch p {
	case PaymentPolicyRefundOverpayment:
		return payment.Cmp(price) >= 0
	default:
		return payment.Cmp(price) == 0
	}
}

// Property is the materialized current state of a registered asset
type Property struct {
	ID           uint64    `json:"id"`
	Owner        string    `json:"owner"`
	OwnerName    string    `json:"owner_name"`
	Location     string    `json:"location"`
	DocumentHash string    `json:"document_hash"`
	Price        *big.Int  `json:"price"`
	IsForSale    bool      `json:"is_for_sale"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Event is an immutable record of a committed ledger transition
type Event struct {
	Sequence   uint64    `json:"sequence"`
	Kind       EventKind `json:"kind"`
	PropertyID uint64    `json:"property_id"`
	Owner      *string   `json:"owner,omitempty"`
	Seller     *string   `json:"seller,omitempty"`
	Buyer      *string   `json:"buyer,omitempty"`
	Price      *big.Int  `json:"price,omitempty"`
	Location   *string   `json:"location,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	PrevHash   string    `json:"prev_hash"`
	Hash       string    `json:"hash"`
}

// Sale describes the outcome of a successful purchase
type Sale struct {
	Property Property `json:"property"`
	Event    Event    `json:"event"`
	Price    *big.Int `json:"price"`
	Refunded *big.Int `json:"refunded"`
}

// Account holds the native-currency balance of an identity
type Account struct {
	Address string   `json:"address"`
	Balance *big.Int `json:"balance"`
	Frozen  bool     `json:"frozen"`
}

// ChainVerification is the result of walking the event hash chain
type ChainVerification struct {
	Valid         bool    `json:"valid"`
	EventsChecked uint64  `json:"events_checked"`
	HeadSequence  uint64  `json:"head_sequence"`
	HeadHash      string  `json:"head_hash"`
	BrokenAt      *uint64 `json:"broken_at,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}

// LedgerInfo identifies a ledger instance and its current head
type LedgerInfo struct {
	InstanceID    string `json:"instance_id"`
	PropertyCount uint64 `json:"property_count"`
	HeadSequence  uint64 `json:"head_sequence"`
	HeadHash      string `json:"head_hash"`
	PaymentPolicy string `json:"payment_policy"`
}

// NormalizeAddress validates an identity address and returns its checksummed form
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return "", Wrap(ErrInvalidAddress, address)
	}

	addr := common.HexToAddress(address)
	if addr == (common.Address{}) {
		return "", Wrap(ErrInvalidAddress, "zero address")
	}

	return addr.Hex(), nil
}

// SameAddress compares two addresses regardless of checksum casing
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
