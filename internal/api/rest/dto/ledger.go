package dto

import (
	"math/big"
	"time"

	"github.com/feral-file/chain-estates/internal/domain"
)

// Amounts are rendered twice: as a decimal ether string for people and as an exact wei string for programs.

// PropertyResponse represents a property in API responses
type PropertyResponse struct {
	ID           uint64    `json:"id"`
	Owner        string    `json:"owner"`
	OwnerName    string    `json:"owner_name"`
	Location     string    `json:"location"`
	DocumentHash string    `json:"document_hash"`
	Price        string    `json:"price"`
	PriceWei     string    `json:"price_wei"`
	IsForSale    bool      `json:"is_for_sale"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PropertyListResponse represents a page of properties
type PropertyListResponse struct {
	Properties []PropertyResponse `json:"properties"`
	Total      uint64             `json:"total"`
	Offset     *uint64            `json:"next_offset,omitempty"`
}

// PropertyCountResponse carries the number of registered properties
type PropertyCountResponse struct {
	Count uint64 `json:"count"`
}

// EventResponse represents a ledger event in API responses
type EventResponse struct {
	Sequence   uint64           `json:"sequence"`
	Kind       domain.EventKind `json:"kind"`
	PropertyID uint64           `json:"property_id"`
	Owner      *string          `json:"owner,omitempty"`
	Seller     *string          `json:"seller,omitempty"`
	Buyer      *string          `json:"buyer,omitempty"`
	Price      *string          `json:"price,omitempty"`
	PriceWei   *string          `json:"price_wei,omitempty"`
	Location   *string          `json:"location,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
	PrevHash   string           `json:"prev_hash"`
	Hash       string           `json:"hash"`
}

// EventListResponse represents a page of ledger events
type EventListResponse struct {
	Events []EventResponse `json:"events"`
	Total  uint64          `json:"total"`
	Offset *uint64         `json:"next_offset,omitempty"`
}

// SaleResponse describes a completed purchase
type SaleResponse struct {
	Property    PropertyResponse `json:"property"`
	Event       EventResponse    `json:"event"`
	Price       string           `json:"price"`
	PriceWei    string           `json:"price_wei"`
	Refunded    string           `json:"refunded"`
	RefundedWei string           `json:"refunded_wei"`
}

// AccountResponse represents an account balance
type AccountResponse struct {
	Address    string `json:"address"`
	Balance    string `json:"balance"`
	BalanceWei string `json:"balance_wei"`
	Frozen     bool   `json:"frozen"`
}

// RegisterPropertyRequest is the body of POST /properties
type RegisterPropertyRequest struct {
	OwnerName    string `json:"owner_name"`
	Location     string `json:"location"`
	DocumentHash string `json:"document_hash"`
}

// ListPropertyRequest is the body of POST /properties/:id/listing
type ListPropertyRequest struct {
	Price    *string `json:"price"`
	PriceWei *string `json:"price_wei"`
}

// BuyPropertyRequest is the body of POST /properties/:id/purchase
type BuyPropertyRequest struct {
	Payment    *string `json:"payment"`
	PaymentWei *string `json:"payment_wei"`
}

// DepositRequest is the body of POST /accounts/:address/deposits
type DepositRequest struct {
	Amount    *string `json:"amount"`
	AmountWei *string `json:"amount_wei"`
}

// SetFrozenRequest is the body of PUT /accounts/:address/frozen
type SetFrozenRequest struct {
	Frozen *bool `json:"frozen"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ParseAmount resolves an amount given either in ether or in wei
func ParseAmount(ether, wei *string) (*big.Int, error) {
	switch {
	case ether != nil && wei != nil:
		return nil, domain.Wrap(domain.ErrInvalidAmount, "give the amount in ether or in wei, not both")
	case ether != nil:
		return domain.ParseEther(*ether)
	case wei != nil:
		return domain.ParseWei(*wei)
	default:
		return nil, domain.Wrap(domain.ErrInvalidAmount, "amount is required")
	}
}

// MapPropertyToDTO maps a domain property to its response
func MapPropertyToDTO(p *domain.Property) PropertyResponse {
	return PropertyResponse{
		ID:           p.ID,
		Owner:        p.Owner,
		OwnerName:    p.OwnerName,
		Location:     p.Location,
		DocumentHash: p.DocumentHash,
		Price:        domain.FormatEther(p.Price),
		PriceWei:     weiString(p.Price),
		IsForSale:    p.IsForSale,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// MapPropertiesToDTO maps a page of properties
func MapPropertiesToDTO(properties []domain.Property, total uint64, offset uint64) PropertyListResponse {
	resp := PropertyListResponse{
		Properties: make([]PropertyResponse, 0, len(properties)),
		Total:      total,
		Offset:     nextOffset(offset, len(properties), total),
	}
	for i := range properties {
		resp.Properties = append(resp.Properties, MapPropertyToDTO(&properties[i]))
	}
	return resp
}

// MapEventToDTO maps a domain event to its response
func MapEventToDTO(e *domain.Event) EventResponse {
	resp := EventResponse{
		Sequence:   e.Sequence,
		Kind:       e.Kind,
		PropertyID: e.PropertyID,
		Owner:      e.Owner,
		Seller:     e.Seller,
		Buyer:      e.Buyer,
		Location:   e.Location,
		Timestamp:  e.Timestamp,
		PrevHash:   e.PrevHash,
		Hash:       e.Hash,
	}
	if e.Price != nil {
		ether := domain.FormatEther(e.Price)
		wei := e.Price.String()
		resp.Price = &ether
		resp.PriceWei = &wei
	}
	return resp
}

// MapEventsToDTO maps a page of events
func MapEventsToDTO(events []domain.Event, total uint64, offset uint64) EventListResponse {
	resp := EventListResponse{
		Events: make([]EventResponse, 0, len(events)),
		Total:  total,
		Offset: nextOffset(offset, len(events), total),
	}
	for i := range events {
		resp.Events = append(resp.Events, MapEventToDTO(&events[i]))
	}
	return resp
}

// MapSaleToDTO maps a completed purchase
func MapSaleToDTO(s *domain.Sale) SaleResponse {
	return SaleResponse{
		Property:    MapPropertyToDTO(&s.Property),
		Event:       MapEventToDTO(&s.Event),
		Price:       domain.FormatEther(s.Price),
		PriceWei:    weiString(s.Price),
		Refunded:    domain.FormatEther(s.Refunded),
		RefundedWei: weiString(s.Refunded),
	}
}

// MapAccountToDTO maps an account balance
func MapAccountToDTO(a *domain.Account) AccountResponse {
	return AccountResponse{
		Address:    a.Address,
		Balance:    domain.FormatEther(a.Balance),
		BalanceWei: weiString(a.Balance),
		Frozen:     a.Frozen,
	}
}

func weiString(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

// nextOffset returns the offset of the following page, or nil on the last one
func nextOffset(offset uint64, count int, total uint64) *uint64 {
	next := offset + uint64(count)
	if count == 0 || next >= total {
		return nil
	}
	return &next
}
