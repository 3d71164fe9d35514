package rest

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/chain-estates/internal/domain"
	"github.com/feral-file/chain-estates/internal/ledger"
)

const MAX_PAGE_SIZE = 100

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

func (o Order) Desc() bool {
	return o == OrderDesc
}

func (o Order) Asc() bool {
	return o == OrderAsc
}

// ListPropertiesQueryParams holds query parameters for GET /properties
type ListPropertiesQueryParams struct {
	// Filters
	Owner   *string `form:"owner"`
	ForSale *bool   `form:"for_sale"`

	// Pagination
	Limit  int    `form:"limit,default=20"`
	Offset uint64 `form:"offset,default=0"`
	Order  Order  `form:"order,default=asc"` // asc or desc (based on id)
}

// ParseListPropertiesQuery parses query parameters for GET /properties
func ParseListPropertiesQuery(c *gin.Context) (*ListPropertiesQueryParams, error) {
	var params ListPropertiesQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	if err := capLimit(&params.Limit); err != nil {
		return nil, err
	}

	// Validate order
	if !params.Order.Asc() && !params.Order.Desc() {
		params.Order = OrderAsc
	}

	return &params, nil
}

// ToLedgerQuery converts the parameters into a ledger property query
func (p *ListPropertiesQueryParams) ToLedgerQuery() ledger.PropertyQuery {
	return ledger.PropertyQuery{
		Owner:   p.Owner,
		ForSale: p.ForSale,
		Limit:   p.Limit,
		Offset:  p.Offset,
		Newest:  p.Order.Desc(),
	}
}

// QueryEventsQueryParams holds query parameters for GET /events
type QueryEventsQueryParams struct {
	// Filters
	Kinds      []string   `form:"kind"`
	PropertyID *uint64    `form:"property_id"`
	Address    *string    `form:"address"`
	Since      *time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
	Until      *time.Time `form:"until" time_format:"2006-01-02T15:04:05Z07:00"`
	After      *uint64    `form:"after"` // only events with a greater sequence

	// Pagination
	Limit  int    `form:"limit,default=20"`
	Offset uint64 `form:"offset,default=0"`
	Order  Order  `form:"order,default=asc"` // asc or desc (based on sequence)
}

// ParseQueryEventsQuery parses query parameters for GET /events
func ParseQueryEventsQuery(c *gin.Context) (*QueryEventsQueryParams, error) {
	var params QueryEventsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	if err := capLimit(&params.Limit); err != nil {
		return nil, err
	}

	if !params.Order.Asc() && !params.Order.Desc() {
		params.Order = OrderAsc
	}

	return &params, nil
}

// ToLedgerQuery converts the parameters into a ledger event query
func (p *QueryEventsQueryParams) ToLedgerQuery() ledger.EventQuery {
	query := ledger.EventQuery{
		PropertyID: p.PropertyID,
		Address:    p.Address,
		Since:      p.Since,
		Until:      p.Until,
		After:      p.After,
		Limit:      p.Limit,
		Offset:     p.Offset,
		Newest:     p.Order.Desc(),
	}
	// kind may be repeated or comma separated
	for _, value := range p.Kinds {
		for _, kind := range strings.Split(value, ",") {
			if kind = strings.TrimSpace(kind); kind != "" {
				query.Kinds = append(query.Kinds, domain.EventKind(kind))
			}
		}
	}
	return query
}

func capLimit(limit *int) error {
	if *limit < 1 {
		return fmt.Errorf("limit must be at least 1")
	}
	if *limit > MAX_PAGE_SIZE {
		*limit = MAX_PAGE_SIZE
	}
	return nil
}
