package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidRange = errors.New("invalid_period_range")
	ErrUnavailable  = errors.New("revenue_unavailable")
)

type RevenueReport struct {
	TotalRevenue int64       `json:"total_revenue"`
	TotalSales   int64       `json:"total_sales"`
	Periods      []Aggregate `json:"periods"`
}

type RevenueRequest struct {
	From string `form:"from"`
	To   string `form:"to"`
}

type Service interface {
	// Revenue reports a seller's aggregated sales over an inclusive
	// date range. An empty range defaults to the trailing 30 days.
	Revenue(ctx context.Context, sellerID snowflake.ID, req RevenueRequest) (RevenueReport, error)
}
