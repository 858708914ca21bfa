package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	orderdomain "github.com/repomart/repomart/internal/order/domain"
	settlementdomain "github.com/repomart/repomart/internal/settlement/domain"
	"github.com/repomart/repomart/internal/usercontext"
)

type checkoutRequest struct {
	RepoID string `json:"repo_id"`
}

func (s *Server) Checkout(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.orderSvc.Checkout(c.Request.Context(), buyerID, orderdomain.CheckoutRequest{
		ListingID: strings.TrimSpace(req.RepoID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

type processPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

func (s *Server) ProcessPayment(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req processPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.settlementSvc.Settle(c.Request.Context(), buyerID, settlementdomain.SettleRequest{
		PaymentIntentID: strings.TrimSpace(req.PaymentIntentID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOrders(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.orderSvc.ListByBuyer(c.Request.Context(), buyerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelOrder(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	orderID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || orderID == 0 {
		AbortWithError(c, orderdomain.ErrNotFound)
		return
	}

	resp, err := s.orderSvc.Cancel(c.Request.Context(), buyerID, orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func currentUserID(c *gin.Context) (snowflake.ID, bool) {
	return usercontext.UserIDFromContext(c.Request.Context())
}
