package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	salesdomain "github.com/repomart/repomart/internal/salesaggregate/domain"
)

func (s *Server) SellerRevenue(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var query salesdomain.RevenueRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.salesSvc.Revenue(c.Request.Context(), sellerID, query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
