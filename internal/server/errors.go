package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	grantdomain "github.com/repomart/repomart/internal/accessgrant/domain"
	accountdomain "github.com/repomart/repomart/internal/account/domain"
	catalogdomain "github.com/repomart/repomart/internal/catalog/domain"
	orderdomain "github.com/repomart/repomart/internal/order/domain"
	salesdomain "github.com/repomart/repomart/internal/salesaggregate/domain"
	settlementdomain "github.com/repomart/repomart/internal/settlement/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrTooManyRequests = errors.New("too_many_requests")
)

// ErrorHandlingMiddleware converts errors recorded on the context into
// a JSON error response after the handler chain runs.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, accountdomain.ErrInvalidToken):
		return http.StatusUnauthorized, payload("unauthorized", "unauthorized")

	case errors.Is(err, ErrForbidden),
		errors.Is(err, catalogdomain.ErrNotOwner),
		errors.Is(err, orderdomain.ErrNotBuyer):
		return http.StatusForbidden, payload("forbidden", "forbidden")

	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, payload("too_many_requests", "too many requests")

	case errors.Is(err, settlementdomain.ErrIntentNotFound):
		return http.StatusNotFound, payload("intent_not_found", "payment intent not found")
	case errors.Is(err, settlementdomain.ErrIntentNotSucceeded):
		return http.StatusBadRequest, payload("intent_not_succeeded", "payment has not succeeded")
	case errors.Is(err, settlementdomain.ErrOrderNotFound),
		errors.Is(err, orderdomain.ErrNotFound):
		return http.StatusNotFound, payload("order_not_found", "order not found")
	case errors.Is(err, settlementdomain.ErrAlreadyProcessed):
		return http.StatusConflict, payload("already_processed", "order already settled")
	case errors.Is(err, settlementdomain.ErrOrderNotSettleable):
		return http.StatusConflict, payload("order_not_settleable", "order is in a terminal state")
	case errors.Is(err, settlementdomain.ErrAmountMismatch):
		return http.StatusConflict, payload("amount_mismatch", "payment amount does not match order")
	case errors.Is(err, settlementdomain.ErrRepoNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrListingNotFound):
		return http.StatusNotFound, payload("repo_not_found", "repo not found")
	case errors.Is(err, settlementdomain.ErrSellerUnavailable):
		return http.StatusBadRequest, payload("seller_unavailable", "seller cannot receive payments")
	case errors.Is(err, settlementdomain.ErrAccessGrantFailed):
		return http.StatusBadRequest, payload("access_grant_failed", "access grant could not be created")
	case errors.Is(err, settlementdomain.ErrSettlementFailed):
		return http.StatusInternalServerError, payload("settlement_failed", "settlement failed")

	case errors.Is(err, orderdomain.ErrNotPurchasable):
		return http.StatusBadRequest, payload("repo_not_purchasable", "repo is not available for purchase")
	case errors.Is(err, orderdomain.ErrOwnListing):
		return http.StatusBadRequest, payload("cannot_buy_own_repo", "cannot purchase your own repo")
	case errors.Is(err, orderdomain.ErrAlreadyOwned):
		return http.StatusConflict, payload("repo_already_owned", "repo already purchased")
	case errors.Is(err, orderdomain.ErrCheckoutOpen):
		return http.StatusConflict, payload("checkout_already_open", "a checkout is already in progress")
	case errors.Is(err, orderdomain.ErrNotCancellable):
		return http.StatusConflict, payload("order_not_cancellable", "order is in a terminal state")

	case errors.Is(err, catalogdomain.ErrSlugTaken):
		return http.StatusConflict, payload("slug_taken", "a repo with this title already exists")

	case errors.Is(err, accountdomain.ErrNotFound):
		return http.StatusNotFound, payload("user_not_found", "user not found")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, payload("not_found", "not found")

	case isValidationError(err):
		return http.StatusBadRequest, payload("validation_error", err.Error())

	case errors.Is(err, accountdomain.ErrUnavailable),
		errors.Is(err, orderdomain.ErrUnavailable),
		errors.Is(err, grantdomain.ErrUnavailable),
		errors.Is(err, salesdomain.ErrUnavailable):
		return http.StatusServiceUnavailable, payload("service_unavailable", "service unavailable")

	default:
		return http.StatusInternalServerError, payload("internal_error", "internal server error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		ErrInvalidRequest,
		catalogdomain.ErrInvalidID,
		catalogdomain.ErrInvalidTitle,
		catalogdomain.ErrInvalidPrice,
		catalogdomain.ErrInvalidCurrency,
		orderdomain.ErrInvalidID,
		accountdomain.ErrInvalidID,
		salesdomain.ErrInvalidRange,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func payload(errType, message string) errorPayload {
	return errorPayload{Type: errType, Message: message}
}

// classifyErrorForLog feeds the request logger's error fields without
// leaking internals into access logs.
func classifyErrorForLog(err error) (string, string) {
	_, p := mapError(err)
	return p.Type, p.Type
}
