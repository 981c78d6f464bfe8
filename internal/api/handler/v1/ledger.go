package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tripsell/rewards-api/internal/api/handler/v1/request"
	"github.com/tripsell/rewards-api/internal/api/handler/v1/response"
	"github.com/tripsell/rewards-api/internal/api/middleware"
	"github.com/tripsell/rewards-api/internal/domain"
	"github.com/tripsell/rewards-api/internal/pkg/jwthelper"
	"github.com/tripsell/rewards-api/internal/service"
)

type LedgerService interface {
	GetBalance(ctx context.Context, sellerID uint) (domain.Account, error)
	ListTransactions(ctx context.Context, q domain.TransactionQuery) ([]domain.CoinTransaction, int64, error)
	RecordBookingEarn(ctx context.Context, sellerID uint, bookingID string, amount int64) (domain.CoinTransaction, error)
}

type LedgerHandler struct {
	svc LedgerService
}

func NewLedgerHandler(svc LedgerService) *LedgerHandler {
	return &LedgerHandler{
		svc: svc,
	}
}

// HandleGetBalance godoc
// @Summary      Get a seller's coin balances
// @Description  Returns redeemable and locked balances plus lifetime totals. Sellers can only read their own account.
// @Tags         ledger
// @Produce      json
// @Param        sellerID  path      int  true  "Seller ID"
// @Success      200  {object}  response.BalanceResponse
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /sellers/{sellerID}/balance [get]
// @Security     BearerAuth
func (h *LedgerHandler) HandleGetBalance(ctx *gin.Context) {
	sellerID, respErr := sellerIDFromPath(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if respErr := requireSellerAccess(ctx, sellerID); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	account, err := h.svc.GetBalance(ctx.Request.Context(), sellerID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetBalance -> h.svc.GetBalance -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewBalanceResponse(account))
}

// HandleListTransactions godoc
// @Summary      List a seller's ledger entries
// @Description  Returns the seller's entries newest first. Supports filtering by entry type and created-at range.
// @Tags         ledger
// @Produce      json
// @Param        sellerID   path   int     true   "Seller ID"
// @Param        page       query  int     false  "Page number"
// @Param        page_size  query  int     false  "Page size (max 100)"
// @Param        type       query  string  false  "Entry type filter"
// @Param        from       query  string  false  "RFC 3339 lower bound on created_at"
// @Param        to         query  string  false  "RFC 3339 upper bound on created_at"
// @Success      200  {object}  response.TransactionListResponse
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /sellers/{sellerID}/transactions [get]
// @Security     BearerAuth
func (h *LedgerHandler) HandleListTransactions(ctx *gin.Context) {
	sellerID, respErr := sellerIDFromPath(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if respErr := requireSellerAccess(ctx, sellerID); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	q, respErr := buildTransactionQuery(ctx, sellerID)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	entries, total, err := h.svc.ListTransactions(ctx.Request.Context(), q)
	if err != nil {
		err = fmt.Errorf("v1.HandleListTransactions -> h.svc.ListTransactions -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	q.Normalize()
	ctx.JSON(http.StatusOK, response.TransactionListResponse{
		Transactions: entries,
		Total:        total,
		Page:         q.Page,
		PageSize:     q.PageSize,
	})
}

// HandleRecordEarning godoc
// @Summary      Record commission coins for a confirmed booking
// @Description  Machine-to-machine endpoint for the booking subsystem, authenticated with X-Service-Key.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        request  body      request.RecordEarningRequest  true  "request body"
// @Success      201  {object}  domain.CoinTransaction
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /internal/earnings [post]
func (h *LedgerHandler) HandleRecordEarning(ctx *gin.Context) {
	var req request.RecordEarningRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	entry, err := h.svc.RecordBookingEarn(ctx.Request.Context(), req.SellerID, req.BookingID, req.Amount)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}

		err = fmt.Errorf("v1.HandleRecordEarning -> h.svc.RecordBookingEarn -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, entry)
}

func buildTransactionQuery(ctx *gin.Context, sellerID uint) (domain.TransactionQuery, *response.Err) {
	q := domain.TransactionQuery{
		SellerID: sellerID,
	}

	q.Page, _ = strconv.Atoi(ctx.Query("page"))
	q.PageSize, _ = strconv.Atoi(ctx.Query("page_size"))

	if raw := ctx.Query("type"); raw != "" {
		entryType := domain.TransactionType(raw)
		if !entryType.Valid() {
			return q, response.ErrBadRequest(fmt.Errorf("unknown entry type %q", raw))
		}
		q.Type = &entryType
	}

	if raw := ctx.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return q, response.ErrBadRequest(fmt.Errorf("invalid from timestamp: %w", err))
		}
		q.From = &from
	}

	if raw := ctx.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return q, response.ErrBadRequest(fmt.Errorf("invalid to timestamp: %w", err))
		}
		q.To = &to
	}

	return q, nil
}

func sellerIDFromPath(ctx *gin.Context) (uint, *response.Err) {
	sellerID, err := strconv.ParseUint(ctx.Param("sellerID"), 10, 32)
	if err != nil {
		return 0, response.ErrBadRequest(fmt.Errorf("invalid seller ID: %w", err))
	}

	return uint(sellerID), nil
}

// requireSellerAccess allows admins through and restricts sellers to
// their own resources.
func requireSellerAccess(ctx *gin.Context, sellerID uint) *response.Err {
	claims, ok := middleware.GetClaims(ctx)
	if !ok {
		return response.ErrUnauthorized(errors.New("missing credentials"))
	}

	if claims.Role != jwthelper.RoleAdmin && claims.UserID != sellerID {
		return response.ErrPermissionDenied(fmt.Errorf("seller %v cannot access seller %v", claims.UserID, sellerID))
	}

	return nil
}
