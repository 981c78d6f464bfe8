package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tripsell/rewards-api/internal/api/handler/v1/request"
	"github.com/tripsell/rewards-api/internal/api/handler/v1/response"
	"github.com/tripsell/rewards-api/internal/api/middleware"
	"github.com/tripsell/rewards-api/internal/domain"
	"github.com/tripsell/rewards-api/internal/pkg/jwthelper"
	"github.com/tripsell/rewards-api/internal/service"
)

type RedemptionService interface {
	Submit(ctx context.Context, sellerID uint, coinAmount int64, bankAccountID uint) (domain.RedemptionRequest, error)
	Decide(ctx context.Context, requestID uint, decision service.RedemptionDecision, approverID uint, reason string) (domain.RedemptionRequest, error)
	MarkPaid(ctx context.Context, requestID uint) (domain.RedemptionRequest, error)
	Get(ctx context.Context, requestID uint) (domain.RedemptionRequest, error)
	List(ctx context.Context, q domain.RedemptionQuery) ([]domain.RedemptionRequest, int64, error)
}

type RedemptionHandler struct {
	svc RedemptionService
}

func NewRedemptionHandler(svc RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{
		svc: svc,
	}
}

// HandleSubmitRedemption godoc
// @Summary      Submit a redemption request
// @Description  Reserves the coins from the seller's redeemable pool and opens a pending cash-out against one of their bank accounts.
// @Tags         redemptions
// @Accept       json
// @Produce      json
// @Param        request  body      request.SubmitRedemptionRequest  true  "request body"
// @Success      201  {object}  domain.RedemptionRequest
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      422  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /redemptions [post]
// @Security     BearerAuth
func (h *RedemptionHandler) HandleSubmitRedemption(ctx *gin.Context) {
	claims, ok := middleware.GetClaims(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing credentials")))
		return
	}

	var req request.SubmitRedemptionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.Submit(ctx.Request.Context(), claims.UserID, req.CoinAmount, req.BankAccountID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBankAccountNotFound):
			response.RenderErr(ctx, response.ErrNotFound("bank account", "ID", req.BankAccountID))
		case errors.Is(err, service.ErrInsufficientBalance), errors.Is(err, service.ErrAccountNotFound):
			response.RenderErr(ctx, response.ErrUnprocessable(service.ErrInsufficientBalance))
		case errors.Is(err, service.ErrInvalidAmount):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleSubmitRedemption -> h.svc.Submit -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleListRedemptions godoc
// @Summary      List redemption requests
// @Description  Admins see every request and can filter by seller; sellers see only their own.
// @Tags         redemptions
// @Produce      json
// @Param        seller_id  query  int     false  "Seller ID filter (admin only)"
// @Param        status     query  string  false  "Status filter"
// @Param        page       query  int     false  "Page number"
// @Param        page_size  query  int     false  "Page size (max 100)"
// @Success      200  {object}  response.RedemptionListResponse
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /redemptions [get]
// @Security     BearerAuth
func (h *RedemptionHandler) HandleListRedemptions(ctx *gin.Context) {
	claims, ok := middleware.GetClaims(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing credentials")))
		return
	}

	var q domain.RedemptionQuery
	q.Page, _ = strconv.Atoi(ctx.Query("page"))
	q.PageSize, _ = strconv.Atoi(ctx.Query("page_size"))

	if claims.Role == jwthelper.RoleAdmin {
		if raw := ctx.Query("seller_id"); raw != "" {
			parsed, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid seller ID: %w", err)))
				return
			}
			id := uint(parsed)
			q.SellerID = &id
		}
	} else {
		q.SellerID = &claims.UserID
	}

	if raw := ctx.Query("status"); raw != "" {
		status := domain.RedemptionStatus(raw)
		if !status.Valid() {
			response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("unknown status %q", raw)))
			return
		}
		q.Status = &status
	}

	requests, total, err := h.svc.List(ctx.Request.Context(), q)
	if err != nil {
		err = fmt.Errorf("v1.HandleListRedemptions -> h.svc.List -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	q.Normalize()
	ctx.JSON(http.StatusOK, response.RedemptionListResponse{
		Requests: requests,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
}

// HandleGetRedemption godoc
// @Summary      Get a redemption request
// @Tags         redemptions
// @Produce      json
// @Param        requestID  path  int  true  "Request ID"
// @Success      200  {object}  domain.RedemptionRequest
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /redemptions/{requestID} [get]
// @Security     BearerAuth
func (h *RedemptionHandler) HandleGetRedemption(ctx *gin.Context) {
	requestID, err := strconv.ParseUint(ctx.Param("requestID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid request ID: %w", err)))
		return
	}

	found, err := h.svc.Get(ctx.Request.Context(), uint(requestID))
	if err != nil {
		if errors.Is(err, service.ErrRequestNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("redemption request", "ID", requestID))
			return
		}

		err = fmt.Errorf("v1.HandleGetRedemption -> h.svc.Get -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	if respErr := requireSellerAccess(ctx, found.SellerID); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ctx.JSON(http.StatusOK, found)
}

// HandleDecideRedemption godoc
// @Summary      Approve or reject a pending redemption
// @Description  Admin only. Rejection refunds the reserved coins in the same atomic unit as the state change.
// @Tags         redemptions
// @Accept       json
// @Produce      json
// @Param        requestID  path  int                                true  "Request ID"
// @Param        request    body  request.RedemptionDecisionRequest  true  "request body"
// @Success      200  {object}  domain.RedemptionRequest
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /redemptions/{requestID}/decision [post]
// @Security     BearerAuth
func (h *RedemptionHandler) HandleDecideRedemption(ctx *gin.Context) {
	claims, ok := middleware.GetClaims(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing credentials")))
		return
	}

	requestID, err := strconv.ParseUint(ctx.Param("requestID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid request ID: %w", err)))
		return
	}

	var req request.RedemptionDecisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	decided, err := h.svc.Decide(ctx.Request.Context(), uint(requestID), service.RedemptionDecision(req.Decision), claims.UserID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			response.RenderErr(ctx, response.ErrNotFound("redemption request", "ID", requestID))
		case errors.Is(err, service.ErrRequestNotPending):
			response.RenderErr(ctx, response.ErrConflict(err))
		case errors.Is(err, service.ErrInvalidDecision):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleDecideRedemption -> h.svc.Decide -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, decided)
}

// HandleMarkRedemptionPaid godoc
// @Summary      Mark an approved redemption as paid
// @Description  Admin only. Records that the external bank transfer completed.
// @Tags         redemptions
// @Produce      json
// @Param        requestID  path  int  true  "Request ID"
// @Success      200  {object}  domain.RedemptionRequest
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /redemptions/{requestID}/paid [post]
// @Security     BearerAuth
func (h *RedemptionHandler) HandleMarkRedemptionPaid(ctx *gin.Context) {
	requestID, err := strconv.ParseUint(ctx.Param("requestID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid request ID: %w", err)))
		return
	}

	paid, err := h.svc.MarkPaid(ctx.Request.Context(), uint(requestID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			response.RenderErr(ctx, response.ErrNotFound("redemption request", "ID", requestID))
		case errors.Is(err, service.ErrRequestNotApproved):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleMarkRedemptionPaid -> h.svc.MarkPaid -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, paid)
}
