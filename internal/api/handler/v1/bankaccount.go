package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripsell/rewards-api/internal/api/handler/v1/request"
	"github.com/tripsell/rewards-api/internal/api/handler/v1/response"
	"github.com/tripsell/rewards-api/internal/api/middleware"
	"github.com/tripsell/rewards-api/internal/domain"
	"github.com/tripsell/rewards-api/internal/service"
)

type BankAccountService interface {
	Create(ctx context.Context, account domain.BankAccount) (domain.BankAccount, error)
	ListBySeller(ctx context.Context, sellerID uint) ([]domain.BankAccount, error)
}

type BankAccountHandler struct {
	svc BankAccountService
}

func NewBankAccountHandler(svc BankAccountService) *BankAccountHandler {
	return &BankAccountHandler{
		svc: svc,
	}
}

// HandleCreateBankAccount godoc
// @Summary      Register a payout bank account
// @Tags         bank-accounts
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateBankAccountRequest  true  "request body"
// @Success      201  {object}  domain.BankAccount
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /bank-accounts [post]
// @Security     BearerAuth
func (h *BankAccountHandler) HandleCreateBankAccount(ctx *gin.Context) {
	claims, ok := middleware.GetClaims(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing credentials")))
		return
	}

	var req request.CreateBankAccountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.Create(ctx.Request.Context(), domain.BankAccount{
		SellerID:      claims.UserID,
		Label:         req.Label,
		HolderName:    req.HolderName,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
	})
	if err != nil {
		if errors.Is(err, service.ErrBankAccountExists) {
			response.RenderErr(ctx, response.ErrConflict(err))
			return
		}

		err = fmt.Errorf("v1.HandleCreateBankAccount -> h.svc.Create -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleListBankAccounts godoc
// @Summary      List the caller's bank accounts
// @Tags         bank-accounts
// @Produce      json
// @Success      200  {array}   domain.BankAccount
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /bank-accounts [get]
// @Security     BearerAuth
func (h *BankAccountHandler) HandleListBankAccounts(ctx *gin.Context) {
	claims, ok := middleware.GetClaims(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing credentials")))
		return
	}

	accounts, err := h.svc.ListBySeller(ctx.Request.Context(), claims.UserID)
	if err != nil {
		err = fmt.Errorf("v1.HandleListBankAccounts -> h.svc.ListBySeller -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, accounts)
}
