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

type CampaignService interface {
	Create(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error)
	Get(ctx context.Context, id uint) (domain.Campaign, error)
	ListActive(ctx context.Context, sellerID *uint, tripID *uint) ([]domain.Campaign, error)
	Evaluate(ctx context.Context, sellerID uint, event domain.EventType, eventData map[string]any) ([]domain.CoinTransaction, error)
}

type CampaignHandler struct {
	svc CampaignService
}

func NewCampaignHandler(svc CampaignService) *CampaignHandler {
	return &CampaignHandler{
		svc: svc,
	}
}

// HandleCreateCampaign godoc
// @Summary      Create a campaign
// @Description  Creates a two-condition incentive campaign. Admin only.
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateCampaignRequest  true  "request body"
// @Success      201  {object}  domain.Campaign
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /campaigns [post]
// @Security     BearerAuth
func (h *CampaignHandler) HandleCreateCampaign(ctx *gin.Context) {
	var req request.CreateCampaignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.Create(ctx.Request.Context(), req.ToDomain())
	if err != nil {
		if errors.Is(err, service.ErrInvalidCampaign) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}

		err = fmt.Errorf("v1.HandleCreateCampaign -> h.svc.Create -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleListCampaigns godoc
// @Summary      List active campaigns
// @Description  Returns campaigns currently running. Sellers see only campaigns whose audience includes them; an optional trip_id narrows to one trip.
// @Tags         campaigns
// @Produce      json
// @Param        trip_id  query  int  false  "Trip ID"
// @Success      200  {array}   domain.Campaign
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /campaigns [get]
// @Security     BearerAuth
func (h *CampaignHandler) HandleListCampaigns(ctx *gin.Context) {
	claims, ok := middleware.GetClaims(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing credentials")))
		return
	}

	var sellerID *uint
	if claims.Role != jwthelper.RoleAdmin {
		sellerID = &claims.UserID
	}

	var tripID *uint
	if raw := ctx.Query("trip_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid trip ID: %w", err)))
			return
		}
		id := uint(parsed)
		tripID = &id
	}

	campaigns, err := h.svc.ListActive(ctx.Request.Context(), sellerID, tripID)
	if err != nil {
		err = fmt.Errorf("v1.HandleListCampaigns -> h.svc.ListActive -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, campaigns)
}

// HandleGetCampaign godoc
// @Summary      Get a campaign
// @Tags         campaigns
// @Produce      json
// @Param        campaignID  path  int  true  "Campaign ID"
// @Success      200  {object}  domain.Campaign
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /campaigns/{campaignID} [get]
// @Security     BearerAuth
func (h *CampaignHandler) HandleGetCampaign(ctx *gin.Context) {
	campaignID, err := strconv.ParseUint(ctx.Param("campaignID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid campaign ID: %w", err)))
		return
	}

	campaign, err := h.svc.Get(ctx.Request.Context(), uint(campaignID))
	if err != nil {
		if errors.Is(err, service.ErrCampaignNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("campaign", "ID", campaignID))
			return
		}

		err = fmt.Errorf("v1.HandleGetCampaign -> h.svc.Get -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, campaign)
}

// HandleSellerEvent godoc
// @Summary      Report a seller event for campaign evaluation
// @Description  Machine-to-machine endpoint, authenticated with X-Service-Key. Re-delivering an event is safe: completed conditions never fire twice.
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        sellerID  path  int                         true  "Seller ID"
// @Param        request   body  request.SellerEventRequest  true  "request body"
// @Success      200  {object}  response.EvaluationResponse
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /internal/sellers/{sellerID}/events [post]
func (h *CampaignHandler) HandleSellerEvent(ctx *gin.Context) {
	sellerID, respErr := sellerIDFromPath(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.SellerEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	entries, err := h.svc.Evaluate(ctx.Request.Context(), sellerID, domain.EventType(req.EventType), req.EventData)
	if err != nil {
		if errors.Is(err, service.ErrUnknownEvent) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}

		err = fmt.Errorf("v1.HandleSellerEvent -> h.svc.Evaluate -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.EvaluationResponse{
		Entries: entries,
	})
}
