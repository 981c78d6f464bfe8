package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/tripsell/rewards-api/docs"
	v1 "github.com/tripsell/rewards-api/internal/api/handler/v1"
	"github.com/tripsell/rewards-api/internal/api/middleware"
	"github.com/tripsell/rewards-api/internal/config"
	"github.com/tripsell/rewards-api/internal/repository"
	"github.com/tripsell/rewards-api/internal/repository/dao"
	"github.com/tripsell/rewards-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	redemptionSvc *service.RedemptionService
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	ledgerHandler := s.initLedgerHandler(db)
	campaignHandler := s.initCampaignHandler(db)
	redemptionHandler := s.initRedemptionHandler(db)
	bankAccountHandler := s.initBankAccountHandler(db)
	s.MountHandlers(ledgerHandler, campaignHandler, redemptionHandler, bankAccountHandler)

	return s
}

// ApplyConfig picks up reloadable settings from a fresh config.
func (s *Server) ApplyConfig(conf *config.AppConfig) {
	rate, err := decimal.NewFromString(conf.Rewards.ConversionRate)
	if err == nil && s.redemptionSvc != nil {
		s.redemptionSvc.SetConversionRate(rate)
	}
}

func (s *Server) initLedgerHandler(db *gorm.DB) *v1.LedgerHandler {
	ledgerDAO := dao.NewLedgerDAO(db)
	repo := repository.NewLedgerRepository(ledgerDAO)
	svc := service.NewLedgerService(repo)
	handler := v1.NewLedgerHandler(svc)

	return handler
}

func (s *Server) initCampaignHandler(db *gorm.DB) *v1.CampaignHandler {
	campaignDAO := dao.NewCampaignDAO(db)
	repo := repository.NewCampaignRepository(campaignDAO)
	ledgerRepo := repository.NewLedgerRepository(dao.NewLedgerDAO(db))
	svc := service.NewCampaignService(repo, ledgerRepo)
	handler := v1.NewCampaignHandler(svc)

	return handler
}

func (s *Server) initRedemptionHandler(db *gorm.DB) *v1.RedemptionHandler {
	redemptionDAO := dao.NewRedemptionDAO(db)
	repo := repository.NewRedemptionRepository(redemptionDAO)
	ledgerRepo := repository.NewLedgerRepository(dao.NewLedgerDAO(db))
	bankRepo := repository.NewBankAccountRepository(dao.NewBankAccountDAO(db))

	// A bad rate is a deployment error, fail fast.
	rate := decimal.RequireFromString(s.Config.Rewards.ConversionRate)

	svc := service.NewRedemptionService(repo, ledgerRepo, bankRepo, rate)
	s.redemptionSvc = svc
	handler := v1.NewRedemptionHandler(svc)

	return handler
}

func (s *Server) initBankAccountHandler(db *gorm.DB) *v1.BankAccountHandler {
	bankDAO := dao.NewBankAccountDAO(db)
	repo := repository.NewBankAccountRepository(bankDAO)
	svc := service.NewBankAccountService(repo)
	handler := v1.NewBankAccountHandler(svc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(ledgerHandler *v1.LedgerHandler, campaignHandler *v1.CampaignHandler, redemptionHandler *v1.RedemptionHandler, bankAccountHandler *v1.BankAccountHandler) {
	const basePath = "/api/v1"

	authenticator := middleware.NewAuthenticator(s.Config.API.JWTSigningKey)

	sellers := s.Router.Group(basePath, authenticator.VerifyJWT())
	{
		sellers.GET("/sellers/:sellerID/balance", ledgerHandler.HandleGetBalance)
		sellers.GET("/sellers/:sellerID/transactions", ledgerHandler.HandleListTransactions)

		sellers.GET("/campaigns", campaignHandler.HandleListCampaigns)
		sellers.GET("/campaigns/:campaignID", campaignHandler.HandleGetCampaign)

		sellers.POST("/redemptions", redemptionHandler.HandleSubmitRedemption)
		sellers.GET("/redemptions", redemptionHandler.HandleListRedemptions)
		sellers.GET("/redemptions/:requestID", redemptionHandler.HandleGetRedemption)

		sellers.POST("/bank-accounts", bankAccountHandler.HandleCreateBankAccount)
		sellers.GET("/bank-accounts", bankAccountHandler.HandleListBankAccounts)
	}

	admin := s.Router.Group(basePath, authenticator.VerifyJWT(), authenticator.RequireAdmin())
	{
		admin.POST("/campaigns", campaignHandler.HandleCreateCampaign)
		admin.POST("/redemptions/:requestID/decision", redemptionHandler.HandleDecideRedemption)
		admin.POST("/redemptions/:requestID/paid", redemptionHandler.HandleMarkRedemptionPaid)
	}

	internal := s.Router.Group(basePath+"/internal", middleware.VerifyServiceKey(s.Config.API.ServiceKeyHash))
	{
		internal.POST("/earnings", ledgerHandler.HandleRecordEarning)
		internal.POST("/sellers/:sellerID/events", campaignHandler.HandleSellerEvent)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Seller Rewards API"
	docs.SwaggerInfo.Description = "Coin ledger, campaigns and redemptions for the seller portal."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
