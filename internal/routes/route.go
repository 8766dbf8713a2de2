package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/festora/internal/container"
	"github.com/joshua-takyi/festora/internal/handlers"
	"github.com/joshua-takyi/festora/internal/middleware"
)

type Options struct {
	CORSOrigins   []string
	SessionSecret []byte
	SecureCookie  bool
}

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.OptionalSession(opts.SessionSecret))
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	session := handlers.SessionOptions{Secret: opts.SessionSecret, SecureCookie: opts.SecureCookie}
	requireSession := middleware.RequireSession(opts.SessionSecret, container.Logger)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "OK",
				"service": "festora-api",
			})
		})
	}

	walletRoutes := v1.Group("/wallet")
	{
		walletRoutes.GET("/accounts", handlers.ListWalletAccounts(container.Wallets))
		walletRoutes.POST("/connect", handlers.ConnectWallet(container.Wallets, session))
		walletRoutes.GET("/status", requireSession, handlers.WalletStatus(container.Wallets))
		walletRoutes.POST("/disconnect", requireSession, handlers.DisconnectWallet(container.Wallets, session))
	}

	ledgerRoutes := v1.Group("/ledger/events")
	{
		ledgerRoutes.GET("", handlers.ListLedgerEvents(container.EventService))
		ledgerRoutes.GET("/mine", requireSession, handlers.ListMyLedgerEvents(container.EventService))
		ledgerRoutes.GET("/:id", handlers.GetLedgerEvent(container.EventService))
		ledgerRoutes.GET("/:id/tickets", handlers.ListEventTickets(container.EventService))

		ledgerRoutes.POST("", requireSession, handlers.CreateLedgerEvent(container.EventService))
		ledgerRoutes.PUT("/:id", requireSession, handlers.UpdateLedgerEvent(container.EventService))
		ledgerRoutes.DELETE("/:id", requireSession, handlers.DeleteLedgerEvent(container.EventService))
		ledgerRoutes.POST("/:id/payout", requireSession, handlers.PayoutEvent(container.EventService))
		ledgerRoutes.POST("/:id/tickets", requireSession, handlers.BuyTickets(container.EventService))
	}

	v1.POST("/payments/order", handlers.CreatePaymentOrder(container.CheckoutService))

	eventRoutes := v1.Group("/events")
	{
		eventRoutes.GET("", handlers.ListPaidEvents(container.CheckoutService))
		eventRoutes.POST("/create", requireSession, handlers.CreatePaidEvent(container.CheckoutService))
		eventRoutes.DELETE("/:id", requireSession, handlers.DeletePaidEvent(container.CheckoutService))
	}

	return r
}
