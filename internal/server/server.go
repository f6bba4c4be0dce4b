package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/facturacr/facturacr/internal/audit/domain"
	authdomain "github.com/facturacr/facturacr/internal/auth/domain"
	"github.com/facturacr/facturacr/internal/authorization"
	catalogdomain "github.com/facturacr/facturacr/internal/catalog/domain"
	companydomain "github.com/facturacr/facturacr/internal/company/domain"
	"github.com/facturacr/facturacr/internal/config"
	customerdomain "github.com/facturacr/facturacr/internal/customer/domain"
	invoicedomain "github.com/facturacr/facturacr/internal/invoice/domain"
	mailerdomain "github.com/facturacr/facturacr/internal/mailer/domain"
	"github.com/facturacr/facturacr/internal/observability"
	obsmiddleware "github.com/facturacr/facturacr/internal/observability/logger"
	reportsdomain "github.com/facturacr/facturacr/internal/reports/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	genID       *snowflake.Node
	authsvc     authdomain.Service
	authzSvc    authorization.Service
	auditSvc    auditdomain.Service
	companySvc  companydomain.Service
	customerSvc customerdomain.Service
	catalogSvc  catalogdomain.Service
	invoiceSvc  invoicedomain.Service
	mailerSvc   mailerdomain.Service
	reportsSvc  reportsdomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	GenID       *snowflake.Node
	Authsvc     authdomain.Service
	AuthzSvc    authorization.Service
	AuditSvc    auditdomain.Service
	CompanySvc  companydomain.Service
	CustomerSvc customerdomain.Service
	CatalogSvc  catalogdomain.Service
	InvoiceSvc  invoicedomain.Service
	MailerSvc   mailerdomain.Service
	ReportsSvc  reportsdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		genID:       p.GenID,
		authsvc:     p.Authsvc,
		authzSvc:    p.AuthzSvc,
		auditSvc:    p.AuditSvc,
		companySvc:  p.CompanySvc,
		customerSvc: p.CustomerSvc,
		catalogSvc:  p.CatalogSvc,
		invoiceSvc:  p.InvoiceSvc,
		mailerSvc:   p.MailerSvc,
		reportsSvc:  p.ReportsSvc,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
	auth.POST("/change-password", s.AuthRequired(), s.ChangePassword)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1", s.AuthRequired())

	customers := api.Group("/customers")
	customers.GET("", s.requirePermission(authorization.ObjectCustomer, authorization.ActionCustomerView), s.ListCustomers)
	customers.POST("", s.requirePermission(authorization.ObjectCustomer, authorization.ActionCustomerCreate), s.CreateCustomer)
	customers.GET("/:id", s.requirePermission(authorization.ObjectCustomer, authorization.ActionCustomerView), s.GetCustomerByID)
	customers.PATCH("/:id", s.requirePermission(authorization.ObjectCustomer, authorization.ActionCustomerUpdate), s.UpdateCustomer)
	customers.DELETE("/:id", s.requirePermission(authorization.ObjectCustomer, authorization.ActionCustomerDelete), s.DeleteCustomer)

	catalog := api.Group("/catalog-items")
	catalog.GET("", s.requirePermission(authorization.ObjectCatalog, authorization.ActionCatalogView), s.ListCatalogItems)
	catalog.POST("", s.requirePermission(authorization.ObjectCatalog, authorization.ActionCatalogCreate), s.CreateCatalogItem)
	catalog.GET("/:id", s.requirePermission(authorization.ObjectCatalog, authorization.ActionCatalogView), s.GetCatalogItemByID)
	catalog.PATCH("/:id", s.requirePermission(authorization.ObjectCatalog, authorization.ActionCatalogUpdate), s.UpdateCatalogItem)

	invoices := api.Group("/invoices")
	invoices.GET("", s.requirePermission(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.ListInvoices)
	invoices.POST("", s.requirePermission(authorization.ObjectInvoice, authorization.ActionInvoiceCreate), s.CreateInvoice)
	invoices.GET("/:id", s.requirePermission(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.GetInvoiceByID)
	invoices.PATCH("/:id", s.requirePermission(authorization.ObjectInvoice, authorization.ActionInvoiceUpdate), s.UpdateInvoice)
	invoices.DELETE("/:id", s.requirePermission(authorization.ObjectInvoice, authorization.ActionInvoiceDelete), s.DeleteInvoice)
	invoices.POST("/:id/issue", s.requirePermission(authorization.ObjectInvoice, authorization.ActionInvoiceIssue), s.IssueInvoice)
	invoices.POST("/:id/cancel", s.requirePermission(authorization.ObjectInvoice, authorization.ActionInvoiceCancel), s.CancelInvoice)
	invoices.GET("/:id/pdf", s.requirePermission(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.InvoicePDF)
	invoices.GET("/:id/xml", s.requirePermission(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.InvoiceXML)
	invoices.POST("/:id/send-email", s.requirePermission(authorization.ObjectInvoice, authorization.ActionInvoiceSendEmail), s.SendInvoiceEmail)
	invoices.GET("/:id/sends", s.requirePermission(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.ListInvoiceSends)

	reports := api.Group("/reports", s.requirePermission(authorization.ObjectReport, authorization.ActionReportView))
	reports.GET("/sales-summary", s.SalesSummary)
	reports.GET("/top-customers", s.TopCustomers)
	reports.GET("/top-products", s.TopProducts)
	reports.GET("/monthly-series", s.MonthlySeries)

	api.GET("/dashboard", s.requirePermission(authorization.ObjectDashboard, authorization.ActionDashboardView), s.Dashboard)

	users := api.Group("/users", s.requirePermission(authorization.ObjectUser, authorization.ActionUserManage))
	users.GET("", s.ListUsers)
	users.POST("", s.CreateUser)
	users.GET("/:id", s.GetUser)
	users.PATCH("/:id", s.UpdateUser)

	roles := api.Group("/roles", s.requirePermission(authorization.ObjectRole, authorization.ActionRoleManage))
	roles.GET("", s.ListRoles)
	roles.GET("/users/:id", s.GetUserRoles)
	roles.PUT("/users/:id", s.AssignUserRole)
	roles.DELETE("/users/:id", s.RevokeUserRole)

	system := api.Group("/system", s.requirePermission(authorization.ObjectSystem, authorization.ActionSystemConfigure))
	system.GET("/company", s.GetCompanyInfo)
	system.PATCH("/company", s.UpdateCompanyInfo)
	system.GET("/settings", s.GetSettings)
	system.PUT("/settings", s.UpdateSettings)

	api.GET("/audit-logs", s.requirePermission(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}
