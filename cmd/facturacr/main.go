package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/facturacr/facturacr/internal/audit"
	"github.com/facturacr/facturacr/internal/auth"
	"github.com/facturacr/facturacr/internal/authorization"
	"github.com/facturacr/facturacr/internal/catalog"
	"github.com/facturacr/facturacr/internal/clock"
	"github.com/facturacr/facturacr/internal/company"
	"github.com/facturacr/facturacr/internal/config"
	"github.com/facturacr/facturacr/internal/customer"
	"github.com/facturacr/facturacr/internal/einvoice"
	"github.com/facturacr/facturacr/internal/invoice"
	"github.com/facturacr/facturacr/internal/mailer"
	"github.com/facturacr/facturacr/internal/migration"
	"github.com/facturacr/facturacr/internal/observability"
	"github.com/facturacr/facturacr/internal/providers/email"
	"github.com/facturacr/facturacr/internal/providers/pdf"
	"github.com/facturacr/facturacr/internal/reports"
	"github.com/facturacr/facturacr/internal/server"
	"github.com/facturacr/facturacr/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		authorization.Module,
		audit.Module,
		auth.Module,
		company.Module,
		customer.Module,
		catalog.Module,
		invoice.Module,
		einvoice.Module,
		pdf.Module,
		email.Module,
		mailer.Module,
		reports.Module,

		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
