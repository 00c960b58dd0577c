package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/facturacion-dian/internal/application/billing"
	"github.com/tu-usuario/facturacion-dian/internal/application/numbering"
	infradian "github.com/tu-usuario/facturacion-dian/internal/infrastructure/dian"
	"github.com/tu-usuario/facturacion-dian/internal/infrastructure/notify"
	"github.com/tu-usuario/facturacion-dian/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/facturacion-dian/internal/interfaces/http"
	"github.com/tu-usuario/facturacion-dian/pkg/config"
	"github.com/tu-usuario/facturacion-dian/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("ambiente_dian", cfg.DIAN.Environment).
		Msg("iniciando motor de facturación electrónica")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	rangeRepo := postgres.NewNumberingRangeRepository(pool)
	invoiceRepo := postgres.NewElectronicInvoiceRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	profileRepo := postgres.NewFiscalProfileRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	defaultRate, err := decimal.NewFromString(cfg.DIAN.DefaultTaxRate)
	if err != nil {
		log.Fatal().Err(err).Str("valor", cfg.DIAN.DefaultTaxRate).Msg("DIAN_DEFAULT_TAX_RATE inválida")
	}
	location, err := time.LoadLocation(cfg.DIAN.IssuerTimezone)
	if err != nil {
		log.Fatal().Err(err).Str("valor", cfg.DIAN.IssuerTimezone).Msg("DIAN_ISSUER_TIMEZONE inválida")
	}

	notifier := notify.NewLogExhaustionNotifier(log)
	allocator := numbering.NewAllocator(notifier, log)
	mapper := billing.NewMapper(defaultRate, location).
		WithFallbackEnvironment(cfg.DIAN.Environment)
	xmlBuilder := infradian.NewXMLBuilderService()

	// signer nil: las facturas quedan en estado generada. La firma XAdES se
	// integra implementando pkg/dian.Signer y pasándola aquí.
	issueInvoiceUC := billing.NewIssueInvoiceUseCase(
		txRunner, saleRepo, profileRepo, invoiceRepo,
		allocator, mapper, xmlBuilder, nil, log,
	)
	rangeAdminUC := numbering.NewRangeAdminUseCase(rangeRepo, profileRepo, log)
	rangeStatusUC := numbering.NewStatusUseCase(rangeRepo, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		IssueInvoice: issueInvoiceUC,
		RangeAdmin:   rangeAdminUC,
		RangeStatus:  rangeStatusUC,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("apagando servidor")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("apagado del servidor HTTP")
	}
}
