package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"authlinker/config"
	"authlinker/internal/delivery"
	"authlinker/internal/delivery/http"
	"authlinker/internal/delivery/http/router/handler"
	"authlinker/internal/delivery/worker"
	"authlinker/internal/domain/repository"
	"authlinker/internal/domain/service"
	"authlinker/internal/infra/codec"
	"authlinker/internal/infra/cooldown"
	logs "authlinker/internal/infra/log"
	"authlinker/internal/infra/persistence/mysql"
	"authlinker/internal/infra/qrcode"
	"authlinker/internal/infra/token"
	"authlinker/internal/usecase/impl"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectHandler(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		// Expose the issuance settings for services that only need them
		func(cfg *config.Config) *config.AuthLinkConfig {
			return cfg.AuthLink
		},
		logs.New,
		context.Background,
		mysql.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			newTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			newRSACodec,
			newKeyManager,
			newPayloadCodec,
			newHashBinder,
			newCooldownGuard,
			newQRCodeService,
			token.NewGenerator,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthLinkService,
			impl.NewVerifyService,
			impl.NewKeyAdminService,
			impl.NewMaintenanceService,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewLinkHandler,
			handler.NewKeyHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				worker.NewSweeper,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func newTransactionManager(db *gorm.DB, cfg *config.Config) repository.TransactionManager {
	return mysql.NewTransactionManager(db, cfg.MySQL.TableName)
}

// newRSACodec loads the keypair eagerly so key admin works regardless of the
// active payload codec.
func newRSACodec(cfg *config.AuthLinkConfig, logger *slog.Logger) (*codec.RSACodec, error) {
	return codec.NewRSACodec(cfg.KeyDir, logger)
}

func newKeyManager(rsaCodec *codec.RSACodec) service.KeyManager {
	return rsaCodec
}

func newPayloadCodec(cfg *config.AuthLinkConfig, rsaCodec *codec.RSACodec) service.PayloadCodec {
	if cfg.Codec == "rsa" {
		return rsaCodec
	}

	return codec.NewObfuscator(cfg)
}

func newHashBinder(cfg *config.AuthLinkConfig) service.HashBinder {
	return codec.NewHashBinder(cfg.Salt)
}

func newCooldownGuard(cfg *config.AuthLinkConfig) service.CooldownGuard {
	return cooldown.New(time.Duration(cfg.Cooldown) * time.Second)
}

func newQRCodeService(cfg *config.Config) service.QRCodeService {
	if cfg.QRCode == nil {
		// Use default values if not configured
		return qrcode.NewQRCodeService(256, "M")
	}

	return qrcode.NewQRCodeService(cfg.QRCode.Size, cfg.QRCode.ErrorCorrectionLevel)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))

				// Trigger graceful shutdown to execute all OnStop hooks
				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					slog.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}
		}()
	}
}
