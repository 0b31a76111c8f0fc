// Command keygen generates the RSA keypair used by the asymmetric payload
// codec and prints the public half for distribution to verifiers.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"authlinker/config"
	"authlinker/internal/infra/codec"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	rsaCodec, err := codec.NewRSACodec(cfg.AuthLink.KeyDir, logger)
	if err != nil {
		logger.Error("Failed to open key directory", slog.Any("error", err))
		os.Exit(1)
	}

	if err := rsaCodec.GenerateKeyPair(); err != nil {
		logger.Error("Failed to generate keypair", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("Generated RSA keypair", slog.String("key_dir", cfg.AuthLink.KeyDir))
	fmt.Println(rsaCodec.PublicKeyBase64())
}
