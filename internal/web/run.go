package web

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pharma-guard/pharmaguard/internal/archive"
	"github.com/pharma-guard/pharmaguard/internal/domain"
	"github.com/pharma-guard/pharmaguard/internal/validator"
	"github.com/pharma-guard/pharmaguard/pkg/external"
)

// Run opens the configured archive, connects the analysis client and serves
// until ctx is cancelled.
func Run(ctx context.Context, cm domain.ConfigManager, logger *logrus.Logger) error {
	store, err := archive.Open(ctx, cm, logger)
	if err != nil {
		return fmt.Errorf("opening report archive: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close report archive")
		}
	}()

	client := external.NewAnalysisClient(*cm.GetAPIConfig(), logger)

	server, err := NewServer(cm, Dependencies{
		Analyzer:  client,
		Catalog:   client,
		Store:     store,
		Validator: validator.New(),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	if err := server.Start(ctx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
