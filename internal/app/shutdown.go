package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application. It is safe to call more
// than once.
func (a *App) Shutdown() error {
	a.shutdownOnce.Do(a.shutdown)
	return nil
}

func (a *App) shutdown() {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	// Cancel context to signal all components
	a.cancel()

	// Shutdown components in dependency order
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Stop scheduling scans
	if a.scanner != nil {
		a.scanner.Stop()
	}

	// Shutdown HTTP server
	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	// Wait for all goroutines
	a.wg.Wait()

	// Close the market channel, which ends the book tracker
	if a.wsClient != nil {
		err = a.wsClient.Close()
		if err != nil {
			a.logger.Error("websocket-close-error", zap.Error(err))
		}
		a.books.Wait()
	}

	// Close publisher
	err = a.publisher.Close()
	if err != nil {
		a.logger.Error("publisher-close-error", zap.Error(err))
	}

	// Close storage
	err = a.storage.Close()
	if err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	a.cache.Close()

	a.logger.Info("application-shutdown-complete")
}
