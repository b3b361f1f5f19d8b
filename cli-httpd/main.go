package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	medocr "github.com/medremind/medication-ocr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// To test it:
// curl -X POST -H "Content-Type: application/json" -d '{"imageUrl":"https://example.com/prescription.png"}' http://localhost:5000/ocr

const shutdownTimeout = 30 * time.Second

func init() {
	zerolog.TimeFieldFormat = time.StampMilli
	// Default level is info, unless debug flag is present
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	serverConfig, err := medocr.DefaultConfigFlagsOverride(medocr.NoOpFlagFunction())
	if err != nil {
		log.Fatal().Err(err).Str("component", "CLI_HTTP").Msg("invalid configuration")
	}
	if serverConfig.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Debug().Interface("serverConfig", serverConfig).Msg("parameter list of serverConfig")

	// the engine is loaded once and shared by every request
	ocrEngine, err := medocr.NewOcrEngine(serverConfig.Engine)
	if err != nil {
		log.Fatal().Err(err).Str("component", "CLI_HTTP").
			Str("engine", serverConfig.Engine.EngineType.String()).
			Msg("could not load ocr engine")
	}

	mux := medocr.NewOcrServeMux(ocrEngine, serverConfig, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)

	listenAddr := fmt.Sprintf("0.0.0.0:%d", serverConfig.HttpPort)
	server := &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	idleConnsClosed := make(chan struct{})

	go func() {
		sig := <-signals
		log.Info().Str("component", "CLI_HTTP").Str("signal", sig.String()).
			Msg("Caught signal to terminate, will not serve any further requests")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Str("component", "CLI_HTTP").Msg("http server did not shut down cleanly")
		}
		close(idleConnsClosed)
	}()

	log.Info().Str("component", "CLI_HTTP").Str("listenAddr", listenAddr).
		Str("engine", serverConfig.Engine.EngineType.String()).
		Msg("Starting listener...")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Str("component", "CLI_HTTP").Caller().Msg("cli_http has failed to start")
	}

	<-idleConnsClosed
	if err := ocrEngine.Close(); err != nil {
		log.Warn().Err(err).Str("component", "CLI_HTTP").Msg("ocr engine close failed")
	}
	log.Info().Str("component", "CLI_HTTP").Msg("medication ocr http daemon stopped")
}
