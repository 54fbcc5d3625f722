// ask serves a single chat page and forwards each posted question to a
// generative text provider, answering with the completion rendered as HTML.
//
//	browser → POST /ask {question}
//	  → provider (Gemini by default)
//	  ← markdown
//	  → sanitized HTML {response}
//
// Every terminated request is also relayed to /ws clients and, when AMQP_URL
// is set, published on the askai.events exchange.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/forge-ai/askai/services/ask/internal"
	"github.com/forge-ai/askai/shared/genai"
	"github.com/forge-ai/askai/shared/mq"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "1" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	_ = godotenv.Load()

	cfg := internal.ConfigFromEnv()

	client, err := genai.New(genai.ConfigFromEnv())
	if err != nil {
		var ce *genai.ConfigurationError
		if errors.As(err, &ce) {
			log.Fatal().Str("key", ce.Key).Msg(ce.Reason)
		}
		log.Fatal().Err(err).Msg("failed to initialize client")
	}
	log.Info().
		Str("provider", client.Provider()).
		Str("model", client.Model()).
		Msg("client initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info().Msg("shutdown signal, stopping")
		cancel()
	}()

	var publisher internal.Publisher
	if cfg.AMQPURL != "" {
		broker, err := mq.New(ctx, cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("mq connect")
		}
		defer broker.Close()
		publisher = broker
	}

	srv := internal.NewServer(cfg, client, publisher)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("server exited")
	}
}
