package internal

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/forge-ai/askai/shared/events"
	"github.com/forge-ai/askai/shared/genai"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const Version = "0.1.0"

// Publisher receives every event envelope. *mq.Broker satisfies it.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// Server terminates /ask and /analyze requests against a single Client built
// at startup.
type Server struct {
	cfg      Config
	client   *genai.Client
	renderer *Renderer
	hub      *Hub
	outbox   *outbox // nil when AMQP_URL is unset
}

func NewServer(cfg Config, client *genai.Client, publisher Publisher) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	s := &Server{
		cfg:      cfg,
		client:   client,
		renderer: NewRenderer(cfg.Sanitize),
		hub:      NewHub(),
	}
	if publisher != nil {
		s.outbox = newOutbox(publisher)
	}
	return s
}

// Handler exposes the routes with their middleware, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.routes() }

// Run serves HTTP and the activity hub until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.hub.Run(ctx) })
	g.Go(func() error { return s.serveAPI(ctx) })
	if s.outbox != nil {
		g.Go(func() error { return s.outbox.Run(ctx) })
	}
	if s.cfg.OpenBrowser {
		g.Go(func() error {
			openBrowser(ctx, s.cfg.BrowserDelay, "http://"+s.cfg.Addr)
			return nil
		})
	}

	return g.Wait()
}

func (s *Server) serveAPI(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	log.Info().Str("addr", "http://"+s.cfg.Addr).Msg("starting web interface")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// emit relays p to WebSocket clients and, when configured, queues it for the
// broker. It never blocks.
func (s *Server) emit(p events.AskPayload) {
	key := p.RoutingKey()
	b, err := events.Wrap(key, p)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("wrap event")
		return
	}
	s.hub.BroadcastRaw(b)
	if s.outbox != nil {
		s.outbox.enqueue(key, b)
	}
}
