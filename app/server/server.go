package server

import (
	"context"
	"time"

	"chatwidget/app/agent"
	"chatwidget/app/api"
	"chatwidget/app/middleware"
	"chatwidget/citation"
	"chatwidget/config"
	"chatwidget/metrics"
	"chatwidget/store"
	"chatwidget/widget"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const languagesTimeout = 5 * time.Second

type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	app      *fiber.App
	registry *widget.Registry
	closers  []func() error
	cancel   context.CancelFunc
}

// NewServer wires the widget service. The language listing is fetched once
// here; failing to fetch it only disables language checks.
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	keywords := citation.DefaultKeywords()
	if cfg.KeywordsFile != "" {
		ks, err := citation.LoadKeywords(cfg.KeywordsFile)
		if err != nil {
			return nil, err
		}
		keywords = ks
	}

	s := &Server{cfg: cfg, logger: logger}

	prefs, err := s.preferences(ctx)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	emitter := metrics.New(reg, logger)

	opts := widget.Options{
		Logger:              logger,
		Extractor:           citation.NewExtractor(cfg.SourceBaseURL, keywords),
		Metrics:             emitter,
		DefaultLanguage:     cfg.DefaultLanguage,
		HighlightDuration:   cfg.HighlightDuration,
		TransitionTimeout:   cfg.PanelTransitionTimeout,
		NotificationTimeout: cfg.NotificationTimeout,
		StatusTimeout:       cfg.AttachmentStatusTimeout,
		IdleTimeout:         cfg.SessionIdleTimeout,
	}
	if cfg.HistoryTokenLog {
		opts.TokenCounter = widget.NewTokenCounter("cl100k_base")
	}

	client := agent.NewClient(cfg.ChatURL, cfg.LanguagesURL, cfg.Timeout, logger.Named("agent"))
	s.registry = widget.NewRegistry(client, prefs, opts)
	s.registry.OnEvict(func(string) { emitter.SessionClosed() })

	if cfg.LanguagesURL != "" {
		lctx, cancel := context.WithTimeout(ctx, languagesTimeout)
		langs, err := client.Languages(lctx)
		cancel()
		if err != nil {
			logger.Warn("could not load languages", zap.Error(err))
		} else {
			s.registry.SetLanguages(langs)
			logger.Info("languages loaded", zap.Int("count", len(langs)))
		}
	}

	s.app = fiber.New(fiber.Config{
		ErrorHandler: api.NewErrorHandler(logger),
		JSONEncoder:  jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder:  jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
		BodyLimit:    widget.MaxAttachmentSize + 1<<20,
	})
	s.routes(emitter, reg)

	var janitorCtx context.Context
	janitorCtx, s.cancel = context.WithCancel(context.Background())
	go s.registry.Run(janitorCtx)
	return s, nil
}

// preferences picks the language store: postgres, then redis, then memory.
func (s *Server) preferences(ctx context.Context) (widget.Preferences, error) {
	switch {
	case s.cfg.DatabaseURL != "":
		ps, err := store.NewPostgresStore(ctx, s.cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, ps.Close)
		return ps, nil
	case s.cfg.RedisAddr != "":
		rs, err := store.NewRedisStore(ctx, s.cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, rs.Close)
		return rs, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

func (s *Server) routes(emitter *metrics.Emitter, reg *prometheus.Registry) {
	var (
		app            = s.app
		checkHandler   = api.NewCheckHandler(s.registry)
		sessionHandler = api.NewSessionHandler(s.registry, emitter, s.logger)
		messageHandler = api.NewMessageHandler(s.logger)
		fileHandler    = api.NewFileHandler()
		panelHandler   = api.NewPanelHandler()
		configHandler  = api.NewConfigHandler(s.registry)
		check          = app.Group("/check")
		apiv1          = app.Group("/api/v1")
	)

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.AllowedOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID",
	}))

	check.Get("/healthy", checkHandler.HandleHealthy)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	apiv1.Get("/languages", configHandler.HandleLanguages)
	apiv1.Post("/sessions", sessionHandler.HandleCreate)

	session := apiv1.Group("/sessions/:id", middleware.LoadSession(s.registry))
	session.Get("/", sessionHandler.HandleGet)
	session.Delete("/", sessionHandler.HandleDelete)
	session.Post("/clear", sessionHandler.HandleClear)
	session.Put("/language", configHandler.HandleSetLanguage)

	session.Get("/messages", messageHandler.HandleList)
	session.Post("/messages", messageHandler.HandleSend)
	session.Post("/messages/:mid/retry", messageHandler.HandleRetry)

	session.Post("/attachment", fileHandler.HandleAttach)
	session.Delete("/attachment", fileHandler.HandleDetach)
	session.Delete("/attachment/status", fileHandler.HandleDismissStatus)

	session.Get("/sources", panelHandler.HandleSources)
	session.Post("/panel/open", panelHandler.HandleOpen)
	session.Post("/panel/close", panelHandler.HandleClose)
	session.Post("/panel/toggle", panelHandler.HandleToggle)
	session.Post("/panel/transitionend", panelHandler.HandleTransitionEnd)
	session.Post("/intents", panelHandler.HandleIntent)
}

// App exposes the fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.logger.Info("server starting", zap.String("addr", s.cfg.ServerAddr))
	return s.app.Listen(s.cfg.ServerAddr)
}

func (s *Server) Stop(ctx context.Context) error {
	s.cancel()
	err := s.app.ShutdownWithContext(ctx)
	s.registry.CloseAll()
	for _, c := range s.closers {
		if cerr := c(); cerr != nil {
			s.logger.Warn("close failed", zap.Error(cerr))
		}
	}
	s.logger.Info("server stopped")
	return err
}
