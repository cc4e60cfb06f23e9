// Package server - HTTP and WebSocket API over a pose engine.
package server

import (
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/models/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options configures a Server.
type Options struct {
	// BodyLimit is the maximum request body in bytes.
	BodyLimit int
	// Timeout bounds a single estimate; 0 disables it.
	Timeout time.Duration
	// MinConfidence hides keypoints scoring below it in responses. Nil shows every reported
	// keypoint.
	MinConfidence *float32
	Logger        logrus.FieldLogger
}

// Server serves pose estimates over HTTP and WebSocket.
type Server struct {
	app     *fiber.App
	engine  inference.Engine
	model   model.Config
	opts    Options
	log     logrus.FieldLogger
	started time.Time
}

// New creates a server and registers its routes.
//
// Arguments:
//   - engine: The engine estimating uploaded frames.
//   - cfg: The configuration of the model behind the engine.
//   - opts: Limits and logging.
//
// Returns:
//   - *Server: The server, not yet listening.
func New(engine inference.Engine, cfg model.Config, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = 8 * 1024 * 1024
	}

	s := &Server{
		engine:  engine,
		model:   cfg,
		opts:    opts,
		log:     log.WithField("component", "server"),
		started: time.Now(),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "go-pose",
		BodyLimit:             opts.BodyLimit,
		StrictRouting:         true,
		CaseSensitive:         true,
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          s.handleError,
	})
	s.routes()

	return s
}

func (s *Server) routes() {
	s.app.Use(requestID())
	s.app.Use(s.logRequests())

	s.app.Get("/health", s.health)

	v1 := s.app.Group("/v1")
	v1.Post("/pose", s.estimate)

	v1.Use("/pose/stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	v1.Get("/pose/stream", websocket.New(s.stream))
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.WithFields(logrus.Fields{
		"addr":  addr,
		"model": s.model.Name,
	}).Info("server listening")
	return s.app.Listen(addr)
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(ErrorResponse{
		RequestID: requestIDOf(c),
		Error:     err.Error(),
	})
}
