// Package webhook exposes the skill handler over HTTP for webhook-style
// voice hosts.
package webhook

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/showtimes-skill/skill/contract"
	handlerx "github.com/tanpawarit/showtimes-skill/skill/handler"
)

type Config struct {
	Addr string `envconfig:"ADDR" split_words:"true" default:":8080"`
	Mode string `envconfig:"MODE" split_words:"true" default:"release"`
}

type Server struct {
	engine  *gin.Engine
	handler *handlerx.Handler
	addr    string
}

func NewServer(cfg Config, h *handlerx.Handler) (*Server, error) {
	if h == nil {
		return nil, errors.New("skill handler is required")
	}

	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &Server{
		engine:  gin.New(),
		handler: h,
		addr:    cfg.Addr,
	}

	s.engine.Use(gin.Recovery(), requestLogger())
	s.engine.POST("/", s.handleTurn)
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return s, nil
}

func (s *Server) Run() error {
	log.Info().Str("addr", s.addr).Msg("webhook server listening")
	return s.engine.Run(s.addr)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) handleTurn(c *gin.Context) {
	var env contractx.RequestEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request envelope"})
		return
	}

	resp, err := s.handler.HandleRequest(c.Request.Context(), env)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, contractx.ErrInvalidSession) ||
			errors.Is(err, contractx.ErrInvalidRequest) ||
			errors.Is(err, contractx.ErrUnknownIntent) {
			status = http.StatusBadRequest
		}
		log.Error().Err(err).Str("session_id", env.Session.SessionID).Msg("turn handling failed")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request handled")
	}
}
