package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/academia-app/academia/core"
	"github.com/academia-app/academia/core/agenda"
	"github.com/academia-app/academia/core/curriculum"
	"github.com/academia-app/academia/core/student"
	"github.com/academia-app/academia/core/user"
)

type (
	// ServerDeps are the Server's dependencies.
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		UserSvc       user.ServiceInterface
		CurriculumSvc curriculum.ServiceInterface
		StudentSvc    student.ServiceInterface
		AgendaSvc     agenda.ServiceInterface
		Validate      *validator.Validate
		Translator    ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errChan  chan error
		shutChan chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errChan:  make(chan error, 1),
		shutChan: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutChan, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.deps.UserSvc, s.deps.Validate, s.deps.Translator)
	registerAdminAPI(v1, jwt, s.deps.CurriculumSvc, s.deps.StudentSvc, s.deps.Validate)
	registerStudentAPI(v1, jwt, s.deps.StudentSvc, s.deps.UserSvc, s.deps.Validate)
	registerAgendaAPI(v1, jwt, s.deps.AgendaSvc, s.deps.StudentSvc, s.deps.Validate)
}

func (s *Server) Start() {
	addr := s.deps.Conf.Server.Host + ":" + s.deps.Conf.Server.Port
	if err := s.app.Start(addr); err != nil && err != http.ErrServerClosed {
		s.errChan <- err
	}
}

// Errors receives any error that crashes the listener.
func (s *Server) Errors() <-chan error { return s.errChan }

// ShutdownSignal receives OS signals and app-internal shutdown requests.
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutChan }

// SignalShutdown requests a graceful app shutdown.
func (s *Server) SignalShutdown() { s.shutChan <- syscall.SIGTERM }

func (s *Server) Shutdown(ctx context.Context) error { return s.app.Shutdown(ctx) }

func (s *Server) Close() error { return s.app.Close() }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
