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

	"github.com/nwschool/clubreg/core"
	"github.com/nwschool/clubreg/core/registry"
	syncsvc "github.com/nwschool/clubreg/services/sync"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		RegSvc         *registry.Service
		SyncEngine     *syncsvc.Engine
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(ctx context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps       ServerDeps
		app        *echo.Echo
		errCh      chan error
		shutdownCh chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:       deps,
		app:        echo.New(),
		errCh:      make(chan error, 1),
		shutdownCh: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdownCh, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

// appTranslator is consulted by the error handler to translate validation
// failures; set once at server construction.
var appTranslator ut.Translator

func (s *server) setup() {
	conf := s.deps.Conf
	appTranslator = s.deps.Translator

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerAuthAPI(v1, s.deps.RegSvc, s.deps.Validate)
	registerClubAPI(v1, jwt, s.deps.RegSvc, s.deps.Validate)
	registerStudentAPI(v1, jwt, s.deps.RegSvc, s.deps.Validate)
	registerTeacherAPI(v1, jwt, s.deps.RegSvc, s.deps.Validate)
	registerAnnouncementAPI(v1, jwt, s.deps.RegSvc, s.deps.Validate)
	registerSettingsAPI(v1, jwt, s.deps.RegSvc)
	registerReportAPI(v1, jwt, s.deps.RegSvc)
	registerSyncAPI(v1, s.deps.SyncEngine)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errCh <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errCh
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdownCh
}

// signalShutdown is handed to the error handler so an integrity fault can
// trigger a graceful stop.
func (s *server) signalShutdown() {
	s.shutdownCh <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the ClubReg API!")
}
