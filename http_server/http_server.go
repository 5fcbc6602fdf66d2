package http_server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/danthegoodman1/tabled/gologger"
	"github.com/danthegoodman1/tabled/provisioner"
	"github.com/danthegoodman1/tabled/utils"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

var logger = gologger.NewLogger()

type HTTPServer struct {
	Echo        *echo.Echo
	provisioner *provisioner.Provisioner
}

type CustomValidator struct {
	validator *validator.Validate
}

// NewHTTPServer builds the echo instance with middlewares, the request
// validator (including the sqlident rule the schema tags use), and routes.
// It does not listen; StartHTTPServer does.
func NewHTTPServer(p *provisioner.Provisioner) *HTTPServer {
	s := &HTTPServer{
		Echo:        echo.New(),
		provisioner: p,
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.JSONSerializer = &utils.NoEscapeJSONSerializer{}

	s.Echo.Use(CreateReqContext)
	s.Echo.Use(LoggerMiddleware)
	s.Echo.Use(middleware.CORS())

	v := validator.New()
	if err := v.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool {
		return provisioner.IsValidIdent(fl.Field().String())
	}); err != nil {
		logger.Error().Err(err).Msg("error registering sqlident validation, exiting")
		os.Exit(1)
	}
	s.Echo.Validator = &CustomValidator{validator: v}

	// technical - no auth
	s.Echo.GET("/health", s.HealthCheck)

	s.Echo.POST("/tables", ccHandler(s.CreateTableHandler))
	s.Echo.GET("/tables", ccHandler(s.ListTablesHandler))
	s.Echo.GET("/tables/:name/columns", ccHandler(s.GetTableColumnsHandler))
	s.Echo.DELETE("/tables/:name", ccHandler(s.DropTableHandler))

	return s
}

// StartHTTPServer binds HTTP_PORT and serves h2c in the background,
// returning the server for shutdown control.
func StartHTTPServer(p *provisioner.Provisioner) *HTTPServer {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", utils.GetEnvOrDefault("HTTP_PORT", "8080")))
	if err != nil {
		logger.Error().Err(err).Msg("error creating tcp listener, exiting")
		os.Exit(1)
	}

	s := NewHTTPServer(p)
	s.Echo.Listener = listener
	go func() {
		logger.Info().Msg("starting h2c server on " + listener.Addr().String())
		err := s.Echo.StartH2CServer("", &http2.Server{})
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("failed to start h2c server, exiting")
			os.Exit(1)
		}
	}()

	return s
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func ValidateRequest(c echo.Context, s interface{}) error {
	if err := c.Bind(s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(s); err != nil {
		return err
	}
	return nil
}

func (*HTTPServer) HealthCheck(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			// default handler
			c.Error(err)
		}
		stop := time.Since(start)
		logger := zerolog.Ctx(c.Request().Context())
		req := c.Request()
		res := c.Response()

		p := req.URL.Path
		if p == "" {
			p = "/"
		}

		cl := req.Header.Get(echo.HeaderContentLength)
		if cl == "" {
			cl = "0"
		}
		logger.Debug().Str("method", req.Method).Str("remote_ip", c.RealIP()).Str("req_uri", req.RequestURI).Str("handler_path", c.Path()).Str("path", p).Int("status", res.Status).Int64("latency_ns", stop.Nanoseconds()).Str("protocol", req.Proto).Str("bytes_in", cl).Int64("bytes_out", res.Size).Msg("req received")
		return nil
	}
}
