package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	authclient "github.com/vibast-solutions/lib-go-auth/client"
	authmiddleware "github.com/vibast-solutions/lib-go-auth/middleware"
	authlibservice "github.com/vibast-solutions/lib-go-auth/service"
	"github.com/vibast-solutions/ms-go-upi-payments/app/controller"
	upigrpc "github.com/vibast-solutions/ms-go-upi-payments/app/grpc"
	"github.com/vibast-solutions/ms-go-upi-payments/app/types"
	"github.com/vibast-solutions/ms-go-upi-payments/config"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  "Start both HTTP (Echo) and gRPC servers and the payment signal listeners.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	app, cleanup := mustCreateApplication()
	defer cleanup()
	cfg := app.cfg

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	if err := app.startListeners(ctx, registry); err != nil {
		logrus.WithError(err).Fatal("Failed to start payment signal listeners")
	}
	defer app.stopListeners()

	attemptController := controller.NewAttemptController(app.paymentService)
	platformController := controller.NewPlatformController(app.bus, app.monitor)
	grpcServer := upigrpc.NewServer(app.paymentService, app.bus, app.monitor)

	authGRPCClient, err := authclient.NewGRPCClientFromAddr(context.Background(), cfg.InternalEndpoints.AuthGRPCAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize auth gRPC client")
	}
	defer authGRPCClient.Close()

	internalAuthService := authlibservice.NewInternalAuthService(authGRPCClient)
	echoInternalAuthMiddleware := authmiddleware.NewEchoInternalAuthMiddleware(internalAuthService)
	grpcInternalAuthMiddleware := authmiddleware.NewGRPCInternalAuthMiddleware(internalAuthService)

	e := setupHTTPServer(attemptController, platformController, registry, echoInternalAuthMiddleware, cfg.App.ServiceName)
	grpcSrv, lis := setupGRPCServer(cfg, grpcServer, grpcInternalAuthMiddleware, cfg.App.ServiceName)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		logrus.WithField("addr", lis.Addr().String()).Info("Starting gRPC server")
		return grpcSrv.Serve(lis)
	})

	// The expire job runs in its own process; drop the consumers it left
	// behind for attempts that are no longer open.
	group.Go(func() error {
		runWorker(groupCtx, "registrations prune", cfg.Jobs.ExpirePendingInterval, func() error {
			pruned, err := app.paymentService.PruneRegistrations(groupCtx)
			if pruned > 0 {
				logrus.WithField("pruned", pruned).Info("Dropped consumers for closed attempts")
			}
			return err
		})
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logrus.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Warn("HTTP shutdown error")
		}
		grpcSrv.GracefulStop()
		return nil
	})

	if err := group.Wait(); err != nil {
		logrus.WithError(err).Error("Server error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(
	attemptController *controller.AttemptController,
	platformController *controller.PlatformController,
	gatherer prometheus.Gatherer,
	internalAuthMiddleware *authmiddleware.EchoInternalAuthMiddleware,
	appServiceName string,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
				"request_id": v.RequestID,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(requireRequestID())
	e.Use(internalAuthMiddleware.RequireInternalAccess(appServiceName))

	e.GET("/health", attemptController.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	attempts := e.Group("/attempts")
	attempts.POST("", attemptController.CreateAttempt)
	attempts.POST("/check-callback", platformController.CheckCallback)
	attempts.GET("/:correlation_id", attemptController.GetAttempt)
	attempts.POST("/:correlation_id/cancel", attemptController.CancelAttempt)
	attempts.POST("/:correlation_id/manual-verification/prompt", attemptController.PromptManualVerification)
	attempts.POST("/:correlation_id/manual-verification", attemptController.SubmitManualVerification)

	signals := e.Group("/platform")
	signals.POST("/url-open", platformController.OpenURL)
	signals.POST("/app-state", platformController.ChangeAppState)
	signals.PUT("/pending-intent", platformController.SetPendingIntent)
	signals.POST("/events/:name", platformController.EmitNativeEvent)

	return e
}

func requireRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			requestID := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
			if requestID == "" {
				return ctx.JSON(http.StatusBadRequest, &types.ErrorResponse{Error: "x-request-id header is required"})
			}
			ctx.Response().Header().Set(echo.HeaderXRequestID, requestID)
			return next(ctx)
		}
	}
}

func setupGRPCServer(
	cfg *config.Config,
	signalServer *upigrpc.Server,
	internalAuthMiddleware *authmiddleware.GRPCInternalAuthMiddleware,
	appServiceName string,
) (*grpc.Server, net.Listener) {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	grpcSrv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			upigrpc.RecoveryInterceptor(),
			upigrpc.RequestIDInterceptor(),
			upigrpc.LoggingInterceptor(),
			internalAuthMiddleware.UnaryRequireInternalAccess(appServiceName),
		),
	)
	upigrpc.RegisterPaymentSignalServiceServer(grpcSrv, signalServer)

	return grpcSrv, lis
}
