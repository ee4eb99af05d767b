package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"capstone-nft/auth"
	"capstone-nft/config"
	"capstone-nft/controllers"
	"capstone-nft/database"
	grpcserver "capstone-nft/grpc_server"
	"capstone-nft/interceptors"
	"capstone-nft/nft"
	"capstone-nft/registry"
	"capstone-nft/repositories"
	"capstone-nft/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"
)

func newLogger(level string) (*zap.Logger, error) {
	switch level {
	case "debug":
		return zap.NewDevelopment()
	default:
		return zap.NewProduction()
	}
}

// app holds everything built from the configuration.
type app struct {
	container  *restful.Container
	grpcServer *grpc.Server
	health     *health.Server
}

func buildApp(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *app {
	userRepo := repositories.NewUserRepository(db)
	emailRepo := repositories.NewEmailRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)

	policy := auth.PolicyFromConfig(cfg.Auth)
	tokens := auth.NewTokenManager(cfg.Auth.JwtSecret, cfg.Auth.TokenTTL, tokenRepo)
	resolver := auth.NewResolver(userRepo, emailRepo, policy, logger)

	authService := services.NewAuthService(resolver, tokens, userRepo, logger)
	registrationService := services.NewRegistrationService(userRepo, emailRepo, services.NewLogMailer(logger), policy, logger)
	userService := services.NewUserService(userRepo, logger)
	nftClient := nft.NewClient(cfg.NFT, nil, logger)

	authController := controllers.NewAuthController(authService, registrationService, tokens, auth.NewRateLimiter(cfg.Auth.LoginRatePerMinute), logger)
	userController := controllers.NewUserController(userService, tokens, logger)
	nftController := controllers.NewNFTController(nftClient, logger)

	container := restful.NewContainer()
	container.Filter(controllers.RequestLogger(logger))
	container.Add(authController.WebService())
	container.Add(userController.WebService())
	container.Add(nftController.WebService())
	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
	}))

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		interceptors.ZapLoggingInterceptor(logger),
		interceptors.AuthInterceptor(tokens, grpcserver.LoginMethod),
	))
	grpcserver.NewUserServer(authService, userService).Register(grpcServer)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(grpcserver.ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &app{container: container, grpcServer: grpcServer, health: healthServer}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() // Make sure the buffer is flushed before the program exits

	if cfg.InsecureSecret() {
		logger.Warn("Using default insecure JWT secret; set CAPSTONE_AUTH_JWT_SECRET")
	}
	if cfg.NFT.APIKey == "" {
		logger.Warn("nft.api_key is empty; wallet lookups will be rejected by the provider")
	}

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	if err := database.SeedAdmin(db, cfg.Admin, logger); err != nil {
		logger.Fatal("Failed to seed admin user", zap.Error(err))
	}
	if purged, err := repositories.NewTokenRepository(db).PurgeExpired(context.Background(), time.Now()); err != nil {
		logger.Warn("Failed to purge expired token revocations", zap.Error(err))
	} else if purged > 0 {
		logger.Info("Purged expired token revocations", zap.Int64("count", purged))
	}

	a := buildApp(cfg, db, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      a.container,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("HTTP server starting", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		logger.Fatal("Failed to listen for gRPC", zap.Error(err))
	}
	go func() {
		logger.Info("gRPC server starting", zap.String("addr", grpcListener.Addr().String()))
		if err := a.grpcServer.Serve(grpcListener); err != nil {
			logger.Fatal("gRPC server stopped", zap.Error(err))
		}
	}()

	deregister := registerWithConsul(cfg, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down...")
	deregister()
	a.health.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	a.grpcServer.GracefulStop()
	logger.Info("Server stopped gracefully")
}

// registerWithConsul announces the HTTP and gRPC endpoints when Consul is
// enabled and returns a function that withdraws them.
func registerWithConsul(cfg *config.Config, logger *zap.Logger) func() {
	if !cfg.Consul.Enabled {
		return func() {}
	}
	reg, err := registry.NewConsulRegistry(cfg.Consul, logger.Sugar())
	if err != nil {
		logger.Error("Consul unavailable, continuing without registration", zap.Error(err))
		return func() {}
	}

	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	httpID := fmt.Sprintf("%s-http-%s-%d", cfg.ServiceName, host, cfg.HTTPPort)
	grpcID := fmt.Sprintf("%s-grpc-%s-%d", cfg.ServiceName, host, cfg.GRPCPort)

	var registered []string
	httpCheck := registry.CreateHTTPCheck(httpID, host, cfg.HTTPPort, "/healthz", "10s", "2s")
	if err := reg.Register(httpID, cfg.ServiceName+"-http", host, cfg.HTTPPort, []string{"http"}, httpCheck); err == nil {
		registered = append(registered, httpID)
	}
	grpcCheck := registry.CreateGRPCCheck(grpcID, fmt.Sprintf("%s:%d", host, cfg.GRPCPort), "10s", "2s")
	if err := reg.Register(grpcID, cfg.ServiceName+"-grpc", host, cfg.GRPCPort, []string{"grpc"}, grpcCheck); err == nil {
		registered = append(registered, grpcID)
	}

	return func() {
		for _, id := range registered {
			_ = reg.Deregister(id)
		}
	}
}
