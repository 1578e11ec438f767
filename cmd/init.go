package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/begrat/storefront-backend/internal/application"
	"github.com/begrat/storefront-backend/internal/application/commands"
	"github.com/begrat/storefront-backend/internal/application/query"
	"github.com/begrat/storefront-backend/internal/infra/cache"
	"github.com/begrat/storefront-backend/internal/infra/config"
	"github.com/begrat/storefront-backend/internal/infra/db/repo"
	"github.com/begrat/storefront-backend/internal/infra/dns"
	"github.com/begrat/storefront-backend/internal/infra/mail"
	"github.com/begrat/storefront-backend/internal/infra/metrics"
	"github.com/begrat/storefront-backend/internal/presentation/rest"
	"github.com/begrat/storefront-backend/internal/presentation/scheduler"
	"github.com/begrat/storefront-backend/pkg/db"
	"github.com/begrat/storefront-backend/pkg/env"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Init() {
	// DB
	dbConfig := db.NewConfig()
	pool, err := pgxpool.New(context.Background(), dbConfig.GetDSN())
	if err != nil {
		log.Panicf("failed to create pool: %v", err)
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Panicf("failed to connect to db: %v", err)
	}
	uowFactory := db.NewUoWFactory(pool)

	// Configs
	platformConfig := config.NewPlatformConfig()
	resolverConfig := dns.NewResolverConfig()
	registrarConfig := dns.NewRegistrarConfig(platformConfig.BaseDomain)
	verifyConfig := scheduler.NewVerifyConfig()
	mailConfig := mail.NewMailConfig()

	cacheSize, err := strconv.Atoi(env.GetEnv("HOST_CACHE_SIZE", "10000"))
	if err != nil {
		cacheSize = 10000
	}
	cacheTTL, err := strconv.Atoi(env.GetEnv("HOST_CACHE_TTL_SECONDS", "60"))
	if err != nil {
		cacheTTL = 60
	}
	hostCache := cache.NewHostCache(cacheSize, time.Duration(cacheTTL)*time.Second)

	mailServer := mail.NewMailServer(mailConfig)
	appMetrics := metrics.New()

	// AWS
	cfg, err := awsConfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Panic("can't load aws config", err)
	}
	registrar := dns.NewRegistrar(cfg, registrarConfig)
	dnsResolver := dns.NewResolver(resolverConfig)

	verifyDomain := commands.NewVerifyDomain(platformConfig, uowFactory, dnsResolver, mailServer, appMetrics)
	handlers := &application.Handlers{
		VerifyDomain:       verifyDomain,
		ProvisionSubdomain: commands.NewProvisionSubdomain(platformConfig, uowFactory, registrar, hostCache),
		UpdateDomain:       commands.NewUpdateDomain(platformConfig, uowFactory, hostCache),
		ResolveTenant:      query.NewResolveTenant(platformConfig, repo.NewHostReader(pool), hostCache, appMetrics),
		GetDomain:          query.NewGetDomain(platformConfig, uowFactory),
		CheckDomain:        query.NewCheckDomain(registrar),
	}

	handler := rest.NewServer(handlers)
	app := fiber.New(fiber.Config{
		IdleTimeout: 5 * time.Second,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     env.GetEnv("CORS_ORIGIN", "http://localhost:5173"),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))
	app.Use(rest.TenantMiddleware(handlers.ResolveTenant))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	rest.RegisterHandlers(app, handler)

	verifyPoller := scheduler.NewVerifyPoller(verifyDomain, uowFactory, verifyConfig, appMetrics)
	go verifyPoller.Start()

	go func() {
		if err := app.Listen(":" + env.GetEnv("HTTP_PORT", "8080")); err != nil {
			log.Panic(err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c
	fmt.Println("Gracefully shutting down...")
	_ = app.Shutdown()
	verifyPoller.Stop()

	fmt.Println("Running cleanup tasks...")

	uowFactory.Pool.Close()
	fmt.Println("Fiber was successfully shutdown.")
}
