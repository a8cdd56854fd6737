package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/clock"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/config"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/database"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/engine"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/handler"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/logger"
	appmw "github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/middleware"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/payment"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/queue"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/repository"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()
	lg := logger.New(cfg.LogLevel)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	facilityRepo := repository.NewFacilityRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	gateway := payment.NewStripeGateway(cfg.StripeKey, cfg.StripeCurrency)
	refunds := engine.CutoffRefundPolicy{Cutoff: time.Duration(cfg.RefundCutoffHours) * time.Hour}
	eng := engine.New(facilityRepo, bookingRepo, gateway, clock.System{}, refunds, lg)

	// Redis is optional: without it the cache and limiter turn into
	// no-ops instead of blocking startup.
	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Warn("redis unavailable, response cache and rate limiter disabled")
	}
	cacheMW := appmw.NewRedisCache(config.LoadCacheConfig(), rdb)
	limiterMW := appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(limiterMW)

	router.RegisterRoutes(e)
	router.RegisterFacilities(e, handler.NewFacilityHandler(facilityRepo), cacheMW)
	router.RegisterBookings(e, handler.NewBookingHandler(eng, facilityRepo), cacheMW)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go queue.StartAuditConsumer(lg)
	go eng.RunCompletionSweep(ctx, cfg.SweepInterval)

	addr := ":" + cfg.Port
	lg.Info("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
