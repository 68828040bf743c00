package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pyropuff/pyroshop/config"
	"github.com/pyropuff/pyroshop/internal/adminapi"
	"github.com/pyropuff/pyroshop/internal/app"
	"github.com/pyropuff/pyroshop/internal/shop"
	"github.com/pyropuff/pyroshop/internal/shopapi"
	"github.com/pyropuff/pyroshop/internal/webserver"
)

var (
	configFile = flag.String("c", "pyroshop.yml", "configuration file")
	initDb     = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
	debugMode  = flag.Bool("x", false, "enable debug mode")
	showVer    = flag.Bool("v", false, "print version and exit")
)

var version = "dev"

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println("pyroshop", version)
		return
	}

	cfg := config.LoadConfig(*configFile)
	if *debugMode {
		cfg.System.Debug = true
		cfg.Database.Debug = true
	}

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initDb {
		application.InitDb()
		zap.S().Info("database initialized")
		return
	}

	db := application.DB()
	pricing := shop.NewPricingService(db)
	carts := shop.NewCartService(db, pricing)
	orders := shop.NewOrderService(db, application)
	payments := shop.NewPaymentService(db, cfg, application.Bus())

	notifier := shop.NewNotifier(db, cfg.Smtp)
	if err := notifier.Subscribe(application.Bus()); err != nil {
		zap.S().Errorf("notifier subscription failed: %v", err)
	}

	ws := webserver.NewWebServer(application)
	shopapi.NewHandler(pricing, carts, orders, payments).Register(ws)
	adminapi.Register(ws)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application.StartBackgroundJobs(ctx)

	if err := ws.Start(ctx); err != nil {
		zap.S().Errorf("web server stopped: %v", err)
	}
}
