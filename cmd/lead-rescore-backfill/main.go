package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartlead_backend/internal/events"
	"smartlead_backend/internal/leads"
	"smartlead_backend/internal/leads/repository"
	"smartlead_backend/platform/config"
	"smartlead_backend/platform/db"
	"smartlead_backend/platform/logger"
	"smartlead_backend/platform/validator"
)

func main() {
	staleAfter := flag.Duration("stale-after", 0, "rescore leads last scored longer ago than this (0 rescores every lead)")
	limit := flag.Int("limit", 0, "maximum leads to rescore per tenant (0 means no limit)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if err := cfg.RequireDatabase(); err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting lead rescore backfill", "staleAfter", staleAfter.String(), "limit", *limit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	leadsModule, err := leads.NewModule(pool, eventBus, validator.New(), cfg, nil, log)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}
	defer leadsModule.Close(context.Background())
	defer eventBus.Wait()

	staleBefore := time.Now().UTC()
	if *staleAfter > 0 {
		staleBefore = staleBefore.Add(-*staleAfter)
	}

	tenants, err := repository.New(pool).ListTenantIDs(ctx)
	if err != nil {
		log.Error("failed to list tenants", "error", err)
		return
	}
	if len(tenants) == 0 {
		log.Info("no leads to rescore")
		return
	}

	total := 0
	for _, tenantID := range tenants {
		if ctx.Err() != nil {
			log.Warn("backfill interrupted", "rescored", total)
			return
		}

		count, err := leadsModule.Service().RescoreStale(ctx, &tenantID, staleBefore, *limit)
		total += count
		if err != nil {
			log.Error("tenant rescore failed", "tenantId", tenantID, "rescored", count, "error", err)
			continue
		}
		log.Info("tenant rescored", "tenantId", tenantID, "rescored", count)
	}

	log.Info("lead rescore backfill complete", "tenants", len(tenants), "rescored", total)
}
