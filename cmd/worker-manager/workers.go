package main

import (
	"time"

	"muse-workers/internal/common/camunda"
	"muse-workers/internal/common/config"
	"muse-workers/internal/common/genai"
	"muse-workers/internal/common/logger"
	"muse-workers/internal/common/observability"
	"muse-workers/internal/common/retail"
	"muse-workers/internal/common/wardrobe"

	cl "muse-workers/internal/workers/stylist/curate-look"
	gof "muse-workers/internal/workers/stylist/generate-outfit"
	ic "muse-workers/internal/workers/stylist/identify-clothing"
	pt "muse-workers/internal/workers/stylist/plan-trip"
	sc "muse-workers/internal/workers/stylist/stylist-chat"

	aci "muse-workers/internal/workers/wardrobe/add-clothing-item"
	dwe "muse-workers/internal/workers/wardrobe/delete-wardrobe-entry"
	lw "muse-workers/internal/workers/wardrobe/load-wardrobe"
	so "muse-workers/internal/workers/wardrobe/save-outfit"
	sp "muse-workers/internal/workers/wardrobe/save-profile"
	scl "muse-workers/internal/workers/wardrobe/search-closet"
)

type deps struct {
	store   *wardrobe.Store
	feed    *wardrobe.LookFeed
	index   *wardrobe.ClosetIndex
	stylist *genai.Client
	links   *retail.LinkBuilder
	obs     *observability.Observability
}

// registerWorkers opens a job worker for every enabled task type.
func registerWorkers(cfg *config.Config, zeebe *camunda.Client, d deps, log logger.Logger) []*camunda.Worker {
	timeout := func(taskType string, fallback time.Duration) time.Duration {
		if ms := config.GetWorkerConfig(cfg, taskType).Timeout; ms > 0 {
			return config.GetDuration(ms)
		}
		return fallback
	}

	handlers := map[string]camunda.JobHandler{}

	// Stylist
	if config.IsWorkerEnabled(cfg, ic.TaskType) {
		c := ic.LoadConfig()
		c.Timeout = timeout(ic.TaskType, c.Timeout)
		c.CacheSize = cfg.Stylist.IdentifyCacheSize
		handlers[ic.TaskType] = ic.NewHandler(c, d.stylist, d.store, d.obs, log)
	}
	if config.IsWorkerEnabled(cfg, gof.TaskType) {
		c := gof.LoadConfig()
		c.Timeout = timeout(gof.TaskType, c.Timeout)
		handlers[gof.TaskType] = gof.NewHandler(c, d.stylist, d.store, d.links, d.obs, log)
	}
	if config.IsWorkerEnabled(cfg, pt.TaskType) {
		c := pt.LoadConfig()
		c.Timeout = timeout(pt.TaskType, c.Timeout)
		c.MaxTripDays = cfg.Stylist.MaxTripDays
		handlers[pt.TaskType] = pt.NewHandler(c, d.stylist, d.store, d.obs, log)
	}
	if config.IsWorkerEnabled(cfg, cl.TaskType) {
		c := cl.LoadConfig()
		c.Timeout = timeout(cl.TaskType, c.Timeout)
		handlers[cl.TaskType] = cl.NewHandler(c, d.stylist, d.store, d.feed, d.links, d.obs, log)
	}
	if config.IsWorkerEnabled(cfg, sc.TaskType) {
		c := sc.LoadConfig()
		c.Timeout = timeout(sc.TaskType, c.Timeout)
		c.HistoryTurns = cfg.Stylist.ChatHistoryTurns
		handlers[sc.TaskType] = sc.NewHandler(c, d.stylist, d.store, d.obs, log)
	}

	// Wardrobe
	if config.IsWorkerEnabled(cfg, sp.TaskType) {
		c := sp.LoadConfig()
		c.Timeout = timeout(sp.TaskType, c.Timeout)
		handlers[sp.TaskType] = sp.NewHandler(c, d.store, d.feed, d.obs, log)
	}
	if config.IsWorkerEnabled(cfg, aci.TaskType) {
		c := aci.LoadConfig()
		c.Timeout = timeout(aci.TaskType, c.Timeout)
		handlers[aci.TaskType] = aci.NewHandler(c, d.store, d.index, d.obs, log)
	}
	if config.IsWorkerEnabled(cfg, so.TaskType) {
		c := so.LoadConfig()
		c.Timeout = timeout(so.TaskType, c.Timeout)
		handlers[so.TaskType] = so.NewHandler(c, d.store, d.obs, log)
	}
	if config.IsWorkerEnabled(cfg, dwe.TaskType) {
		c := dwe.LoadConfig()
		c.Timeout = timeout(dwe.TaskType, c.Timeout)
		handlers[dwe.TaskType] = dwe.NewHandler(c, d.store, d.index, d.obs, log)
	}
	if config.IsWorkerEnabled(cfg, lw.TaskType) {
		c := lw.LoadConfig()
		c.Timeout = timeout(lw.TaskType, c.Timeout)
		handlers[lw.TaskType] = lw.NewHandler(c, d.store, d.feed, d.obs, log)
	}
	if config.IsWorkerEnabled(cfg, scl.TaskType) {
		c := scl.LoadConfig()
		c.Timeout = timeout(scl.TaskType, c.Timeout)
		handlers[scl.TaskType] = scl.NewHandler(c, d.index, d.obs, log)
	}

	workers := make([]*camunda.Worker, 0, len(handlers))
	for taskType, h := range handlers {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		maxActive := wcfg.MaxJobsActive
		if maxActive == 0 {
			maxActive = cfg.Camunda.MaxJobsActive
		}
		workers = append(workers, camunda.NewWorker(zeebe.Zeebe(), camunda.WorkerOptions{
			TaskType:      taskType,
			Name:          cfg.App.Name,
			MaxJobsActive: maxActive,
			// Locks outlive the handler deadline so the reporter can still answer.
			Timeout: timeout(taskType, config.GetDuration(cfg.Camunda.Timeout)) + 10*time.Second,
		}, h, log))
	}
	return workers
}
