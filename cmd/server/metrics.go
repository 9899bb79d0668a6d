package main

import (
	"fmt"
	"net/http"

	"haven.world/internal/sim/world"
)

type metricsSource interface {
	Metrics() world.WorldMetrics
}

// metricsHandler writes a minimal Prometheus text exposition.
func metricsHandler(src metricsSource, idx runtimeIndex) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m := src.Metrics()

		gauge := func(name, help string, v any) {
			fmt.Fprintf(rw, "# HELP %s %s\n", name, help)
			fmt.Fprintf(rw, "# TYPE %s gauge\n", name)
			fmt.Fprintf(rw, "%s %v\n", name, v)
		}
		counter := func(name, help string, v uint64) {
			fmt.Fprintf(rw, "# HELP %s %s\n", name, help)
			fmt.Fprintf(rw, "# TYPE %s counter\n", name)
			fmt.Fprintf(rw, "%s %d\n", name, v)
		}

		gauge("haven_world_entities", "Entities currently in the world.", m.Entities)
		gauge("haven_world_version", "World store version.", m.StoreVersion)
		gauge("haven_world_players", "Known player records.", m.Players)
		gauge("haven_world_clients", "Currently connected clients.", m.Clients)
		dirty := 0
		if m.LedgerDirty {
			dirty = 1
		}
		gauge("haven_ledger_dirty", "1 when player positions await a flush.", dirty)

		fmt.Fprintf(rw, "# HELP haven_world_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE haven_world_queue_depth gauge\n")
		fmt.Fprintf(rw, "haven_world_queue_depth{queue=%q} %d\n", "inbox", m.QueueDepths.Inbox)
		fmt.Fprintf(rw, "haven_world_queue_depth{queue=%q} %d\n", "join", m.QueueDepths.Join)
		fmt.Fprintf(rw, "haven_world_queue_depth{queue=%q} %d\n", "leave", m.QueueDepths.Leave)

		counter("haven_actions_total", "Actions applied.", m.ActionsTotal)
		counter("haven_refusals_total", "Actions refused by game rules.", m.RefusalsTotal)
		counter("haven_failures_total", "Actions that failed internally.", m.FailuresTotal)
		counter("haven_audits_total", "Audit entries emitted.", m.AuditsTotal)

		if idx != nil {
			s := idx.Stats()
			gauge("haven_index_queue_depth", "Index writer backlog.", s.QueueDepth)
			counter("haven_index_dropped_audits_total", "Audit rows dropped because the index fell behind.", s.DropAuditTotal)
			counter("haven_index_dropped_snapshots_total", "Snapshot rows dropped because the index fell behind.", s.DropSnapshotTotal)
		}
	})
}
