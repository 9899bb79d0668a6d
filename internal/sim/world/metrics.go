package world

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Entities     int    `json:"entities"`
	StoreVersion uint64 `json:"store_version"`
	Players      int    `json:"players"`
	Clients      int    `json:"clients"`
	LedgerDirty  bool   `json:"ledger_dirty"`

	QueueDepths QueueDepths `json:"queue_depths"`

	ActionsTotal  uint64 `json:"actions_total"`
	RefusalsTotal uint64 `json:"refusals_total"`
	FailuresTotal uint64 `json:"failures_total"`
	AuditsTotal   uint64 `json:"audits_total"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

type counters struct {
	actions  uint64
	refusals uint64
	failures uint64
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	m, _ := w.metrics.Load().(WorldMetrics)
	return m
}

func (w *World) publishMetrics() {
	w.metrics.Store(WorldMetrics{
		Entities:     w.store.Len(),
		StoreVersion: w.store.Version(),
		Players:      w.ledger.Len(),
		Clients:      len(w.clients),
		LedgerDirty:  w.ledger.Dirty(),
		QueueDepths: QueueDepths{
			Inbox: len(w.inbox),
			Join:  len(w.join),
			Leave: len(w.leave),
		},
		ActionsTotal:  w.counters.actions,
		RefusalsTotal: w.counters.refusals,
		FailuresTotal: w.counters.failures,
		AuditsTotal:   w.auditSeq,
	})
}
