package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesChecked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ssupport_messages_checked_total",
			Help: "Guild messages evaluated by the moderation pipeline",
		},
	)

	BlacklistHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ssupport_blacklist_hits_total",
			Help: "Messages removed for containing a blacklisted word",
		},
	)

	WarningsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ssupport_warnings_issued_total",
			Help: "Warnings written to the ledger by source",
		},
		[]string{"source"},
	)

	AutoBans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ssupport_auto_bans_total",
			Help: "Automatic temporary bans by outcome",
		},
		[]string{"status"},
	)

	Unbans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ssupport_temp_ban_unbans_total",
			Help: "Expired temporary bans processed by the sweep",
		},
		[]string{"status"},
	)

	WarningResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ssupport_weekly_warning_resets_total",
			Help: "User warning lists emptied by the weekly reset",
		},
	)

	Tickets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ssupport_tickets_total",
			Help: "Ticket lifecycle events",
		},
		[]string{"event"},
	)

	AuditEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ssupport_audit_events_total",
			Help: "Audit trail entries by level and event",
		},
		[]string{"level", "event"},
	)

	DashboardRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ssupport_dashboard_requests_total",
			Help: "Dashboard API requests by route and status code",
		},
		[]string{"route", "code"},
	)

	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ssupport_sweep_duration_seconds",
			Help:    "Time spent in each scheduled sweep",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sweep"},
	)
)
