package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики выполнения сценариев.
var (
	// ExecutionsTotal — количество завершённых выполнений по статусам.
	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenarist_executions_total",
		Help: "Total scenario executions by final status",
	}, []string{"status"})

	// StepsTotal — количество выполненных шагов по типу и статусу.
	StepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenarist_steps_total",
		Help: "Total scenario steps by type and status",
	}, []string{"step_type", "status"})

	// StepDuration — продолжительность шагов по типу.
	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scenarist_step_duration_seconds",
		Help:    "Step execution duration by step type",
		Buckets: prometheus.DefBuckets,
	}, []string{"step_type"})

	// ExecutionDuration — продолжительность выполнений.
	ExecutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scenarist_execution_duration_seconds",
		Help:    "Scenario execution duration",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
	})
)

// Метрики каналов.
var (
	// ChannelsPolling — количество каналов в состоянии POLLING.
	ChannelsPolling = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scenarist_channels_polling",
		Help: "Channels with a live listener task",
	})

	// ChannelEventsTotal — входящие события по каналам и результату.
	ChannelEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenarist_channel_events_total",
		Help: "Inbound channel events by outcome",
	}, []string{"channel_id", "outcome"})

	// MQReconnectsTotal — переподключения к брокеру событий.
	MQReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenarist_mq_reconnects_total",
		Help: "Event broker reconnections",
	})
)
