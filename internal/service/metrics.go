package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// метрики

var (
	codesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftadmin_codes_created_total",
			Help: "Кол-во созданных подарочных кодов",
		},
		[]string{"mode"},
	)

	partialWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftadmin_partial_writes_total",
			Help: "Кол-во двойных записей, не прошедших хотя бы в одно хранилище",
		},
		[]string{"collection", "all_failed"},
	)

	divergencesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftadmin_divergences_total",
			Help: "Кол-во обнаруженных расхождений между хранилищами",
		},
		[]string{"kind"},
	)

	reconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftadmin_reconcile_runs_total",
			Help: "Кол-во запусков сверки хранилищ",
		},
		[]string{"result"},
	)
)
