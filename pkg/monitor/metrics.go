// Package monitor exposes platform gauges for Prometheus. Counts are read
// from the database at scrape time, so no counters need to be kept in sync
// with the handlers.
package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/grad-lab/capstone-backend/dao/model"
)

type platformCollector struct {
	db *gorm.DB

	proposalsDesc   *prometheus.Desc
	evaluationsDesc *prometheus.Desc
	usersDesc       *prometheus.Desc
}

func newPlatformCollector(db *gorm.DB) *platformCollector {
	return &platformCollector{
		db: db,
		proposalsDesc: prometheus.NewDesc(
			"capstone_proposals_total",
			"Proposed projects by workflow status",
			[]string{"status"}, nil,
		),
		evaluationsDesc: prometheus.NewDesc(
			"capstone_evaluations_total",
			"Defense evaluations by status",
			[]string{"status"}, nil,
		),
		usersDesc: prometheus.NewDesc(
			"capstone_users_total",
			"Accounts by platform role",
			[]string{"role"}, nil,
		),
	}
}

func (pc *platformCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- pc.proposalsDesc
	ch <- pc.evaluationsDesc
	ch <- pc.usersDesc
}

type statusCount struct {
	Status string
	Count  int64
}

func (pc *platformCollector) Collect(ch chan<- prometheus.Metric) {
	var proposalRows []statusCount
	err := pc.db.Model(&model.ProposedProject{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&proposalRows).Error
	if err != nil {
		klog.Errorf("metrics: failed to count proposals: %v", err)
	}
	for _, row := range proposalRows {
		ch <- prometheus.MustNewConstMetric(pc.proposalsDesc, prometheus.GaugeValue, float64(row.Count), row.Status)
	}

	var evalRows []statusCount
	err = pc.db.Model(&model.ProjectEvaluation{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&evalRows).Error
	if err != nil {
		klog.Errorf("metrics: failed to count evaluations: %v", err)
	}
	for _, row := range evalRows {
		ch <- prometheus.MustNewConstMetric(pc.evaluationsDesc, prometheus.GaugeValue, float64(row.Count), row.Status)
	}

	var roleRows []struct {
		Role  model.Role
		Count int64
	}
	err = pc.db.Model(&model.User{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&roleRows).Error
	if err != nil {
		klog.Errorf("metrics: failed to count users: %v", err)
	}
	for _, row := range roleRows {
		ch <- prometheus.MustNewConstMetric(pc.usersDesc, prometheus.GaugeValue, float64(row.Count), row.Role.String())
	}
}

// Handler builds the /metrics handler with the platform collector and the
// standard Go runtime collectors on a dedicated registry.
func Handler(db *gorm.DB) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		newPlatformCollector(db),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
