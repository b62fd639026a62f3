// Package metrics exposes Prometheus counters for catalog and enrollment
// activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the engines report to. A nil Recorder is not allowed;
// use Nop when metrics are not wanted.
type Recorder interface {
	CourseCreated()
	CourseDeleted()
	CoursePublished()
	Purchase()
	ListChange(list, op string)
	ReviewAdded()
}

// Collector records engine activity into Prometheus metrics.
type Collector struct {
	coursesCreated   prometheus.Counter
	coursesDeleted   prometheus.Counter
	coursesPublished prometheus.Counter
	purchases        prometheus.Counter
	listChanges      *prometheus.CounterVec
	reviews          prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		coursesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coursehub_courses_created_total",
			Help: "Courses created by instructors.",
		}),
		coursesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coursehub_courses_deleted_total",
			Help: "Courses deleted by their authors.",
		}),
		coursesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coursehub_courses_published_total",
			Help: "Draft courses moved to published.",
		}),
		purchases: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coursehub_purchases_total",
			Help: "Completed course purchases.",
		}),
		listChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_list_changes_total",
			Help: "Cart, wishlist and archive changes by list and operation.",
		}, []string{"list", "op"}),
		reviews: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coursehub_reviews_total",
			Help: "Course reviews written.",
		}),
	}

	reg.MustRegister(
		c.coursesCreated,
		c.coursesDeleted,
		c.coursesPublished,
		c.purchases,
		c.listChanges,
		c.reviews,
	)
	return c
}

func (c *Collector) CourseCreated() { c.coursesCreated.Inc() }
func (c *Collector) CourseDeleted() { c.coursesDeleted.Inc() }
func (c *Collector) CoursePublished() { c.coursesPublished.Inc() }
func (c *Collector) Purchase() { c.purchases.Inc() }
func (c *Collector) ReviewAdded() { c.reviews.Inc() }

// ListChange counts an add or remove on one of the user lists.
func (c *Collector) ListChange(list, op string) {
	c.listChanges.WithLabelValues(list, op).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) CourseCreated() {}
func (Nop) CourseDeleted() {}
func (Nop) CoursePublished() {}
func (Nop) Purchase() {}
func (Nop) ListChange(_, _ string) {}
func (Nop) ReviewAdded() {}
