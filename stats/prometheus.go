package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starshine-sys/guildcache/cache"
)

// Prometheus keeps gauges of the cache's size and counts processed events.
type Prometheus struct {
	registry *prometheus.Registry

	guilds prometheus.Gauge
	users  prometheus.Gauge
	events *prometheus.CounterVec
}

var _ Sink = (*Prometheus)(nil)

// NewPrometheus registers its metrics on reg, or on a new registry if reg is nil.
func NewPrometheus(reg *prometheus.Registry) *Prometheus {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	p := &Prometheus{
		registry: reg,
		guilds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "guildcache",
			Name:      "guilds",
			Help:      "Number of guilds the bot is in.",
		}),
		users: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "guildcache",
			Name:      "users",
			Help:      "Sum of the member counts of every guild.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guildcache",
			Name:      "events_total",
			Help:      "Gateway events applied to the cache.",
		}, []string{"event"}),
	}

	reg.MustRegister(p.guilds, p.users, p.events)
	return p
}

func (p *Prometheus) AddGuilds(delta int64) { p.guilds.Add(float64(delta)) }
func (p *Prometheus) AddUsers(delta int64)  { p.users.Add(float64(delta)) }

func (p *Prometheus) RegisterEvent(name string) {
	p.events.WithLabelValues(name).Inc()
}

// StatsSource is implemented by *cache.Cache.
type StatsSource interface {
	Stats() cache.Stats
}

// Observe exports the sizes of the cache's stores as gauges, read at scrape time.
func (p *Prometheus) Observe(src StatsSource) {
	gauge := func(name, help string, fn func(cache.Stats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "guildcache",
			Subsystem: "cache",
			Name:      name,
			Help:      help,
		}, func() float64 { return fn(src.Stats()) })
	}

	p.registry.MustRegister(
		gauge("guilds", "Cached available guilds.", func(s cache.Stats) float64 { return float64(s.Guilds) }),
		gauge("unavailable_guilds", "Guilds marked unavailable.", func(s cache.Stats) float64 { return float64(s.Unavailable) }),
		gauge("channels", "Cached channels.", func(s cache.Stats) float64 { return float64(s.Channels) }),
		gauge("roles", "Cached roles.", func(s cache.Stats) float64 { return float64(s.Roles) }),
		gauge("members", "Cached members.", func(s cache.Stats) float64 { return float64(s.Members) }),
		gauge("users", "Cached users.", func(s cache.Stats) float64 { return float64(s.Users) }),
		gauge("index_skips", "Children whose guild wasn't cached when they arrived.", func(s cache.Stats) float64 { return float64(s.IndexSkips) }),
		gauge("permission_faults", "Permission computations that failed on inconsistent data.", func(s cache.Stats) float64 { return float64(s.PermissionFaults) }),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
