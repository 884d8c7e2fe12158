package stats

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/starshine-sys/guildcache/common/log"
)

// Influx is an InfluxDB client
type Influx struct {
	Client api.WriteAPI
	client influxdb2.Client
	log    *zap.SugaredLogger

	guilds atomic.Int64
	users  atomic.Int64

	m  map[string]uint32
	mu sync.Mutex
}

var _ Sink = (*Influx)(nil)

// NewInflux creates a new client. Call Run to start submitting metrics.
func NewInflux(url, token, organization, bucket string) *Influx {
	c := &Influx{
		m:   make(map[string]uint32),
		log: log.Named("influx"),
	}

	c.client = influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().SetBatchSize(20))
	c.Client = c.client.WriteAPI(organization, bucket)

	return c
}

func (c *Influx) AddGuilds(delta int64) { c.guilds.Add(delta) }
func (c *Influx) AddUsers(delta int64)  { c.users.Add(delta) }

// RegisterEvent registers an event name.
func (c *Influx) RegisterEvent(name string) {
	c.mu.Lock()
	c.m[name]++
	c.mu.Unlock()
}

// Run submits metrics every interval until ctx is cancelled.
func (c *Influx) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			go c.submit()
		case <-ctx.Done():
			c.Client.Flush()
			c.client.Close()
			return
		}
	}
}

func (c *Influx) submit() {
	c.log.Debug("Submitting metrics to InfluxDB")

	var totalEvents uint32

	c.mu.Lock()
	im := make(map[string]interface{}, len(c.m))
	for k, v := range c.m {
		totalEvents += v
		im[k] = v
		c.m[k] = 0
	}
	c.mu.Unlock()

	if len(im) > 0 {
		c.Client.WritePoint(influxdb2.NewPoint("events", nil, im, time.Now()))
	}

	c.Client.WritePoint(influxdb2.NewPoint("statistics", nil, c.statistics(totalEvents), time.Now()))
}

func (c *Influx) statistics(events uint32) map[string]interface{} {
	stats := runtime.MemStats{}
	runtime.ReadMemStats(&stats)

	data := map[string]interface{}{
		"guilds":      c.guilds.Load(),
		"users":       c.users.Load(),
		"events":      events,
		"alloc":       stats.Alloc,
		"sys":         stats.Sys,
		"total_alloc": stats.TotalAlloc,
		"goroutines":  runtime.NumGoroutine(),
	}

	sysMem, err := mem.VirtualMemory()
	if err != nil {
		c.log.Errorf("Error getting system memory: %v", err)
	} else {
		data["total_sys"] = sysMem.Used
		data["total_sys_percent"] = sysMem.UsedPercent
	}

	// usage since the previous call
	cpuData, err := cpu.Percent(0, true)
	if err != nil {
		c.log.Errorf("Error getting cpu info: %v", err)
	} else {
		for i, d := range cpuData {
			data[fmt.Sprintf("cpu_%d", i)] = d
		}
	}

	return data
}
