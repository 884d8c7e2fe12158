package stats

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starshine-sys/guildcache/cache"
)

type staticStats cache.Stats

func (s staticStats) Stats() cache.Stats { return cache.Stats(s) }

func TestPrometheusGauges(t *testing.T) {
	p := NewPrometheus(nil)

	p.AddGuilds(2)
	p.AddUsers(150)
	p.AddGuilds(-1)
	p.AddUsers(-50)
	p.RegisterEvent("MemberAdd")
	p.RegisterEvent("MemberAdd")

	assert.Equal(t, 1.0, testutil.ToFloat64(p.guilds))
	assert.Equal(t, 100.0, testutil.ToFloat64(p.users))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.events.WithLabelValues("MemberAdd")))
}

func TestPrometheusObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)
	p.Observe(staticStats{Guilds: 3, Members: 42, PermissionFaults: 1})

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "guildcache_cache_members 42")
	assert.Contains(t, string(body), "guildcache_cache_permission_faults 1")

	n, err := testutil.GatherAndCount(reg, "guildcache_cache_guilds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

type recordingSink struct {
	guilds, users int64
	events        []string
}

func (r *recordingSink) AddGuilds(d int64)         { r.guilds += d }
func (r *recordingSink) AddUsers(d int64)          { r.users += d }
func (r *recordingSink) RegisterEvent(name string) { r.events = append(r.events, name) }

func TestMulti(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := Multi{a, nil, b}

	m.AddGuilds(1)
	m.AddUsers(10)
	m.RegisterEvent("GuildCreate")

	for _, s := range []*recordingSink{a, b} {
		assert.EqualValues(t, 1, s.guilds)
		assert.EqualValues(t, 10, s.users)
		assert.Equal(t, []string{"GuildCreate"}, s.events)
	}
}

func TestInfluxStatistics(t *testing.T) {
	c := NewInflux("http://localhost:8086", "token", "org", "bucket")
	t.Cleanup(c.client.Close)

	c.AddGuilds(2)
	c.AddUsers(30)
	c.RegisterEvent("Ready")

	data := c.statistics(1)
	assert.EqualValues(t, 2, data["guilds"])
	assert.EqualValues(t, 30, data["users"])
	assert.EqualValues(t, 1, data["events"])
	assert.Contains(t, data, "goroutines")
}
