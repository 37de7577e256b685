package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// stateCollector 抓取时从快照计算离线状态汇总
type stateCollector struct {
	source StateSource
	online OnlineCounter

	moonrocks   *prometheus.Desc
	packs       *prometheus.Desc
	activeGames *prometheus.Desc
	clients     *prometheus.Desc
}

func newStateCollector(namespace string, source StateSource, online OnlineCounter) *stateCollector {
	return &stateCollector{
		source:      source,
		online:      online,
		moonrocks:   prometheus.NewDesc(prometheus.BuildFQName(namespace, "offline", "moonrocks"), "Moonrocks held across all packs.", nil, nil),
		packs:       prometheus.NewDesc(prometheus.BuildFQName(namespace, "offline", "packs"), "Number of packs.", nil, nil),
		activeGames: prometheus.NewDesc(prometheus.BuildFQName(namespace, "offline", "active_games"), "Games that are not over.", nil, nil),
		clients:     prometheus.NewDesc(prometheus.BuildFQName(namespace, "websocket", "clients"), "Connected WebSocket clients.", nil, nil),
	}
}

func (c *stateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.moonrocks
	ch <- c.packs
	ch <- c.activeGames
	ch <- c.clients
}

func (c *stateCollector) Collect(ch chan<- prometheus.Metric) {
	if c.source != nil {
		st := c.source.Snapshot()

		moonrocks, active := 0, 0
		for _, p := range st.Packs {
			moonrocks += p.Moonrocks
		}
		for _, g := range st.Games {
			if !g.Over {
				active++
			}
		}

		ch <- prometheus.MustNewConstMetric(c.moonrocks, prometheus.GaugeValue, float64(moonrocks))
		ch <- prometheus.MustNewConstMetric(c.packs, prometheus.GaugeValue, float64(len(st.Packs)))
		ch <- prometheus.MustNewConstMetric(c.activeGames, prometheus.GaugeValue, float64(active))
	}
	if c.online != nil {
		ch <- prometheus.MustNewConstMetric(c.clients, prometheus.GaugeValue, float64(c.online.GetOnlineCount()))
	}
}
