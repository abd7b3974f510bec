// Package metrics collects prometheus counters for account and settings
// activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives account lifecycle and settings events.
type Recorder interface {
	RecordAccountAdded()
	RecordAccountRemoved()
	RecordAccountSwitch()
	RecordLogout()
	RecordSettingWrite(key string)
}

// Nop is a Recorder that records nothing.
type Nop struct{}

func (Nop) RecordAccountAdded()       {}
func (Nop) RecordAccountRemoved()     {}
func (Nop) RecordAccountSwitch()      {}
func (Nop) RecordLogout()             {}
func (Nop) RecordSettingWrite(string) {}

// OtherKey labels writes to keys outside KnownKeys.
const OtherKey = "other"

// Collector is the prometheus Recorder.
type Collector struct {
	accountsAdded   prometheus.Counter
	accountsRemoved prometheus.Counter
	switches        prometheus.Counter
	logouts         prometheus.Counter
	settingWrites   *prometheus.CounterVec
	knownKeys       map[string]struct{}
}

// NewCollector creates a Collector and registers it with reg. Setting writes
// are labelled by key only for knownKeys; everything else is counted as
// OtherKey so that caller-defined keys cannot blow up label cardinality.
func NewCollector(reg prometheus.Registerer, knownKeys ...string) *Collector {
	c := &Collector{
		accountsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kurozora_accounts_added_total",
			Help: "Accounts added or updated in the roster.",
		}),
		accountsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kurozora_accounts_removed_total",
			Help: "Accounts removed from the roster.",
		}),
		switches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kurozora_account_switches_total",
			Help: "Active account switches.",
		}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kurozora_logouts_total",
			Help: "Logouts of the active account.",
		}),
		settingWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kurozora_settings_writes_total",
			Help: "Writes to account-scoped settings by key.",
		}, []string{"key"}),
		knownKeys: make(map[string]struct{}, len(knownKeys)),
	}
	for _, k := range knownKeys {
		c.knownKeys[k] = struct{}{}
	}

	reg.MustRegister(
		c.accountsAdded,
		c.accountsRemoved,
		c.switches,
		c.logouts,
		c.settingWrites,
	)
	return c
}

func (c *Collector) RecordAccountAdded()   { c.accountsAdded.Inc() }
func (c *Collector) RecordAccountRemoved() { c.accountsRemoved.Inc() }
func (c *Collector) RecordAccountSwitch()  { c.switches.Inc() }
func (c *Collector) RecordLogout()         { c.logouts.Inc() }

func (c *Collector) RecordSettingWrite(key string) {
	if _, ok := c.knownKeys[key]; !ok {
		key = OtherKey
	}
	c.settingWrites.WithLabelValues(key).Inc()
}
