package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-uthreads/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// SchedulerSnapshotProvider provides current scheduler stats snapshots.
type SchedulerSnapshotProvider interface {
	Stats() core.SchedulerStats
}

// SnapshotPoller periodically exports scheduler Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	schedulersMu sync.RWMutex
	schedulers   map[string]SchedulerSnapshotProvider

	liveThreads    *prom.GaugeVec
	readyThreads   *prom.GaugeVec
	blockedThreads *prom.GaugeVec
	totalQuanta    *prom.GaugeVec
	runningThread  *prom.GaugeVec
	closed         *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	gauge := func(name, help string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "uthreads",
			Name:      name,
			Help:      help,
		}, []string{"scheduler"})
	}

	liveThreads := gauge("live_threads", "Threads with a control block, main included.")
	readyThreads := gauge("ready_threads", "Threads in the READY state.")
	blockedThreads := gauge("blocked_threads", "Threads in the BLOCKED state.")
	totalQuanta := gauge("total_quanta", "Quanta started since the scheduler was created.")
	runningThread := gauge("running_thread", "Id of the running thread (-1 once terminated).")
	closed := gauge("closed", "Scheduler terminated state (1=terminated, 0=running).")

	var err error
	if liveThreads, err = registerCollector(reg, liveThreads); err != nil {
		return nil, err
	}
	if readyThreads, err = registerCollector(reg, readyThreads); err != nil {
		return nil, err
	}
	if blockedThreads, err = registerCollector(reg, blockedThreads); err != nil {
		return nil, err
	}
	if totalQuanta, err = registerCollector(reg, totalQuanta); err != nil {
		return nil, err
	}
	if runningThread, err = registerCollector(reg, runningThread); err != nil {
		return nil, err
	}
	if closed, err = registerCollector(reg, closed); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:       interval,
		schedulers:     make(map[string]SchedulerSnapshotProvider),
		liveThreads:    liveThreads,
		readyThreads:   readyThreads,
		blockedThreads: blockedThreads,
		totalQuanta:    totalQuanta,
		runningThread:  runningThread,
		closed:         closed,
	}, nil
}

// AddScheduler adds or replaces a scheduler snapshot provider by name.
func (p *SnapshotPoller) AddScheduler(name string, provider SchedulerSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "default")
	p.schedulersMu.Lock()
	p.schedulers[name] = provider
	p.schedulersMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx, p.done)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

// CollectOnce copies one snapshot of every scheduler into the gauges.
func (p *SnapshotPoller) CollectOnce() {
	if p == nil {
		return
	}
	p.collectOnce()
}

func (p *SnapshotPoller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.schedulersMu.RLock()
	defer p.schedulersMu.RUnlock()

	for name, provider := range p.schedulers {
		stats := provider.Stats()
		p.liveThreads.WithLabelValues(name).Set(float64(stats.Live))
		p.readyThreads.WithLabelValues(name).Set(float64(stats.Ready))
		p.blockedThreads.WithLabelValues(name).Set(float64(stats.Blocked))
		p.totalQuanta.WithLabelValues(name).Set(float64(stats.TotalQuanta))
		p.runningThread.WithLabelValues(name).Set(float64(stats.Running))
		if stats.Closed {
			p.closed.WithLabelValues(name).Set(1)
		} else {
			p.closed.WithLabelValues(name).Set(0)
		}
	}
}
