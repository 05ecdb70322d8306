// Package broadcaster implements the submit-broadcaster (spec.md §5
// Redundancy): fans a single order submission out to N parallel
// adapter clients, first success wins, and tracks per-client health.
// Grounded on the teacher's internal/architecture/fx/workerpool
// (panjf2000/ants fan-out) and internal/architecture/fx/resilience
// (sony/gobreaker per-client health), stripped of their fx.In wiring
// since the execution core is a plain library.
package broadcaster

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/tradsys-core/internal/adapter"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

// ClientConfig names one adapter client in the redundancy set, with its
// own circuit-breaker tuning (spec.md §5 "Per-client health is a
// boolean plus periodic health-check task with configurable interval
// and timeout").
type ClientConfig struct {
	Name             string
	Adapter          adapter.Adapter
	HealthInterval   time.Duration
	HealthTimeout    time.Duration
	BreakerMaxReqs   uint32
	BreakerInterval  time.Duration
	BreakerTimeout   time.Duration
}

type client struct {
	cfg     ClientConfig
	breaker *gobreaker.CircuitBreaker

	mu      sync.RWMutex
	healthy bool
	stop    chan struct{}
}

// Broadcaster fans out submits across a fixed set of adapter clients
// using a bounded ants worker pool, honoring "first success wins,
// remaining in-flight requests are aborted" (spec.md §5).
type Broadcaster struct {
	pool    *ants.Pool
	clients []*client
	metrics *Metrics
	log     *zap.Logger
}

// New builds a Broadcaster over clients, starting each one's periodic
// health-check task. poolSize bounds concurrent in-flight fan-outs.
func New(clients []ClientConfig, poolSize int, metrics *Metrics, log *zap.Logger) (*Broadcaster, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	b := &Broadcaster{pool: pool, metrics: metrics, log: log}
	for _, cc := range clients {
		c := &client{cfg: cc, healthy: true, stop: make(chan struct{})}
		settings := gobreaker.Settings{
			Name:        cc.Name,
			MaxRequests: cc.BreakerMaxReqs,
			Interval:    cc.BreakerInterval,
			Timeout:     cc.BreakerTimeout,
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Info("broadcaster client breaker state changed",
					zap.String("client", name), zap.String("from", from.String()), zap.String("to", to.String()))
			},
		}
		c.breaker = gobreaker.NewCircuitBreaker(settings)
		b.clients = append(b.clients, c)
		if cc.HealthInterval > 0 {
			go b.runHealthCheck(c)
		}
	}
	return b, nil
}

func (b *Broadcaster) runHealthCheck(c *client) {
	ticker := time.NewTicker(c.cfg.HealthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HealthTimeout)
			err := c.cfg.Adapter.HealthCheck(ctx)
			cancel()
			c.mu.Lock()
			c.healthy = err == nil
			c.mu.Unlock()
			if err != nil {
				b.log.Debug("broadcaster client health check failed", zap.String("client", c.cfg.Name), zap.Error(err))
			}
		}
	}
}

// Close stops every client's health-check loop and releases the pool.
func (b *Broadcaster) Close() {
	for _, c := range b.clients {
		close(c.stop)
	}
	b.pool.Release()
}

// submitResult is one client's outcome of a fan-out attempt.
type submitResult struct {
	client *client
	report adapter.OrderStatusReport
	err    error
}

// Submit fans req out to every healthy client with a distinct
// ClientOrderId suffix (<id>, <id>-1, …), waits for the first success,
// aborts the rest via ctx cancellation, and counts the losers that
// fail with context.Canceled as expected rejects (spec.md §5). Other
// errors, including a venue's own duplicate-id rejection, are not
// treated as expected; error messages are not inspected.
func (b *Broadcaster) Submit(ctx context.Context, req adapter.SubmitRequest) (adapter.OrderStatusReport, error) {
	b.metrics.Total.Inc()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan submitResult, len(b.clients))
	var wg sync.WaitGroup

	for i, c := range b.clients {
		c := c
		suffix := ""
		if i > 0 {
			suffix = fmt.Sprintf("-%d", i)
		}
		clientReq := req
		clientReq.ClientOrderId = ids.ClientOrderId(string(req.ClientOrderId) + suffix)

		if !c.isHealthy() {
			continue
		}

		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			out, err := c.breaker.Execute(func() (interface{}, error) {
				return c.cfg.Adapter.SubmitOrder(ctx, clientReq)
			})
			if err != nil {
				results <- submitResult{client: c, err: err}
				return
			}
			results <- submitResult{client: c, report: out.(adapter.OrderStatusReport)}
		})
		if err != nil {
			wg.Done()
			b.log.Warn("broadcaster failed to submit to pool", zap.String("client", c.cfg.Name), zap.Error(err))
		}
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for res := range results {
		if res.err == nil {
			cancel() // abort remaining in-flight requests
			b.metrics.Successful.Inc()
			go b.drainExpectedRejects(results)
			return res.report, nil
		}
		if isExpectedDuplicateReject(res.err) {
			b.metrics.ExpectedRejects.Inc()
			b.log.Debug("broadcaster expected duplicate-id rejection", zap.String("client", res.client.cfg.Name), zap.Error(res.err))
			continue
		}
		if firstErr == nil {
			firstErr = res.err
		}
	}

	b.metrics.Failed.Inc()
	if firstErr == nil {
		firstErr = fmt.Errorf("no healthy adapter clients")
	}
	return adapter.OrderStatusReport{}, firstErr
}

// drainExpectedRejects consumes the remaining (aborted) fan-out results
// after a winner is chosen, so their goroutines don't block forever on
// a full channel send.
func (b *Broadcaster) drainExpectedRejects(results <-chan submitResult) {
	for res := range results {
		if res.err != nil && isExpectedDuplicateReject(res.err) {
			b.metrics.ExpectedRejects.Inc()
		}
	}
}

func isExpectedDuplicateReject(err error) bool {
	return errors.Is(err, context.Canceled)
}

func (c *client) isHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthy
}
