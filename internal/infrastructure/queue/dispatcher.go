package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/inventario/catalog-api/internal/api/metrics"
	"github.com/inventario/catalog-api/internal/core/domain"
	"github.com/inventario/catalog-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
	drainTimeout   = 10 * time.Second
)

// Dispatcher persists cascade audit records on a fixed set of workers. Records
// are sharded by target id, so traces of one entity are written in order.
type Dispatcher struct {
	workers []chan domain.CascadeAudit
	repo    ports.AuditRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.CascadeAudit, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.CascadeAudit, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their queue and stop
// when ctx is cancelled; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands a record to the worker responsible for its target. It never
// blocks: when the worker queue is full the record is dropped and counted.
func (d *Dispatcher) Enqueue(audit domain.CascadeAudit) {
	idx := d.shardIndex(audit.EntityID)
	select {
	case d.workers[idx] <- audit:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.AuditDroppedTotal.Inc()
		d.log.Warn().
			Str("entity", string(audit.Entity)).
			Str("entity_id", audit.EntityID).
			Str("outcome", audit.Outcome).
			Msg("audit queue full, record dropped")
	}
}

// shardIndex maps a target id deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.CascadeAudit) {
	defer d.wg.Done()
	depth := metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			depth.Set(0)
			return
		case audit := <-ch:
			depth.Set(float64(len(ch)))
			d.write(ctx, id, audit)
		}
	}
}

// drain persists whatever is still queued after shutdown was requested.
func (d *Dispatcher) drain(id int, ch <-chan domain.CascadeAudit) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case audit := <-ch:
			d.write(ctx, id, audit)
		default:
			return
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, id int, audit domain.CascadeAudit) {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := d.repo.Insert(writeCtx, &audit); err != nil {
		d.log.Error().Err(err).
			Str("entity", string(audit.Entity)).
			Str("entity_id", audit.EntityID).
			Str("outcome", audit.Outcome).
			Int("worker_id", id).
			Msg("audit write failed")
	}
}
