package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mern-eats/my-user-gateway/internal/api/metrics"
	"github.com/mern-eats/my-user-gateway/internal/core/domain"
	"github.com/mern-eats/my-user-gateway/internal/core/ports"
)

const (
	defaultWorkers = 4
	defaultTimeout = 30 * time.Second
	channelBuffer  = 256
)

// Dispatcher runs detached provisioning jobs on a fixed set of workers.
// Jobs are sharded by subject so attempts for one user never race.
type Dispatcher struct {
	workers     []chan domain.ProvisioningJob
	provisioner ports.Provisioner
	timeout     time.Duration
	log         zerolog.Logger

	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

var _ ports.ProvisioningQueue = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers workers. Each job gets
// its own deadline of timeout, independent of the request that queued it.
func NewDispatcher(numWorkers int, timeout time.Duration, provisioner ports.Provisioner, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	d := &Dispatcher{
		workers:     make([]chan domain.ProvisioningJob, numWorkers),
		provisioner: provisioner,
		timeout:     timeout,
		log:         log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.ProvisioningJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// or once Stop has drained their channel.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands job to the worker owning its subject. It blocks only while
// that worker's buffer is full, and gives up when ctx ends.
func (d *Dispatcher) Enqueue(ctx context.Context, job domain.ProvisioningJob) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return domain.ErrQueueClosed
	}

	idx := d.shardIndex(job.Request.Auth0ID)
	select {
	case d.workers[idx] <- job:
		metrics.ProvisioningQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop refuses new jobs, lets the workers finish what is queued and waits
// for them.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// shardIndex maps a subject deterministically to a worker index.
func (d *Dispatcher) shardIndex(subject string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subject))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.ProvisioningJob) {
	defer d.wg.Done()
	depth := metrics.ProvisioningQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.run(ctx, id, job)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, id int, job domain.ProvisioningJob) {
	jobCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.provisioner.Provision(jobCtx, job); err != nil {
		metrics.ProvisioningJobsTotal.WithLabelValues(string(domain.ProvisioningFailed)).Inc()
		d.log.Error().Err(err).
			Str("job_id", job.ID).
			Str("auth0_id", job.Request.Auth0ID).
			Int("worker_id", id).
			Msg("provisioning job failed")
		return
	}
	metrics.ProvisioningJobsTotal.WithLabelValues(string(domain.ProvisioningCreated)).Inc()
}
