package integration

import (
	"context"
	"github.com/shimmeringbee/myjd/entity"
	"math/rand"
	"sync"
	"time"
)

const pollerBacklog = 200
const pollerWorkers = 4
const workerMaximumJobDuration = 30 * time.Second

type pollFn func(context.Context, entity.Entity) bool

// poller runs entity polls on a fixed pool of workers. Jobs are keyed by entity unique id, a job whose entity is no
// longer registered is dropped rather than run or rescheduled.
type poller struct {
	lookup func(string) (entity.Entity, bool)

	pollerWork chan pollerWork
	done       chan struct{}
	wg         *sync.WaitGroup
	stopOnce   *sync.Once

	randLock *sync.Mutex
	rand     *rand.Rand
}

type pollerWork struct {
	uniqueID string
	interval time.Duration
	fn       pollFn
}

func newPoller(lookup func(string) (entity.Entity, bool)) *poller {
	return &poller{
		lookup:   lookup,
		wg:       &sync.WaitGroup{},
		stopOnce: &sync.Once{},
		randLock: &sync.Mutex{},
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start launches the workers. A stopped poller may be started again.
func (p *poller) Start() {
	p.wg = &sync.WaitGroup{}
	p.stopOnce = &sync.Once{}
	p.done = make(chan struct{})
	p.pollerWork = make(chan pollerWork, pollerBacklog)

	for i := 0; i < pollerWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop signals every worker and waits for in-flight jobs to return. Pending timers fire into a closed done channel
// and are discarded.
func (p *poller) Stop() {
	if p.done == nil {
		return
	}

	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
	})
}

// Add schedules fn every interval, starting after a random delay within the first interval so jobs added together
// spread out.
func (p *poller) Add(uniqueID string, interval time.Duration, fn pollFn) {
	p.randLock.Lock()
	initialWait := time.Duration(float64(interval) * p.rand.Float64())
	p.randLock.Unlock()

	p.schedule(initialWait, pollerWork{uniqueID: uniqueID, interval: interval, fn: fn})
}

// AddNow schedules fn every interval, with the first run queued immediately.
func (p *poller) AddNow(uniqueID string, interval time.Duration, fn pollFn) {
	p.schedule(0, pollerWork{uniqueID: uniqueID, interval: interval, fn: fn})
}

func (p *poller) schedule(wait time.Duration, work pollerWork) {
	time.AfterFunc(wait, func() {
		select {
		case p.pollerWork <- work:
		case <-p.done:
		}
	})
}

func (p *poller) worker() {
	defer p.wg.Done()

	for {
		select {
		case work := <-p.pollerWork:
			e, found := p.lookup(work.uniqueID)

			if found {
				ctx, cancel := context.WithTimeout(context.Background(), workerMaximumJobDuration)

				if work.fn(ctx, e) {
					p.schedule(work.interval, work)
				}

				cancel()
			}
		case <-p.done:
			return
		}
	}
}
