package systems

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vkdemos/engine/core"
)

/** @brief A unit of work. Run is called on one of the workers. */
type JobTask struct {
	Name string
	Run  func() error
}

// JobSystem is a fixed pool of workers draining a job queue.
type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup

	mutex   sync.Mutex
	pending sync.WaitGroup
	errs    error
	closed  bool
}

var ErrNoWorkers = errors.New("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = errors.New("attempting to create worker pool with a negative channel size")
var ErrJobSystemClosed = errors.New("job system is shut down")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
	}
	js.start()
	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				if err := job.Run(); err != nil {
					core.LogError("job %s: %v", job.Name, err)
					js.mutex.Lock()
					js.errs = errors.CombineErrors(js.errs, errors.Wrapf(err, "job %s", job.Name))
					js.mutex.Unlock()
				}
				js.pending.Done()
			}
		}()
	}
}

/**
 * @brief Submits the provided job to be queued for execution.
 * Blocks while the queue is full.
 */
func (js *JobSystem) Submit(jt JobTask) error {
	js.mutex.Lock()
	if js.closed {
		js.mutex.Unlock()
		return ErrJobSystemClosed
	}
	js.pending.Add(1)
	js.mutex.Unlock()

	js.jobQueue <- jt
	return nil
}

// Wait blocks until every submitted job ran and returns their combined
// errors. The error list is cleared.
func (js *JobSystem) Wait() error {
	js.pending.Wait()
	js.mutex.Lock()
	defer js.mutex.Unlock()
	err := js.errs
	js.errs = nil
	return err
}

/**
 * @brief Shuts the job system down after the queued jobs ran.
 */
func (js *JobSystem) Shutdown() error {
	js.mutex.Lock()
	if js.closed {
		js.mutex.Unlock()
		return ErrJobSystemClosed
	}
	js.closed = true
	js.mutex.Unlock()

	close(js.jobQueue)
	js.wg.Wait()
	return nil
}
