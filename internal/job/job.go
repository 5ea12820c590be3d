package job

import (
	"time"
)

type Job interface {
	Execute()
}

type Queue chan Job

// NewQueue sizes the buffer so post-commit broadcast dispatch never
// blocks a request goroutine under normal load.
func NewQueue(size int) Queue {
	return make(Queue, size)
}

// Dispatch enqueues a job after an optional delay.
func (q Queue) Dispatch(job Job, delay time.Duration) {
	if delay <= 0 {
		q <- job
		return
	}

	go func() {
		<-time.After(delay)
		q <- job
	}()
}

type WorkerPool struct {
	workers []Worker
}

func NewWorkerPool(size int, queue Queue) *WorkerPool {
	workers := make([]Worker, size)
	for i := 0; i < size; i++ {
		workers[i] = NewWorker(queue)
	}

	return &WorkerPool{workers}
}

func (p *WorkerPool) Start() {
	for _, worker := range p.workers {
		worker.Start()
	}
}

type Worker struct {
	jobQueue Queue
}

func NewWorker(jobQueue Queue) Worker {
	return Worker{jobQueue}
}

func (w *Worker) Start() {
	go func() {
		for job := range w.jobQueue {
			job.Execute()
		}
	}()
}
