package worker

import (
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

// IJob cron job
type IJob interface {
	Start() error
	Run()
	Stop() error
}

type OnWork func() error

// BaseJob runs OnWork on every cron tick, skipping ticks while a run is in progress
type BaseJob struct {
	Cron      *cron.Cron
	OnWork    OnWork
	isRunning int32
}

func (job *BaseJob) Start() error {
	job.Cron.Start()
	return nil
}

// Stop stops the scheduler and waits for the running job
func (job *BaseJob) Stop() error {
	<-job.Cron.Stop().Done()
	return nil
}

func (job *BaseJob) Run() {
	if !atomic.CompareAndSwapInt32(&job.isRunning, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&job.isRunning, 0)

	_ = job.OnWork()
}
