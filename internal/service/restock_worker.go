package service

import (
	"context"
	"sync"

	"studybuddy_backend/pkg/logger"
	"studybuddy_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// RestockWorker consumes restock requests off a buffered queue and tops up
// the bank out of band. Enqueue never blocks the response path and worker
// failures never surface to callers.
type RestockWorker struct {
	picker *PickerService
	queue  chan RestockRequest
	quit   chan struct{}
	wg     sync.WaitGroup
}

func NewRestockWorker(picker *PickerService, queueSize int) *RestockWorker {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &RestockWorker{
		picker: picker,
		queue:  make(chan RestockRequest, queueSize),
		quit:   make(chan struct{}),
	}
}

// Enqueue hands a request to the worker. Returns false when the queue is
// full: restocking is best-effort and a dropped request just means the next
// fetch raises the signal again.
func (w *RestockWorker) Enqueue(req RestockRequest) bool {
	select {
	case w.queue <- req:
		monitoring.RestockEnqueued.Inc()
		return true
	default:
		monitoring.RestockDropped.Inc()
		logger.Log.Warn("restock queue full, dropping request",
			zap.String("subject", req.Subject),
			zap.String("topic", req.Topic),
			zap.String("subtopic", req.SubTopic))
		return false
	}
}

func (w *RestockWorker) Run() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case req := <-w.queue:
				w.process(req)
			case <-w.quit:
				w.drain()
				return
			}
		}
	}()
}

// Stop blocks until the worker has processed everything queued before the
// call, then returns. Requests enqueued after Stop may be dropped.
func (w *RestockWorker) Stop() {
	close(w.quit)
	w.wg.Wait()
}

// drain works off whatever is still buffered at shutdown.
func (w *RestockWorker) drain() {
	for {
		select {
		case req := <-w.queue:
			w.process(req)
		default:
			return
		}
	}
}

func (w *RestockWorker) process(req RestockRequest) {
	// Allow room for the generator's bounded retries.
	ctx, cancel := context.WithTimeout(context.Background(), 3*w.picker.Cfg.GenerationTimeout)
	defer cancel()

	if err := w.picker.TopUpStock(ctx, req); err != nil {
		logger.Log.Warn("restock task failed",
			zap.String("subject", req.Subject),
			zap.String("topic", req.Topic),
			zap.String("subtopic", req.SubTopic),
			zap.Int("count", req.Count),
			zap.Error(err))
		return
	}
	logger.Log.Info("restocked question bank",
		zap.String("subject", req.Subject),
		zap.String("topic", req.Topic),
		zap.String("subtopic", req.SubTopic),
		zap.Int("count", req.Count))
}
