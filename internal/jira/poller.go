package jira

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clintrovert/pmctl/pkg/types"
)

// TaskSource lists the currently open tasks
type TaskSource interface {
	OpenTasks(ctx context.Context) ([]types.IssueSummary, error)
}

// Poller polls for open tasks and emits each issue the first time it is seen
type Poller struct {
	source    TaskSource
	logger    *zap.Logger
	interval  time.Duration
	processed map[string]bool
	mu        sync.RWMutex
}

// NewPoller creates a new open-task poller
func NewPoller(source TaskSource, interval time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Poller{
		source:    source,
		logger:    logger,
		interval:  interval,
		processed: make(map[string]bool),
	}
}

// Start runs the polling loop until ctx is done
func (p *Poller) Start(ctx context.Context, taskChan chan<- types.IssueSummary) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Initial poll
	p.poll(ctx, taskChan)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("stopping open task poller")
			return
		case <-ticker.C:
			p.poll(ctx, taskChan)
		}
	}
}

// poll performs a single poll operation
func (p *Poller) poll(ctx context.Context, taskChan chan<- types.IssueSummary) {
	tasks, err := p.source.OpenTasks(ctx)
	if err != nil {
		p.logger.Error("failed to fetch open tasks", zap.Error(err))
		return
	}

	for _, task := range tasks {
		if p.isProcessed(task.Key) {
			continue
		}

		p.markProcessed(task.Key)
		select {
		case taskChan <- task:
			p.logger.Info("found new task",
				zap.String("issue", task.Key),
				zap.String("summary", task.Summary),
			)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) isProcessed(key string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.processed[key]
}

func (p *Poller) markProcessed(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed[key] = true
}
