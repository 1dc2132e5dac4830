package serializer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Poller reads one record cyclically and hands each result to a handler.
type Poller[T any] struct {
	name     string
	mapper   *Mapper[T]
	interval time.Duration
	handler  func(*T)
	logger   *zap.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

func NewPoller[T any](name string, mapper *Mapper[T], interval time.Duration, handler func(*T), logger *zap.Logger) *Poller[T] {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Poller[T]{
		name:     name,
		mapper:   mapper,
		interval: interval,
		handler:  handler,
		logger:   logger,
	}
}

// Start starts the poll loop. Calling Start on a running poller is a no-op.
func (p *Poller[T]) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	if p.interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", p.interval)
	}

	p.running = true
	p.stopChan = make(chan struct{})
	p.wg.Add(1)

	go p.pollLoop(p.stopChan)

	p.logger.Info("Poller started",
		zap.String("record", p.name),
		zap.Duration("interval", p.interval))

	return nil
}

// Stop stops the poll loop and waits for an in-flight read to finish.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	p.mu.Unlock()

	p.wg.Wait()

	p.logger.Info("Poller stopped", zap.String("record", p.name))
}

func (p *Poller[T]) pollLoop(stop <-chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

func (p *Poller[T]) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), p.interval/2)
	defer cancel()

	record, err := p.mapper.Read(ctx)
	if err != nil {
		p.logger.Error("Poll failed",
			zap.String("record", p.name),
			zap.Error(err))
		return
	}

	if p.handler != nil {
		p.handler(record)
	}
}

// IsRunning reports whether the poll loop is active.
func (p *Poller[T]) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
