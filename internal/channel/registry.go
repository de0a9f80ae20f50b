// Package channel keeps the event sources the watcher listens to.
package channel

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hookwatch/pkg/channel"
)

// Registry 事件源注册表
type Registry struct {
	sources map[channel.SourceType]channel.Source
	mu      sync.RWMutex
}

// NewRegistry 创建新的事件源注册表
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[channel.SourceType]channel.Source),
	}
}

// Register 注册事件源，同类型的旧事件源会被替换
func (r *Registry) Register(src channel.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[src.ID()] = src
}

// Get 获取指定事件源
func (r *Registry) Get(id channel.SourceType) (channel.Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[id]
	return src, ok
}

// All 获取所有事件源，按类型排序
func (r *Registry) All() []channel.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]channel.Source, 0, len(r.sources))
	for _, src := range r.sources {
		result = append(result, src)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

// Bind 为所有事件源注册回调
func (r *Registry) Bind(onMessage channel.MessageHandler, onReady channel.ReadyHandler) {
	for _, src := range r.All() {
		src.OnMessage(onMessage)
		src.OnReady(onReady)
	}
}

// StartAll 启动所有事件源
func (r *Registry) StartAll(ctx context.Context) error {
	for _, src := range r.All() {
		if err := src.Start(ctx); err != nil {
			return fmt.Errorf("start source %s: %w", src.ID(), err)
		}
	}
	return nil
}

// StopAll 停止所有事件源
func (r *Registry) StopAll(ctx context.Context) error {
	var lastErr error
	for _, src := range r.All() {
		if err := src.Stop(ctx); err != nil {
			lastErr = fmt.Errorf("stop source %s: %w", src.ID(), err)
		}
	}
	return lastErr
}

// Count 返回注册的事件源数量
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}
