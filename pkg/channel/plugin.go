// Package channel defines the chat message model and the event-source interface
// the watcher consumes.
package channel

import "context"

// SourceType 事件源类型
type SourceType string

const (
	SourceTypeDiscord SourceType = "discord"
)

// ReadyEvent 会话就绪事件
type ReadyEvent struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

// Source 消息事件源接口
type Source interface {
	// ID 返回事件源唯一标识
	ID() SourceType

	// Start 建立会话并开始派发事件
	Start(ctx context.Context) error

	// Stop 关闭会话
	Stop(ctx context.Context) error

	// OnMessage 注册消息回调
	OnMessage(handler MessageHandler)

	// OnReady 注册就绪回调
	OnReady(handler ReadyHandler)
}

// MessageHandler 消息处理回调
type MessageHandler func(ctx context.Context, msg Message) error

// ReadyHandler 就绪回调
type ReadyHandler func(ctx context.Context, ev ReadyEvent)
