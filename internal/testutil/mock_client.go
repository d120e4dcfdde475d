//go:build !production

package testutil

import (
	"sync"

	"github.com/palemoky/trivia-party/internal/protocol"
	"github.com/palemoky/trivia-party/internal/protocol/codec"
)

// SimpleClient 记录收到消息的客户端，可在多个 goroutine 中使用
type SimpleClient struct {
	ID string

	mu       sync.Mutex
	messages []*protocol.Message
	closed   bool
}

// NewSimpleClient 创建测试客户端
func NewSimpleClient(id string) *SimpleClient {
	return &SimpleClient{ID: id}
}

func (c *SimpleClient) GetID() string { return c.ID }

func (c *SimpleClient) SendMessage(msg *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

func (c *SimpleClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed 是否已被关闭
func (c *SimpleClient) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Messages 返回收到的所有消息
func (c *SimpleClient) Messages() []*protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*protocol.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Types 按顺序返回收到的消息类型
func (c *SimpleClient) Types() []protocol.MessageType {
	msgs := c.Messages()
	types := make([]protocol.MessageType, 0, len(msgs))
	for _, m := range msgs {
		types = append(types, m.Type)
	}
	return types
}

// OfType 返回指定类型的消息
func (c *SimpleClient) OfType(typ protocol.MessageType) []*protocol.Message {
	var out []*protocol.Message
	for _, m := range c.Messages() {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

// Last 返回最后一条消息，没有时返回 nil
func (c *SimpleClient) Last() *protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		return nil
	}
	return c.messages[len(c.messages)-1]
}

// Reset 清空已收到的消息
func (c *SimpleClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// Payloads 解析指定类型消息的 payload，解析失败时 panic
func Payloads[T any](c *SimpleClient, typ protocol.MessageType) []T {
	msgs := c.OfType(typ)
	out := make([]T, 0, len(msgs))
	for _, m := range msgs {
		p, err := codec.ParsePayload[T](m)
		if err != nil {
			panic(err)
		}
		out = append(out, *p)
	}
	return out
}
