package server

import "sync"

// Broadcaster 订阅者注册表：所有已打开的连接都会收到 state 与 chat
// 发送失败（连接已关闭）视为隐式退订
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[*ClientConn]struct{}

	metrics *Metrics
}

func NewBroadcaster(metrics *Metrics) *Broadcaster {
	return &Broadcaster{
		subs:    make(map[*ClientConn]struct{}),
		metrics: metrics,
	}
}

func (b *Broadcaster) Subscribe(c *ClientConn) {
	b.mu.Lock()
	b.subs[c] = struct{}{}
	b.mu.Unlock()
}

func (b *Broadcaster) Unsubscribe(c *ClientConn) {
	b.mu.Lock()
	delete(b.subs, c)
	b.mu.Unlock()
}

// Len 当前订阅数
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Broadcast 向所有订阅者投递同一份已序列化的消息，不阻塞
func (b *Broadcaster) Broadcast(msg []byte) {
	b.mu.RLock()
	targets := make([]*ClientConn, 0, len(b.subs))
	for c := range b.subs {
		targets = append(targets, c)
	}
	b.mu.RUnlock()

	for _, c := range targets {
		b.Send(c, msg)
	}
}

// Send 定向投递给单个连接
func (b *Broadcaster) Send(c *ClientConn, msg []byte) {
	open, dropped := c.enqueue(msg)
	if !open {
		b.Unsubscribe(c)
		return
	}
	if dropped {
		b.metrics.IncDropped()
	}
}
