package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1 << 20 // 1MB
	sendQueueSize  = 64
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ws:   ws,
		send: make(chan []byte, sendQueueSize),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
// 返回 false 表示连接已关闭
func (c *ClientConn) Enqueue(b []byte) bool {
	ok, _ := c.enqueue(b)
	return ok
}

// enqueue 额外报告消息是否因队列已满被丢弃
func (c *ClientConn) enqueue(b []byte) (open, dropped bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, false
	}
	select {
	case c.send <- b:
		return true, false
	default:
		// 为了实时性，丢弃本条消息（防止阻塞 Tick）
		return true, true
	}
}

// Close 关闭发送队列；写协程写完已排队的消息后断开连接
// 可重复调用
func (c *ClientConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Closed 连接是否已关闭
func (c *ClientConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// readPump 读取客户端消息，交给 Session 分派
// 退出时关闭连接，并在 Tick 协程中移除该玩家
func (c *ClientConn) readPump(s *Session) {
	defer s.closed()
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { c.ws.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		s.HandleMessage(payload)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 游戏客户端可能来自任意来源
		return true
	},
}

// HandleWS WebSocket 接入：先做准入检查，通过后订阅广播并启动读写协程
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}
	client := NewClientConn(ws)
	go client.writePump()

	ip := RemoteIP(r)
	if err := s.conns.Admit(ip); err != nil {
		Log.Infof("connection rejected: ip=%s reason=%v", ip, err)
		s.metrics.IncRejected(rejectReason(err))
		client.Enqueue(encodeError(AdmissionMessage(err)))
		client.Close()
		return
	}

	sess := s.newSession(client, ip)
	s.broadcaster.Subscribe(client)
	s.metrics.SetConnections(s.conns.Active())
	go client.readPump(sess)
}

// RemoteIP 取连接的源地址（不信任转发头，封禁按真实对端地址）
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
