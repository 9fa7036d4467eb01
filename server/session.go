package server

import (
	"encoding/json"
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

// Session 一个连接的会话：加入前没有绑定玩家
// playerID 只由该连接的读协程读写
type Session struct {
	srv  *Server
	conn *ClientConn
	ip   string

	playerID PlayerID
	chat     *rate.Limiter

	closeOnce sync.Once
}

func (s *Server) newSession(conn *ClientConn, ip string) *Session {
	return &Session{
		srv:  s,
		conn: conn,
		ip:   ip,
		chat: rate.NewLimiter(rate.Limit(s.cfg.ChatRate), s.cfg.ChatBurst),
	}
}

// HandleMessage 解码一条入站消息并分派
// 格式错误、未知类型、未加入时的 chat/input 一律静默忽略
func (s *Session) HandleMessage(payload []byte) {
	var msg InboundMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return
	}
	s.srv.metrics.IncInbound(msg.Type)
	switch msg.Type {
	case MsgJoin:
		s.handleJoin(msg)
	case MsgChat:
		s.handleChat(msg)
	case MsgInput:
		s.handleInput(msg)
	}
}

func (s *Session) handleJoin(msg InboundMessage) {
	if s.playerID != "" {
		return
	}
	id, err := s.srv.room.Join(s, msg.Nickname, msg.Color)
	if err != nil {
		if !errors.Is(err, ErrRoomClosed) {
			s.conn.Enqueue(encodeError(AdmissionMessage(err)))
		}
		s.conn.Close()
		return
	}
	s.playerID = id
}

func (s *Session) handleChat(msg InboundMessage) {
	if s.playerID == "" {
		return
	}
	if !s.chat.Allow() {
		s.srv.metrics.IncChatLimited()
		return
	}
	s.srv.room.Chat(s.playerID, msg.Message)
}

func (s *Session) handleInput(msg InboundMessage) {
	if s.playerID == "" || msg.Keys == nil {
		return
	}
	s.srv.room.OnInput(Input{PlayerID: s.playerID, Keys: *msg.Keys})
}

// closed 连接断开：退订广播、归还 IP 名额、移除玩家；可重复调用
func (s *Session) closed() {
	s.closeOnce.Do(func() {
		s.conn.Close()
		s.srv.broadcaster.Unsubscribe(s.conn)
		s.srv.conns.Release(s.ip)
		s.srv.metrics.SetConnections(s.srv.conns.Active())
		if s.playerID != "" {
			s.srv.room.RequestLeave(s.playerID)
		}
	})
}
