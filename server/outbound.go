package server

import (
	"encoding/json"
	"time"
)

// SystemSender 系统通知的发送者名
const SystemSender = "system"

type joinReply struct {
	Type     string          `json:"type"`
	PlayerID PlayerID        `json:"playerId"`
	Map      json.RawMessage `json:"map"`
}

type stateMessage struct {
	Type    string              `json:"type"`
	Players map[PlayerID]Player `json:"players"`
}

type chatMessage struct {
	Type      string `json:"type"`
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type reasonMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func encodeJoin(id PlayerID, m *GameMap) []byte {
	b, _ := json.Marshal(joinReply{Type: MsgJoin, PlayerID: id, Map: m.Raw})
	return b
}

func encodeState(players map[PlayerID]Player) []byte {
	b, _ := json.Marshal(stateMessage{Type: "state", Players: players})
	return b
}

func encodeChat(sender, message string, at time.Time) []byte {
	b, _ := json.Marshal(chatMessage{Type: MsgChat, Sender: sender, Message: message, Timestamp: at.UnixMilli()})
	return b
}

func encodeError(message string) []byte {
	b, _ := json.Marshal(errorMessage{Type: "error", Message: message})
	return b
}

// encodeReason 用于 kick / ban 通知
func encodeReason(kind, reason string) []byte {
	b, _ := json.Marshal(reasonMessage{Type: kind, Reason: reason})
	return b
}
