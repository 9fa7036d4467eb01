package server

import "encoding/json"

// Keys 客户端按键状态（意图），由服务端解释为速度
// Shift 预留给特殊技能，当前无效果
type Keys struct {
	A     bool `json:"a"`
	D     bool `json:"d"`
	Space bool `json:"space"`
	Shift bool `json:"shift"`
}

// Input 一条输入意图，在房间协程中应用
type Input struct {
	PlayerID PlayerID
	Keys     Keys
}

// 入站消息类型
const (
	MsgJoin  = "join"
	MsgChat  = "chat"
	MsgInput = "input"
)

// InboundMessage 入站 JSON 结构（WebSocket 文本消息），各类型共用
// 示例：{"type":"join","nickname":"alice","color":"#f00"}
//
//	{"type":"input","keys":{"a":false,"d":true,"space":false,"shift":false}}
type InboundMessage struct {
	Type     string          `json:"type"`
	Nickname string          `json:"nickname,omitempty"`
	Color    json.RawMessage `json:"color,omitempty"` // 任意 JSON 值，不做校验
	Message  string          `json:"message,omitempty"`
	Keys     *Keys           `json:"keys,omitempty"`
}
