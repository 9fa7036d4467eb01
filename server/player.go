package server

import "encoding/json"

// PlayerID 表示玩家唯一标识（加入时分配，连接存活期间不变）
type PlayerID string

// PlayerSize 玩家碰撞盒边长（32×32 轴对齐）
const PlayerSize = 32.0

// Player 世界中的玩家实体（服务端权威状态）
// JSON 字段名与客户端协议保持一致，state 广播直接序列化该结构
type Player struct {
	ID         PlayerID        `json:"id"`
	Nickname   string          `json:"nickname"`
	Color      json.RawMessage `json:"color"` // 客户端自定义外观，原样保存与回显
	X          float64         `json:"x"`
	Y          float64         `json:"y"`
	VelocityX  float64         `json:"velocityX"`
	VelocityY  float64         `json:"velocityY"`
	IsGrounded bool            `json:"isGrounded"`
}

// NewPlayer 在出生点创建玩家，速度为零
func NewPlayer(id PlayerID, nickname string, color json.RawMessage, spawn Point) *Player {
	return &Player{
		ID:       id,
		Nickname: nickname,
		Color:    color,
		X:        spawn.X,
		Y:        spawn.Y,
	}
}

// respawn 传送回出生点并清空速度
func (p *Player) respawn(spawn Point) {
	p.X = spawn.X
	p.Y = spawn.Y
	p.VelocityX = 0
	p.VelocityY = 0
	p.IsGrounded = false
}

// overlaps 半开区间 AABB 重叠判定
func (p *Player) overlaps(b Rect) bool {
	return p.X < b.X+b.Width &&
		p.X+PlayerSize > b.X &&
		p.Y < b.Y+b.Height &&
		p.Y+PlayerSize > b.Y
}
