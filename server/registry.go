package server

import (
	"encoding/json"
	"strconv"
)

// Registry 会话注册表：连接 ↔ 玩家 id 的绑定与加入约束
// 只在房间协程中访问
type Registry struct {
	world    *World
	phys     Physics
	sessions map[PlayerID]*Session
	nextID   int64
}

// NewRegistry idSeed 为 id 计数起点（通常取启动时刻毫秒）
func NewRegistry(world *World, phys Physics, idSeed int64) *Registry {
	return &Registry{
		world:    world,
		phys:     phys,
		sessions: make(map[PlayerID]*Session),
		nextID:   idSeed,
	}
}

// Join 在出生点创建玩家并绑定会话
// 失败返回 ErrCapacityExceeded 或 ErrNameTaken
func (r *Registry) Join(s *Session, nickname string, color json.RawMessage) (*Player, error) {
	r.nextID++
	id := PlayerID(strconv.FormatInt(r.nextID, 10))
	p := NewPlayer(id, nickname, color, r.world.Map().Spawn)
	if err := r.world.Add(p); err != nil {
		return nil, err
	}
	r.sessions[id] = s
	return p, nil
}

// ApplyInput 将按键解释为速度；玩家已离开时为空操作
// 同时按下 a 与 d 时 d 优先
func (r *Registry) ApplyInput(id PlayerID, keys Keys) {
	p, ok := r.world.Get(id)
	if !ok {
		return
	}
	switch {
	case keys.D:
		p.VelocityX = r.phys.Speed
	case keys.A:
		p.VelocityX = -r.phys.Speed
	default:
		p.VelocityX = 0
	}
	if keys.Space && p.IsGrounded {
		p.VelocityY = -r.phys.JumpForce
		p.IsGrounded = false
	}
	// keys.Shift 预留
}

// Leave 移除玩家并释放昵称；可重复调用，返回被移除的玩家（不存在时为 nil）
func (r *Registry) Leave(id PlayerID) *Player {
	delete(r.sessions, id)
	return r.world.Remove(id)
}

// SessionOf 查找玩家绑定的会话
func (r *Registry) SessionOf(id PlayerID) *Session {
	return r.sessions[id]
}
