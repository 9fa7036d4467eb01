package server

import "errors"

var (
	// ErrCapacityExceeded 在线玩家已达上限
	ErrCapacityExceeded = errors.New("server is full")
	// ErrNameTaken 昵称已被在线玩家占用（大小写敏感）
	ErrNameTaken = errors.New("nickname already in use")
)

// World 世界模型：地图几何 + 在线实体
// 不做任何同步，只允许在房间的 Tick 协程中访问
type World struct {
	gameMap    *GameMap
	maxPlayers int

	players map[PlayerID]*Player
	order   []PlayerID // 加入顺序，用于稳定遍历
}

// NewWorld 创建世界
func NewWorld(m *GameMap, maxPlayers int) *World {
	return &World{
		gameMap:    m,
		maxPlayers: maxPlayers,
		players:    make(map[PlayerID]*Player),
	}
}

// Map 只读地图
func (w *World) Map() *GameMap { return w.gameMap }

// Len 在线实体数
func (w *World) Len() int { return len(w.players) }

// Add 加入实体；容量检查先于昵称检查
func (w *World) Add(p *Player) error {
	if len(w.players) >= w.maxPlayers {
		return ErrCapacityExceeded
	}
	if w.FindByNickname(p.Nickname) != nil {
		return ErrNameTaken
	}
	w.players[p.ID] = p
	w.order = append(w.order, p.ID)
	return nil
}

// Remove 移除实体，id 不存在时为空操作
func (w *World) Remove(id PlayerID) *Player {
	p, ok := w.players[id]
	if !ok {
		return nil
	}
	delete(w.players, id)
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return p
}

// Get 按 id 查找
func (w *World) Get(id PlayerID) (*Player, bool) {
	p, ok := w.players[id]
	return p, ok
}

// FindByNickname 按昵称精确查找
func (w *World) FindByNickname(nickname string) *Player {
	for _, id := range w.order {
		if p := w.players[id]; p.Nickname == nickname {
			return p
		}
	}
	return nil
}

// ForEach 按加入顺序遍历
func (w *World) ForEach(fn func(p *Player)) {
	for _, id := range w.order {
		fn(w.players[id])
	}
}

// Snapshot 复制当前全部实体，供广播与管理接口只读使用
func (w *World) Snapshot() map[PlayerID]Player {
	out := make(map[PlayerID]Player, len(w.players))
	for id, p := range w.players {
		out[id] = *p
	}
	return out
}

// List 按加入顺序返回实体副本
func (w *World) List() []Player {
	out := make([]Player, 0, len(w.order))
	w.ForEach(func(p *Player) { out = append(out, *p) })
	return out
}
