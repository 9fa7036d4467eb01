package server

import (
	"encoding/json"
	"time"
)

// Room 房间世界：权威状态维护在内存，单协程推进
// 世界的所有修改（Tick、加入、离开、输入）都在 Run 协程中串行执行，
// 连接协程只投递意图并读取已序列化的快照
type Room struct {
	world    *World
	registry *Registry
	phys     Physics

	broadcaster *Broadcaster
	conns       *ConnManager
	metrics     *Metrics

	cmds      chan func()
	inputChan chan Input
	done      chan struct{}

	tickInterval  time.Duration
	tickerStarted bool
	now           func() time.Time
}

// RoomConfig 创建房间所需的依赖
type RoomConfig struct {
	Map         *GameMap
	MaxPlayers  int
	TickRate    int
	Physics     Physics
	Broadcaster *Broadcaster
	Conns       *ConnManager
	Metrics     *Metrics
}

// NewRoom 创建房间，初始化数据结构
func NewRoom(cfg RoomConfig) *Room {
	world := NewWorld(cfg.Map, cfg.MaxPlayers)
	tickRate := cfg.TickRate
	if tickRate <= 0 {
		tickRate = 60
	}
	return &Room{
		world:        world,
		registry:     NewRegistry(world, cfg.Physics, time.Now().UnixMilli()),
		phys:         cfg.Physics,
		broadcaster:  cfg.Broadcaster,
		conns:        cfg.Conns,
		metrics:      cfg.Metrics,
		cmds:         make(chan func(), 256),
		inputChan:    make(chan Input, 1024), // 足够缓冲，减少读协程等待
		done:         make(chan struct{}),
		tickInterval: time.Second / time.Duration(tickRate),
		now:          time.Now,
	}
}

// TickInterval 每个 Tick 的周期
func (r *Room) TickInterval() time.Duration { return r.tickInterval }

// Done 房间协程退出后关闭
func (r *Room) Done() <-chan struct{} { return r.done }

// ---- 以下方法由连接协程或控制台调用，只投递不直接修改世界 ----

// Join 请求加入，阻塞直到房间协程处理完毕
func (r *Room) Join(s *Session, nickname string, color json.RawMessage) (PlayerID, error) {
	var (
		id  PlayerID
		err error
	)
	if cerr := r.call(func() { id, err = r.join(s, nickname, color) }); cerr != nil {
		return "", cerr
	}
	return id, err
}

// OnInput 入站输入（不立即改变速度），等房间协程处理
// 队列满时阻塞该连接的读协程：按键松开不能丢，否则玩家会一直移动
func (r *Room) OnInput(in Input) {
	select {
	case r.inputChan <- in:
	case <-r.done:
	}
}

// Chat 转发聊天消息，发送者由房间协程按 id 解析
func (r *Room) Chat(id PlayerID, text string) {
	r.post(func() { r.chat(id, text) })
}

// RequestLeave 请求在房间协程中移除玩家，避免并发改动房间状态
func (r *Room) RequestLeave(id PlayerID) {
	// 为保证移除一定生效，这里采用阻塞式写入
	r.post(func() { r.leave(id) })
}

// Kick 按昵称踢出玩家
func (r *Room) Kick(nickname, reason string) error {
	return r.remove(nickname, reason, false)
}

// Ban 按昵称封禁玩家的源地址并踢出
func (r *Room) Ban(nickname, reason string) error {
	return r.remove(nickname, reason, true)
}

func (r *Room) remove(nickname, reason string, ban bool) error {
	var err error
	if cerr := r.call(func() { err = r.kick(nickname, reason, ban) }); cerr != nil {
		return cerr
	}
	return err
}

// Players 按加入顺序返回在线玩家副本
func (r *Room) Players() ([]Player, error) {
	var out []Player
	if err := r.call(func() { out = r.world.List() }); err != nil {
		return nil, err
	}
	return out, nil
}

// post 投递命令（阻塞到入队，房间已停止时丢弃）
func (r *Room) post(fn func()) {
	select {
	case r.cmds <- fn:
	case <-r.done:
	}
}

// call 投递命令并等待执行完成
func (r *Room) call(fn func()) error {
	reply := make(chan struct{})
	select {
	case r.cmds <- func() { fn(); close(reply) }:
	case <-r.done:
		return ErrRoomClosed
	}
	select {
	case <-reply:
		return nil
	case <-r.done:
		select {
		case <-reply:
			return nil
		default:
			return ErrRoomClosed
		}
	}
}

// ---- 以下方法只在房间协程中执行 ----

// ProcessPending 处理调用时已排队的命令与输入（非阻塞 drain）
// 处理期间新到达的留给下一个周期，持续涌入的输入不会推迟 Tick
func (r *Room) ProcessPending() {
	for n := len(r.cmds) + len(r.inputChan); n > 0; n-- {
		select {
		case fn := <-r.cmds:
			fn()
		case in := <-r.inputChan:
			r.registry.ApplyInput(in.PlayerID, in.Keys)
		default:
			return
		}
	}
}

// Tick 推进所有玩家一步并广播完整快照
func (r *Room) Tick() {
	start := time.Now()
	m := r.world.Map()
	r.world.ForEach(func(p *Player) {
		*p = Step(*p, m, r.phys)
	})
	r.broadcaster.Broadcast(encodeState(r.world.Snapshot()))
	r.metrics.ObserveTick(time.Since(start))
}

func (r *Room) join(s *Session, nickname string, color json.RawMessage) (PlayerID, error) {
	p, err := r.registry.Join(s, nickname, color)
	if err != nil {
		Log.Infof("join rejected: nickname=%q reason=%v", nickname, err)
		r.metrics.IncRejected(rejectReason(err))
		return "", err
	}
	// 先回复 join，保证客户端在第一帧 state 之前拿到 id 与地图
	if s != nil && s.conn != nil {
		r.broadcaster.Send(s.conn, encodeJoin(p.ID, r.world.Map()))
	}
	Log.Infof("[SERVER] Player joined: %s (%s)", p.Nickname, p.ID)
	r.broadcaster.Broadcast(encodeChat(SystemSender, p.Nickname+" joined the game", r.now()))
	r.metrics.SetPlayers(r.world.Len())
	return p.ID, nil
}

func (r *Room) leave(id PlayerID) {
	p := r.registry.Leave(id)
	if p == nil {
		return
	}
	Log.Infof("[SERVER] Player left: %s (%s)", p.Nickname, p.ID)
	r.broadcaster.Broadcast(encodeChat(SystemSender, p.Nickname+" left the game", r.now()))
	r.metrics.SetPlayers(r.world.Len())
}

func (r *Room) chat(id PlayerID, text string) {
	p, ok := r.world.Get(id)
	if !ok {
		return
	}
	Log.Infof("[SERVER] Chat from %s: %s", p.Nickname, text)
	r.broadcaster.Broadcast(encodeChat(p.Nickname, text, r.now()))
}

// kick 通知并关闭目标连接，同时立即移出世界；连接关闭后的再次离开为空操作
func (r *Room) kick(nickname, reason string, ban bool) error {
	p := r.world.FindByNickname(nickname)
	if p == nil {
		return ErrPlayerNotFound
	}
	kind := "kick"
	if s := r.registry.SessionOf(p.ID); s != nil {
		if ban {
			kind = "ban"
			if r.conns != nil {
				r.conns.Ban(s.ip)
			}
		}
		if s.conn != nil {
			r.broadcaster.Send(s.conn, encodeReason(kind, reason))
			s.conn.Close()
		}
	}
	Log.Infof("%s player %s: %s", kind, nickname, reason)
	r.leave(p.ID)
	return nil
}
