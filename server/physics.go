package server

// Physics 物理常量（来自配置，运行期不变）
type Physics struct {
	Gravity   float64
	Speed     float64
	JumpForce float64
}

// Step 推进单个玩家一个 Tick：重力 → 积分 → 平台碰撞 → 边界裁剪
// 纯函数：输入实体副本与地图，返回新状态
// 显式欧拉积分，无子步，高速时可能穿透薄平台
func Step(p Player, m *GameMap, phys Physics) Player {
	p.VelocityY += phys.Gravity
	p.X += p.VelocityX
	p.Y += p.VelocityY

	p.IsGrounded = false
	for i := range m.Platforms {
		if stop := collide(&p, &m.Platforms[i], m.Spawn); stop {
			break
		}
	}

	clampToBounds(&p, m.Width, m.Height)
	return p
}

// collide 按平台类型分派；返回 true 表示终止后续平台检查
func collide(p *Player, pl *Platform, spawn Point) bool {
	switch pl.Type {
	case PlatformText:
		return false
	case PlatformLava:
		return collideLava(p, pl, spawn)
	case PlatformWood:
		collideWood(p, pl)
		return false
	case PlatformDefault:
		collideSolid(p, pl)
		return false
	}
	return false
}

// collideLava 首个命中的岩浆生效，重生后不再检查其他平台
func collideLava(p *Player, pl *Platform, spawn Point) bool {
	if !p.overlaps(pl.Rect) {
		return false
	}
	p.respawn(spawn)
	return true
}

// collideWood 仅当本 Tick 底边从平台顶边上方越过时落地
func collideWood(p *Player, pl *Platform) {
	if !p.overlaps(pl.Rect) || p.VelocityY <= 0 {
		return
	}
	bottom := p.Y + PlayerSize
	if bottom > pl.Y && bottom-p.VelocityY <= pl.Y {
		land(p, pl.Y)
	}
}

// collideSolid 下落且重叠即落地
// 注意：没有 wood 的“上一帧在平台上方”检查，从平台内部下落也会被顶到上表面
func collideSolid(p *Player, pl *Platform) {
	if !p.overlaps(pl.Rect) || p.VelocityY <= 0 {
		return
	}
	if p.Y+PlayerSize > pl.Y {
		land(p, pl.Y)
	}
}

func land(p *Player, top float64) {
	p.Y = top - PlayerSize
	p.VelocityY = 0
	p.IsGrounded = true
}

// clampToBounds 世界边界裁剪；触底视为落地，触顶不改速度
func clampToBounds(p *Player, width, height float64) {
	if p.X < 0 {
		p.X = 0
	}
	if p.X+PlayerSize > width {
		p.X = width - PlayerSize
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.Y+PlayerSize > height {
		p.Y = height - PlayerSize
		p.VelocityY = 0
		p.IsGrounded = true
	}
}
