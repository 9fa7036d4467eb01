package server

import (
	"context"
	"time"
)

// StartTicker 启动房间协程（单协程推进世界），重复调用无效
func (r *Room) StartTicker(ctx context.Context) {
	if r.tickerStarted {
		return
	}
	r.tickerStarted = true
	go r.Run(ctx)
}

// Run 房间主循环：命令随到随处理；每个 Tick 先 drain 积压的命令与输入，再推进世界并广播
// 超时的 Tick 不追帧，time.Ticker 在下一个周期边界继续触发
func (r *Room) Run(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-r.cmds:
			fn()
		case in := <-r.inputChan:
			r.registry.ApplyInput(in.PlayerID, in.Keys)
		case <-ticker.C:
			// 核心循环：处理积压意图 → 更新世界 → 广播结果
			r.ProcessPending()
			r.Tick()
		}
	}
}
