package server

import (
	"errors"
	"sync"
)

var (
	// ErrBanned 源地址在封禁列表中
	ErrBanned = errors.New("address is banned")
	// ErrDuplicateIP 同一地址已有活动连接
	ErrDuplicateIP = errors.New("address already connected")
)

// ConnManager 管理按 IP 统计的活动连接与封禁列表
// 连接协程与房间协程都会访问，内部加锁
type ConnManager struct {
	mu      sync.RWMutex
	maxPer  int
	active  map[string]int
	banned  map[string]struct{}
	current int
}

// NewConnManager 创建连接管理器，maxPerIP 为每个地址允许的活动连接数
func NewConnManager(maxPerIP int) *ConnManager {
	return &ConnManager{
		maxPer: maxPerIP,
		active: make(map[string]int),
		banned: make(map[string]struct{}),
	}
}

// Admit 准入检查并占用一个连接名额；封禁优先于重复地址
func (m *ConnManager) Admit(ip string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.banned[ip]; ok {
		return ErrBanned
	}
	if m.active[ip] >= m.maxPer {
		return ErrDuplicateIP
	}
	m.active[ip]++
	m.current++
	return nil
}

// Release 归还连接名额，计数不会小于零
func (m *ConnManager) Release(ip string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.active[ip]
	if n <= 0 {
		return
	}
	if n == 1 {
		delete(m.active, ip)
	} else {
		m.active[ip] = n - 1
	}
	m.current--
}

// Ban 将地址加入封禁列表（仅内存，重启失效）
func (m *ConnManager) Ban(ip string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.banned[ip] = struct{}{}
}

// IsBanned 地址是否被封禁
func (m *ConnManager) IsBanned(ip string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.banned[ip]
	return ok
}

// Active 当前活动连接总数
func (m *ConnManager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}
