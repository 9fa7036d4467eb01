package server

import "errors"

var (
	// ErrRoomClosed 房间协程已停止
	ErrRoomClosed = errors.New("room closed")
	// ErrPlayerNotFound 控制台按昵称找不到在线玩家
	ErrPlayerNotFound = errors.New("player not found")
)

// AdmissionMessage 将准入错误映射为发给客户端的固定文案
func AdmissionMessage(err error) string {
	switch {
	case errors.Is(err, ErrBanned):
		return "You are banned from this server"
	case errors.Is(err, ErrDuplicateIP):
		return "Only one connection per IP is allowed"
	case errors.Is(err, ErrCapacityExceeded):
		return "Server is full"
	case errors.Is(err, ErrNameTaken):
		return "Nickname already in use"
	default:
		return "Connection refused"
	}
}

// rejectReason 指标标签（取值有限，避免基数膨胀）
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrBanned):
		return "banned"
	case errors.Is(err, ErrDuplicateIP):
		return "duplicate_ip"
	case errors.Is(err, ErrCapacityExceeded):
		return "full"
	case errors.Is(err, ErrNameTaken):
		return "name_taken"
	default:
		return "other"
	}
}
