package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// 进程退出码：.stop 正常退出，.restart 交给外部守护进程重启
const (
	ExitStop    = 0
	ExitRestart = 1
)

const defaultReason = "No reason specified"

// Console 运维控制台：逐行读取命令
// 命令结果只输出到控制台，不会发给客户端
type Console struct {
	room *Room
	out  io.Writer
	exit func(code int)
}

// NewConsole exit 在 .stop / .restart 时被调用
func NewConsole(room *Room, out io.Writer, exit func(code int)) *Console {
	return &Console{room: room, out: out, exit: exit}
}

// Run 读取输入直到 EOF 或 ctx 取消
func (c *Console) Run(ctx context.Context, in io.Reader) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		c.Exec(sc.Text())
	}
}

// Exec 执行一行命令
func (c *Console) Exec(line string) {
	parts := strings.Split(strings.TrimSpace(line), " ")
	cmd := strings.ToLower(parts[0])
	if cmd == "" {
		return
	}

	switch cmd {
	case ".kick", ".ban":
		if len(parts) < 2 {
			c.printf("Usage: %s <player> [reason]\n", cmd)
			return
		}
		nickname := parts[1]
		reason := strings.TrimSpace(strings.Join(parts[2:], " "))
		if reason == "" {
			reason = defaultReason
		}
		c.remove(cmd == ".ban", nickname, reason)
	case ".list":
		c.list()
	case ".stop":
		c.printf("Stopping server...\n")
		c.exit(ExitStop)
	case ".restart":
		c.printf("Restarting server...\n")
		c.exit(ExitRestart)
	case ".help":
		c.printf("Available commands:\n" +
			".kick <player> [reason] - Kick a player\n" +
			".ban <player> [reason] - Ban a player\n" +
			".list - List all connected players\n" +
			".stop - Stop the server\n" +
			".restart - Restart the server\n" +
			".help - Show this help message\n")
	default:
		c.printf("Unknown command. Type .help for available commands.\n")
	}
}

func (c *Console) remove(ban bool, nickname, reason string) {
	var err error
	verb := "Kicked"
	if ban {
		verb = "Banned"
		err = c.room.Ban(nickname, reason)
	} else {
		err = c.room.Kick(nickname, reason)
	}
	switch {
	case errors.Is(err, ErrPlayerNotFound):
		c.printf("Player %s not found\n", nickname)
	case err != nil:
		c.printf("Error: %v\n", err)
	default:
		c.printf("%s player %s: %s\n", verb, nickname, reason)
	}
}

func (c *Console) list() {
	players, err := c.room.Players()
	if err != nil {
		c.printf("Error: %v\n", err)
		return
	}
	c.printf("Connected players:\n")
	for _, p := range players {
		c.printf("- %s (ID: %s)\n", p.Nickname, p.ID)
	}
	c.printf("Total: %d players\n", len(players))
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
