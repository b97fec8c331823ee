package game

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// 线上协议的固定行
const (
	HeaderState = "STATE"
	FooterEnd   = "END STATE" // 含空格，不会与网格行相同
	playerTag   = "PLAYER"
)

// Snapshot 序列化当前世界：
//
//	STATE
//	<R 行，每行 C 个字符>
//	PLAYER <字母> <1|0> <生命> <行> <列>   （每个槽位一行，按槽位顺序）
//	END STATE
//
// 调用方必须持有 Engine 的锁，且 RefreshGrid 已是最近一次操作。
func (w *World) Snapshot() []byte {
	var buf bytes.Buffer
	buf.Grow((w.rules.Rows+2)*(w.rules.Cols+1) + len(w.players)*24)
	buf.WriteString(HeaderState)
	buf.WriteByte('\n')
	for _, row := range w.grid {
		buf.Write(row)
		buf.WriteByte('\n')
	}
	for _, p := range w.players {
		active := 0
		if p.Active {
			active = 1
		}
		fmt.Fprintf(&buf, "%s %c %d %d %d %d\n", playerTag, p.Letter(), active, p.Health, p.Pos.Row, p.Pos.Col)
	}
	buf.WriteString(FooterEnd)
	buf.WriteByte('\n')
	return buf.Bytes()
}

// View 客户端视角下解析出的一份快照
type View struct {
	Grid    []string
	Players []Player
}

// ParseSnapshot 解析单条消息
func ParseSnapshot(b []byte) (View, error) {
	return ReadSnapshot(bufio.NewScanner(bytes.NewReader(b)))
}

// ReadSnapshot 从行流中读出下一个 STATE 块；STATE 之前的其它行（如 DEFEATED）被跳过。
// 同一连接上应复用同一个 Scanner，避免预读的数据丢失。
func ReadSnapshot(sc *bufio.Scanner) (View, error) {
	var v View
	inBlock := false
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case !inBlock:
			inBlock = line == HeaderState
		case line == FooterEnd:
			return v, nil
		case strings.HasPrefix(line, playerTag+" "):
			p, err := parsePlayerLine(line)
			if err != nil {
				return View{}, err
			}
			v.Players = append(v.Players, p)
		default:
			if len(v.Players) > 0 {
				return View{}, fmt.Errorf("grid row %q after player lines", line)
			}
			v.Grid = append(v.Grid, line)
		}
	}
	if err := sc.Err(); err != nil {
		return View{}, err
	}
	return View{}, io.ErrUnexpectedEOF
}

func parsePlayerLine(line string) (Player, error) {
	f := strings.Fields(line)
	if len(f) != 6 || len(f[1]) != 1 {
		return Player{}, fmt.Errorf("malformed player line %q", line)
	}
	nums := make([]int, 4)
	for i, s := range f[2:] {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Player{}, fmt.Errorf("malformed player line %q: %w", line, err)
		}
		nums[i] = n
	}
	return Player{
		Slot:   int(f[1][0] - 'A'),
		Active: nums[0] == 1,
		Health: nums[1],
		Pos:    Pos{Row: nums[2], Col: nums[3]},
	}, nil
}
