package game

import "strings"

// ActionKind 客户端命令的种类
type ActionKind int

const (
	ActUnrecognized ActionKind = iota
	ActMove
	ActAttack
	ActQuit
)

func (k ActionKind) String() string {
	switch k {
	case ActMove:
		return "MOVE"
	case ActAttack:
		return "ATTACK"
	case ActQuit:
		return "QUIT"
	}
	return "UNRECOGNIZED"
}

// Action 一行命令解析后的意图
// 示例："MOVE UP"、"ATTACK LEFT"、"ATTACK B"、"QUIT"
type Action struct {
	Kind   ActionKind
	Dir    Direction
	Target int // ATTACK <字母> 时的目标槽位，否则为 -1
}

func (a Action) String() string {
	switch {
	case a.Kind == ActAttack && a.Target >= 0:
		return "ATTACK " + string(SlotLetter(a.Target))
	case a.Kind == ActMove || a.Kind == ActAttack:
		return a.Kind.String() + " " + a.Dir.String()
	}
	return a.Kind.String()
}

// Parse 解析一行命令，关键字不区分大小写；无法识别的输入返回 ActUnrecognized
func Parse(line string) Action {
	fields := strings.Fields(strings.ToUpper(line))
	if len(fields) == 0 {
		return Action{Kind: ActUnrecognized, Target: -1}
	}
	switch fields[0] {
	case "QUIT":
		return Action{Kind: ActQuit, Target: -1}
	case "MOVE":
		if len(fields) == 2 {
			if dir := parseDirection(fields[1]); dir != DirNone {
				return Action{Kind: ActMove, Dir: dir, Target: -1}
			}
		}
	case "ATTACK":
		if len(fields) != 2 {
			break
		}
		if dir := parseDirection(fields[1]); dir != DirNone {
			return Action{Kind: ActAttack, Dir: dir, Target: -1}
		}
		if t := fields[1]; len(t) == 1 && t[0] >= 'A' && t[0] < 'A'+MaxSlots {
			return Action{Kind: ActAttack, Target: int(t[0] - 'A')}
		}
	}
	return Action{Kind: ActUnrecognized, Target: -1}
}

func parseDirection(s string) Direction {
	switch s {
	case "UP":
		return DirUp
	case "DOWN":
		return DirDown
	case "LEFT":
		return DirLeft
	case "RIGHT":
		return DirRight
	}
	return DirNone
}
