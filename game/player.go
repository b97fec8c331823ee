package game

// Direction 移动/攻击方向（服务端权威解释客户端“意图”）
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "UP"
	case DirDown:
		return "DOWN"
	case DirLeft:
		return "LEFT"
	case DirRight:
		return "RIGHT"
	}
	return "NONE"
}

// Player 槽位上的玩家记录，是网格渲染的唯一依据
type Player struct {
	Slot   int
	Pos    Pos
	Health int
	Active bool
}

// Letter 显示字母：槽位 0 -> 'A'
func (p Player) Letter() byte { return SlotLetter(p.Slot) }

func SlotLetter(slot int) byte { return byte('A' + slot) }
