package game

import (
	"errors"
	"fmt"
)

// 格子符号
const (
	CellEmpty    byte = '.'
	CellObstacle byte = '#'
)

// MaxSlots 玩家字母 A..Z 的上限
const MaxSlots = 26

var (
	// ErrConfig 启动配置非法（网格尺寸、障碍坐标、规则数值）
	ErrConfig = errors.New("invalid world config")
	// ErrNoSpawn 没有可用的出生格
	ErrNoSpawn = errors.New("no free spawn cell")
	// ErrSlotInUse 槽位已被激活
	ErrSlotInUse = errors.New("slot already active")
)

// Pos 网格坐标（行, 列）
type Pos struct {
	Row int
	Col int
}

// Unplaced 表示未上场玩家的位置
var Unplaced = Pos{Row: -1, Col: -1}

// Step 返回沿方向走一格后的坐标
func (p Pos) Step(dir Direction) Pos {
	switch dir {
	case DirUp:
		return Pos{p.Row - 1, p.Col}
	case DirDown:
		return Pos{p.Row + 1, p.Col}
	case DirLeft:
		return Pos{p.Row, p.Col - 1}
	case DirRight:
		return Pos{p.Row, p.Col + 1}
	}
	return p
}

// Adjacent 四邻接判断
func (p Pos) Adjacent(o Pos) bool {
	dr, dc := p.Row-o.Row, p.Col-o.Col
	return dr*dr+dc*dc == 1
}

// Rules 世界的静态参数，启动时由配置提供
type Rules struct {
	Rows        int
	Cols        int
	Obstacles   []Pos
	MaxPlayers  int
	Damage      int
	StartHealth int
}

// DefaultRules 与原始设计一致的默认值：5x5，两个障碍，4 名玩家
func DefaultRules() Rules {
	return Rules{
		Rows:        5,
		Cols:        5,
		Obstacles:   []Pos{{2, 2}, {1, 3}},
		MaxPlayers:  4,
		Damage:      10,
		StartHealth: 100,
	}
}

// World 权威世界状态。本身不加锁，并发访问必须经由 Engine。
type World struct {
	rules     Rules
	grid      [][]byte
	obstacles map[Pos]bool
	players   []Player
}

// NewWorld 按规则构建网格并放置障碍，所有槽位初始为未激活
func NewWorld(rules Rules) (*World, error) {
	if err := rules.validate(); err != nil {
		return nil, err
	}
	w := &World{
		rules:     rules,
		grid:      make([][]byte, rules.Rows),
		obstacles: make(map[Pos]bool, len(rules.Obstacles)),
		players:   make([]Player, rules.MaxPlayers),
	}
	for r := range w.grid {
		w.grid[r] = make([]byte, rules.Cols)
	}
	for _, o := range rules.Obstacles {
		w.obstacles[o] = true
	}
	for i := range w.players {
		w.players[i] = Player{Slot: i, Pos: Unplaced, Health: rules.StartHealth}
	}
	w.RefreshGrid()
	return w, nil
}

func (r Rules) validate() error {
	if r.Rows < 1 || r.Cols < 1 {
		return fmt.Errorf("%w: grid %dx%d", ErrConfig, r.Rows, r.Cols)
	}
	if r.MaxPlayers < 1 || r.MaxPlayers > MaxSlots {
		return fmt.Errorf("%w: max players %d not in 1..%d", ErrConfig, r.MaxPlayers, MaxSlots)
	}
	if r.Damage < 1 {
		return fmt.Errorf("%w: damage %d", ErrConfig, r.Damage)
	}
	if r.StartHealth < 1 {
		return fmt.Errorf("%w: start health %d", ErrConfig, r.StartHealth)
	}
	for _, o := range r.Obstacles {
		if o.Row < 0 || o.Row >= r.Rows || o.Col < 0 || o.Col >= r.Cols {
			return fmt.Errorf("%w: obstacle (%d,%d) outside %dx%d grid", ErrConfig, o.Row, o.Col, r.Rows, r.Cols)
		}
	}
	return nil
}

// RefreshGrid 由玩家记录重建网格：清空非障碍格，再写入每个在场玩家的字母
func (w *World) RefreshGrid() {
	for r := range w.grid {
		for c := range w.grid[r] {
			if w.obstacles[Pos{r, c}] {
				w.grid[r][c] = CellObstacle
			} else {
				w.grid[r][c] = CellEmpty
			}
		}
	}
	for _, p := range w.players {
		if p.Active {
			w.grid[p.Pos.Row][p.Pos.Col] = p.Letter()
		}
	}
}

func (w *World) Rules() Rules { return w.rules }

func (w *World) InBounds(p Pos) bool {
	return p.Row >= 0 && p.Row < w.rules.Rows && p.Col >= 0 && p.Col < w.rules.Cols
}

func (w *World) IsObstacle(p Pos) bool { return w.obstacles[p] }

// Occupant 返回占据该格的在场玩家槽位
func (w *World) Occupant(p Pos) (int, bool) {
	for _, pl := range w.players {
		if pl.Active && pl.Pos == p {
			return pl.Slot, true
		}
	}
	return -1, false
}

// Player 返回槽位玩家的副本
func (w *World) Player(slot int) (Player, bool) {
	if slot < 0 || slot >= len(w.players) {
		return Player{}, false
	}
	return w.players[slot], true
}

// Players 返回全部玩家记录的副本（按槽位顺序）
func (w *World) Players() []Player {
	out := make([]Player, len(w.players))
	copy(out, w.players)
	return out
}

// ActiveCount 当前在场玩家数
func (w *World) ActiveCount() int {
	n := 0
	for _, p := range w.players {
		if p.Active {
			n++
		}
	}
	return n
}

// Cell 返回渲染后网格中的符号
func (w *World) Cell(p Pos) byte { return w.grid[p.Row][p.Col] }

// spawnCell 行优先查找第一个既非障碍也未被占用的格子
func (w *World) spawnCell() (Pos, bool) {
	for r := 0; r < w.rules.Rows; r++ {
		for c := 0; c < w.rules.Cols; c++ {
			p := Pos{r, c}
			if w.obstacles[p] {
				continue
			}
			if _, taken := w.Occupant(p); taken {
				continue
			}
			return p, true
		}
	}
	return Pos{}, false
}
