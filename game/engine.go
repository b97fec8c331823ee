package game

import (
	"fmt"
	"sync"
)

// Engine 持有 World 的唯一互斥锁。所有读改写都走这里：
// 校验 -> 变更 -> RefreshGrid -> Snapshot -> publish 在同一临界区内完成，
// 因此任意两条命令不会交错，发布顺序即提交顺序。
type Engine struct {
	mu      sync.Mutex
	world   *World
	publish func(snapshot []byte, defeated []int)
	seq     uint64
}

func NewEngine(w *World) *Engine {
	return &Engine{world: w}
}

// OnPublish 设置广播钩子。钩子在锁内被调用，只能做非阻塞的入队，
// 且不得回调 Engine。defeated 为本次生命归零的槽位，此刻它们的连接必然仍占着槽位。
func (e *Engine) OnPublish(fn func(snapshot []byte, defeated []int)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.publish = fn
}

// Join 激活槽位并广播
func (e *Engine) Join(slot int) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if slot < 0 || slot >= len(e.world.players) {
		return Outcome{}, fmt.Errorf("join slot %d: out of range", slot)
	}
	if err := e.world.join(slot); err != nil {
		return Outcome{}, fmt.Errorf("join slot %d: %w", slot, err)
	}
	return e.commitLocked(nil), nil
}

// Apply 执行一条命令。被规则拒绝的命令不产生状态变化，也不广播。
func (e *Engine) Apply(slot int, a Action) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	changed, defeated := e.world.apply(slot, a)
	if !changed {
		return Outcome{}
	}
	return e.commitLocked(defeated)
}

// Leave 断线清理，可重复调用
func (e *Engine) Leave(slot int) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.world.deactivate(slot) {
		return Outcome{}
	}
	return e.commitLocked(nil)
}

func (e *Engine) commitLocked(defeated []int) Outcome {
	e.world.RefreshGrid()
	snap := e.world.Snapshot()
	e.seq++
	if e.publish != nil {
		e.publish(snap, defeated)
	}
	return Outcome{Changed: true, Snapshot: snap, Defeated: defeated}
}

// Snapshot 当前状态的一致性快照（只读）
func (e *Engine) Snapshot() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.Snapshot()
}

// Players 返回玩家记录副本
func (e *Engine) Players() []Player {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.Players()
}

func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.ActiveCount()
}

// Seq 已提交的变更次数
func (e *Engine) Seq() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}

func (e *Engine) Rules() Rules {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.rules
}

// SetCombat 热更新伤害与初始生命（对之后的攻击/加入生效）
func (e *Engine) SetCombat(damage, startHealth int) error {
	if damage < 1 || startHealth < 1 {
		return fmt.Errorf("%w: damage %d, start health %d", ErrConfig, damage, startHealth)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.world.rules.Damage = damage
	e.world.rules.StartHealth = startHealth
	return nil
}
