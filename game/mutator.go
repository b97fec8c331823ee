package game

// Outcome 一次变更的结果。Changed 为 false 表示规则拒绝（no-op），不会广播。
type Outcome struct {
	Changed  bool
	Snapshot []byte // Changed 时在临界区内生成
	Defeated []int  // 本次被击败（生命归零）的槽位
}

// join 激活槽位：放到出生格并重置生命
func (w *World) join(slot int) error {
	p := &w.players[slot]
	if p.Active {
		return ErrSlotInUse
	}
	spawn, ok := w.spawnCell()
	if !ok {
		return ErrNoSpawn
	}
	p.Pos = spawn
	p.Health = w.rules.StartHealth
	p.Active = true
	return nil
}

// apply 把已解析的动作作用到世界上，返回是否改变以及被击败的槽位。
// 非法动作（撞墙、越界、打空气、未激活的行动者）一律静默忽略。
func (w *World) apply(slot int, a Action) (bool, []int) {
	actor, ok := w.Player(slot)
	if !ok || !actor.Active {
		return false, nil
	}
	switch a.Kind {
	case ActMove:
		return w.move(slot, a.Dir), nil
	case ActAttack:
		target := -1
		if a.Target >= 0 {
			target = a.Target
		} else if occ, ok := w.Occupant(actor.Pos.Step(a.Dir)); ok && a.Dir != DirNone {
			target = occ
		}
		return w.attack(slot, target)
	case ActQuit:
		return w.deactivate(slot), nil
	}
	return false, nil
}

func (w *World) move(slot int, dir Direction) bool {
	p := &w.players[slot]
	next := p.Pos.Step(dir)
	if next == p.Pos || !w.InBounds(next) || w.IsObstacle(next) {
		return false
	}
	if _, taken := w.Occupant(next); taken {
		return false
	}
	p.Pos = next
	return true
}

func (w *World) attack(slot, target int) (bool, []int) {
	if target < 0 || target >= len(w.players) || target == slot {
		return false, nil
	}
	victim := &w.players[target]
	if !victim.Active || !victim.Pos.Adjacent(w.players[slot].Pos) {
		return false, nil
	}
	victim.Health -= w.rules.Damage
	if victim.Health > 0 {
		return true, nil
	}
	victim.Health = 0
	victim.Active = false
	victim.Pos = Unplaced
	return true, []int{target}
}

// deactivate 主动退出或断线清理；对未激活槽位是幂等的 no-op
func (w *World) deactivate(slot int) bool {
	if slot < 0 || slot >= len(w.players) {
		return false
	}
	p := &w.players[slot]
	if !p.Active {
		return false
	}
	p.Active = false
	p.Pos = Unplaced
	return true
}
