package server

import (
	"sync/atomic"
)

// Metrics 记录服务运行期的关键计数（用于监控与调试）
type Metrics struct {
	Accepted        int64 // 分配到槽位的连接数
	Rejected        int64 // 因满员被拒绝的连接数
	CommandsApplied int64 // 改变了世界的命令数
	NoOps           int64 // 被规则拒绝的命令数（撞墙、打空等）
	Unrecognized    int64 // 无法解析的命令行
	Broadcasts      int64 // 发布的快照数
	Defeats         int64 // 被击败并踢下线的玩家数
	SlowDisconnects int64 // 因发送队列满被断开的连接数
	WriteFailures   int64 // 写失败或写超时被断开的连接数
}

func (m *Metrics) IncAccepted()        { atomic.AddInt64(&m.Accepted, 1) }
func (m *Metrics) IncRejected()        { atomic.AddInt64(&m.Rejected, 1) }
func (m *Metrics) IncApplied()         { atomic.AddInt64(&m.CommandsApplied, 1) }
func (m *Metrics) IncNoOps()           { atomic.AddInt64(&m.NoOps, 1) }
func (m *Metrics) IncUnrecognized()    { atomic.AddInt64(&m.Unrecognized, 1) }
func (m *Metrics) IncBroadcasts()      { atomic.AddInt64(&m.Broadcasts, 1) }
func (m *Metrics) IncDefeats()         { atomic.AddInt64(&m.Defeats, 1) }
func (m *Metrics) IncSlowDisconnects() { atomic.AddInt64(&m.SlowDisconnects, 1) }
func (m *Metrics) IncWriteFailures()   { atomic.AddInt64(&m.WriteFailures, 1) }

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	return map[string]any{
		"accepted":         atomic.LoadInt64(&m.Accepted),
		"rejected":         atomic.LoadInt64(&m.Rejected),
		"commands_applied": atomic.LoadInt64(&m.CommandsApplied),
		"no_ops":           atomic.LoadInt64(&m.NoOps),
		"unrecognized":     atomic.LoadInt64(&m.Unrecognized),
		"broadcasts":       atomic.LoadInt64(&m.Broadcasts),
		"defeats":          atomic.LoadInt64(&m.Defeats),
		"slow_disconnects": atomic.LoadInt64(&m.SlowDisconnects),
		"write_failures":   atomic.LoadInt64(&m.WriteFailures),
	}
}
