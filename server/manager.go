package server

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"asciibattle/game"
)

// 发给客户端的非快照消息
const (
	MsgServerFull = "Server full. Please try again later.\n"
	MsgDefeated   = "DEFEATED\n"
	MsgNoSpawn    = "No free cell to spawn. Please try again later.\n"
)

// ErrCapacity 槽位已满
var ErrCapacity = errors.New("server full")

// Options 会话层参数
type Options struct {
	WriteTimeout time.Duration
	SendQueue    int
	PongWait     time.Duration      // WebSocket 保活超时，为空时 60s
	Logger       *zap.SugaredLogger // 为空时使用包级 Log
}

// Manager 管理槽位表与会话生命周期，并把引擎的快照扇出给所有在线会话。
// 锁顺序：engine -> m.mu。持有 m.mu 时不得调用 engine。
type Manager struct {
	mu       sync.RWMutex
	sessions []*Session // 下标即槽位
	count    int

	engine  *game.Engine
	opts    Options
	metrics *Metrics
	log     *zap.SugaredLogger
}

func NewManager(engine *game.Engine, opts Options) *Manager {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 2 * time.Second
	}
	if opts.SendQueue <= 0 {
		opts.SendQueue = 32
	}
	if opts.Logger == nil {
		opts.Logger = Log
	}
	m := &Manager{
		sessions: make([]*Session, engine.Rules().MaxPlayers),
		engine:   engine,
		opts:     opts,
		metrics:  &Metrics{},
		log:      opts.Logger,
	}
	engine.OnPublish(m.broadcast)
	return m
}

func (m *Manager) Engine() *game.Engine { return m.engine }

func (m *Manager) Metrics() *Metrics { return m.metrics }

// Count 当前占用的槽位数
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}

// Admit 为新连接预留最小的空闲槽位并启动写协程。
// 满员时发送提示并关闭连接，返回 ErrCapacity；此路径不触碰世界状态。
func (m *Manager) Admit(conn Conn) (*Session, error) {
	m.mu.Lock()
	if m.count >= len(m.sessions) {
		m.mu.Unlock()
		m.reject(conn)
		return nil, ErrCapacity
	}
	slot := 0
	for m.sessions[slot] != nil {
		slot++
	}
	s := newSession(slot, conn, m.opts.SendQueue, m.opts.WriteTimeout, m.metrics, m.log)
	m.sessions[slot] = s
	m.count++
	m.mu.Unlock()

	m.metrics.IncAccepted()
	go s.writePump()
	return s, nil
}

func (m *Manager) reject(conn Conn) {
	m.metrics.IncRejected()
	m.log.Infow("server full, rejecting client", "remote", conn.RemoteAddr(), "max", len(m.sessions))
	_ = conn.WriteMessage([]byte(MsgServerFull), time.Now().Add(m.opts.WriteTimeout))
	_ = conn.Close()
}

// Serve 会话的接收循环：加入世界后逐行读取命令，直到出错、对端关闭或 QUIT。
// 无论以何种方式退出都会执行一次清理。
func (m *Manager) Serve(s *Session) {
	defer m.release(s)

	if _, err := m.engine.Join(s.Slot); err != nil {
		m.log.Warnw("join failed", "session", s.ID, "slot", s.Slot, "err", err)
		if errors.Is(err, game.ErrNoSpawn) {
			s.Enqueue([]byte(MsgNoSpawn))
		}
		return
	}
	m.log.Infow("player joined", "session", s.ID, "player", string(game.SlotLetter(s.Slot)), "remote", s.RemoteAddr(), "players", m.Count())

	for {
		line, err := s.conn.ReadLine()
		if err != nil {
			if s.Alive() {
				m.log.Debugw("read ended", "session", s.ID, "slot", s.Slot, "err", err)
			}
			return
		}
		act := game.Parse(line)
		if act.Kind == game.ActUnrecognized {
			m.metrics.IncUnrecognized()
			m.log.Debugw("unrecognized command", "session", s.ID, "line", line)
			continue
		}
		out := m.engine.Apply(s.Slot, act)
		if out.Changed {
			m.metrics.IncApplied()
		} else {
			m.metrics.IncNoOps()
		}
		if act.Kind == game.ActQuit {
			return
		}
	}
}

// broadcast 引擎的发布钩子，在引擎锁内调用，只做非阻塞入队
func (m *Manager) broadcast(snapshot []byte, defeated []int) {
	m.metrics.IncBroadcasts()
	m.mu.RLock()
	targets := make([]*Session, 0, m.count)
	for _, s := range m.sessions {
		if s != nil && s.Alive() {
			targets = append(targets, s)
		}
	}
	m.mu.RUnlock()
	for _, s := range targets {
		s.Enqueue(snapshot)
	}
	m.kickDefeated(defeated)
}

// kickDefeated 给被击败者发送最后一行提示后断开，槽位随清理释放
func (m *Manager) kickDefeated(slots []int) {
	for _, slot := range slots {
		m.mu.RLock()
		s := m.sessions[slot]
		m.mu.RUnlock()
		if s == nil {
			continue
		}
		m.metrics.IncDefeats()
		m.log.Infow("player defeated", "session", s.ID, "player", string(game.SlotLetter(slot)))
		s.Enqueue([]byte(MsgDefeated))
		s.kill()
	}
}

// release 断线清理：标记死亡、世界中移除、释放槽位。幂等。
// 连接由写协程在冲刷完剩余消息后关闭。
func (m *Manager) release(s *Session) {
	s.releaseOnce.Do(func() {
		s.kill()
		m.engine.Leave(s.Slot)

		m.mu.Lock()
		if m.sessions[s.Slot] == s {
			m.sessions[s.Slot] = nil
			m.count--
		}
		m.mu.Unlock()

		m.log.Infow("player left", "session", s.ID, "player", string(game.SlotLetter(s.Slot)), "remote", s.RemoteAddr(), "players", m.Count())
	})
}
