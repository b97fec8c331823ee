package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Conn 传输层抽象：TCP 与 WebSocket 各自实现。
// ReadLine 只由会话的读协程调用，WriteMessage 只由写协程调用。
type Conn interface {
	ReadLine() (string, error)
	WriteMessage(b []byte, deadline time.Time) error
	Close() error
	RemoteAddr() string
}

// Session 一个已占用槽位的连接
type Session struct {
	ID   string
	Slot int

	conn         Conn
	send         chan []byte
	done         chan struct{}
	writeTimeout time.Duration
	metrics      *Metrics
	log          *zap.SugaredLogger

	alive       atomic.Bool
	killOnce    sync.Once
	releaseOnce sync.Once
}

func newSession(slot int, conn Conn, queue int, writeTimeout time.Duration, m *Metrics, log *zap.SugaredLogger) *Session {
	s := &Session{
		ID:           uuid.NewString(),
		Slot:         slot,
		conn:         conn,
		send:         make(chan []byte, queue),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		metrics:      m,
		log:          log,
	}
	s.alive.Store(true)
	return s
}

func (s *Session) Alive() bool { return s.alive.Load() }

func (s *Session) RemoteAddr() string { return s.conn.RemoteAddr() }

// Enqueue 将消息压入发送队列（非阻塞）。队列满说明客户端跟不上，直接判定为死连接。
func (s *Session) Enqueue(b []byte) bool {
	if !s.Alive() {
		return false
	}
	select {
	case s.send <- b:
		return true
	default:
		if s.Alive() {
			s.metrics.IncSlowDisconnects()
			s.log.Warnw("send queue full, dropping client", "session", s.ID, "slot", s.Slot)
		}
		s.kill()
		return false
	}
}

// kill 标记死亡并通知写协程收尾；写协程会尽量冲刷已入队的消息后关闭连接，
// 读协程随之出错退出并执行清理。
func (s *Session) kill() {
	s.killOnce.Do(func() {
		s.alive.Store(false)
		close(s.done)
	})
}

// writePump 独立协程，负责从 send 队列写出到连接
func (s *Session) writePump() {
	defer s.conn.Close()
	for {
		select {
		case msg := <-s.send:
			if err := s.conn.WriteMessage(msg, time.Now().Add(s.writeTimeout)); err != nil {
				if s.Alive() {
					s.metrics.IncWriteFailures()
					s.log.Infow("write failed", "session", s.ID, "slot", s.Slot, "err", err)
				}
				s.kill()
				return
			}
		case <-s.done:
			s.flush()
			return
		}
	}
}

// flush 在同一个截止时间内写出剩余消息
func (s *Session) flush() {
	deadline := time.Now().Add(s.writeTimeout)
	for {
		select {
		case msg := <-s.send:
			if err := s.conn.WriteMessage(msg, deadline); err != nil {
				return
			}
		default:
			return
		}
	}
}
