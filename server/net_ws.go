package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// maxFrameBytes 单条入站消息上限，超过视为传输错误并断开
	maxFrameBytes = 64 << 10
	// defaultPongWait 未收到任何消息或 pong 的最长时间
	defaultPongWait = 60 * time.Second
)

// wsConn 把 WebSocket 文本消息适配为按行读写的 Conn。
// 一条入站消息可以包含多行命令；每个快照作为一条出站文本消息发送。
type wsConn struct {
	ws       *websocket.Conn
	pongWait time.Duration
	pending  []string

	stop      chan struct{}
	closeOnce sync.Once
}

func NewWSConn(ws *websocket.Conn, pongWait time.Duration) Conn {
	if pongWait <= 0 {
		pongWait = defaultPongWait
	}
	c := &wsConn{ws: ws, pongWait: pongWait, stop: make(chan struct{})}
	ws.SetReadLimit(maxFrameBytes)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	go c.keepalive(pongWait * 9 / 10)
	return c
}

// keepalive 定期发送 ping，半开连接会因收不到 pong 而读超时
func (c *wsConn) keepalive(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(period)); err != nil {
				return
			}
		case <-c.stop:
			return
		}
	}
}

func (c *wsConn) ReadLine() (string, error) {
	for len(c.pending) == 0 {
		mt, payload, err := c.ws.ReadMessage()
		if err != nil {
			return "", err
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
		if mt != websocket.TextMessage {
			continue
		}
		c.pending = strings.Split(strings.TrimRight(string(payload), "\n"), "\n")
	}
	line := c.pending[0]
	c.pending = c.pending[1:]
	if len(line) > maxLineBytes {
		return "", nil
	}
	return strings.TrimRight(line, "\r"), nil
}

func (c *wsConn) WriteMessage(b []byte, deadline time.Time) error {
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.stop) })
	return c.ws.Close()
}

func (c *wsConn) RemoteAddr() string { return c.ws.RemoteAddr().String() }

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// HandleWS WebSocket 接入，与 TCP 共用槽位与容量限制
func (m *Manager) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Warnf("upgrade error: %v", err)
		return
	}
	s, err := m.Admit(NewWSConn(ws, m.opts.PongWait))
	if err != nil {
		return
	}
	m.Serve(s)
}
