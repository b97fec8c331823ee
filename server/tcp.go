package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"
)

// maxLineBytes 单条命令行上限，超长行整行丢弃并按无法识别处理
const maxLineBytes = 4096

// tcpConn 以换行分隔命令的 TCP 连接
type tcpConn struct {
	c net.Conn
	r *bufio.Reader
}

func NewTCPConn(c net.Conn) Conn {
	return &tcpConn{c: c, r: bufio.NewReaderSize(c, maxLineBytes)}
}

func (t *tcpConn) ReadLine() (string, error) {
	line, err := t.r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		for errors.Is(err, bufio.ErrBufferFull) {
			_, err = t.r.ReadSlice('\n')
		}
		if err != nil {
			return "", readErr(err)
		}
		return "", nil
	}
	if err != nil && (len(line) == 0 || !errors.Is(err, io.EOF)) {
		return "", readErr(err)
	}
	return strings.TrimRight(string(line), "\r\n"), nil
}

func readErr(err error) error {
	if errors.Is(err, io.EOF) {
		return net.ErrClosed
	}
	return err
}

func (t *tcpConn) WriteMessage(b []byte, deadline time.Time) error {
	if err := t.c.SetWriteDeadline(deadline); err != nil {
		return err
	}
	_, err := t.c.Write(b)
	return err
}

func (t *tcpConn) Close() error { return t.c.Close() }

func (t *tcpConn) RemoteAddr() string { return t.c.RemoteAddr().String() }

// Serve 接受循环：一次处理一个连接，分配槽位后为其启动独立的接收协程。
// ctx 取消时关闭监听并返回 nil。
func Serve(ctx context.Context, ln net.Listener, m *Manager) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	m.log.Infof("ASCII battle listening on %s", ln.Addr())
	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				m.log.Warnf("accept: %v", err)
				time.Sleep(50 * time.Millisecond)
				continue
			}
			return err
		}
		s, err := m.Admit(NewTCPConn(c))
		if err != nil {
			continue
		}
		go m.Serve(s)
	}
}
