package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"asciibattle/game"
)

func TestAdminConfigRoundTrip(t *testing.T) {
	m := newTestManager(t, Options{})
	srv := httptest.NewServer(NewHTTPHandler(m))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/admin/config", "application/json", strings.NewReader(`{"damage":25}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/admin/config")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var got struct {
		Damage      int `json:"damage"`
		StartHealth int `json:"startHealth"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Damage != 25 || got.StartHealth != 100 {
		t.Fatalf("config = %+v", got)
	}
}

func TestAdminConfigRejectsInvalid(t *testing.T) {
	m := newTestManager(t, Options{})
	srv := httptest.NewServer(NewHTTPHandler(m))
	defer srv.Close()

	for _, body := range []string{`{"damage":0}`, `not json`} {
		resp, err := http.Post(srv.URL+"/admin/config", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", body, resp.StatusCode)
		}
	}
	if m.Engine().Rules().Damage != 10 {
		t.Fatalf("damage changed by invalid request")
	}
}

func TestStateAndMetricsEndpoints(t *testing.T) {
	m := newTestManager(t, Options{})
	srv := httptest.NewServer(NewHTTPHandler(m))
	defer srv.Close()

	a, _ := connect(t, m, "a")
	waitFor(t, a, playerIs(0, true))

	resp, err := http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatal(err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	v, err := game.ParseSnapshot(body)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Players[0].Active {
		t.Fatalf("state endpoint missing player A")
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var payload struct {
		Sessions int              `json:"sessions"`
		Active   int              `json:"active"`
		Metrics  map[string]int64 `json:"metrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload.Sessions != 1 || payload.Active != 1 || payload.Metrics["accepted"] != 1 {
		t.Fatalf("metrics = %+v", payload)
	}
}

func TestPlayersEndpoint(t *testing.T) {
	m := newTestManager(t, Options{})
	srv := httptest.NewServer(NewHTTPHandler(m))
	defer srv.Close()

	a, _ := connect(t, m, "a")
	waitFor(t, a, playerIs(0, true))
	a.in <- "MOVE DOWN"
	waitFor(t, a, func(_ string, v game.View) bool { return len(v.Players) > 0 && v.Players[0].Pos == game.Pos{Row: 1, Col: 0} })

	resp, err := http.Get(srv.URL + "/players")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var roster []playerInfo
	if err := json.NewDecoder(resp.Body).Decode(&roster); err != nil {
		t.Fatal(err)
	}
	if len(roster) != 4 {
		t.Fatalf("roster len = %d, want 4", len(roster))
	}
	want := playerInfo{Letter: "A", Active: true, Health: 100, Row: 1, Col: 0}
	if roster[0] != want {
		t.Fatalf("A = %+v, want %+v", roster[0], want)
	}
	if roster[1].Active || roster[1].Row != -1 {
		t.Fatalf("B = %+v, want inactive and unplaced", roster[1])
	}
}

func TestWebSocketGatewaySharesSlots(t *testing.T) {
	m := newTestManager(t, Options{})
	srv := httptest.NewServer(NewHTTPHandler(m))
	defer srv.Close()

	a, _ := connect(t, m, "tcp-a")
	waitFor(t, a, playerIs(0, true))

	ws := dialWS(t, srv)
	readView := func() game.View { return readWSView(t, ws) }

	if v := readView(); !v.Players[1].Active {
		t.Fatalf("websocket client not given slot B")
	}
	// 一条消息里带两行命令
	if err := ws.WriteMessage(websocket.TextMessage, []byte("MOVE DOWN\nATTACK UP\n")); err != nil {
		t.Fatal(err)
	}
	if v := readView(); v.Players[1].Pos != (game.Pos{Row: 1, Col: 1}) {
		t.Fatalf("B pos = %v, want (1,1)", v.Players[1].Pos)
	}
	// (1,1) 上方是 (0,1)，为空，攻击是 no-op；用 TCP 侧的移动确认没有多余广播
	a.in <- "MOVE RIGHT"
	v := readView()
	if v.Players[0].Pos != (game.Pos{Row: 0, Col: 1}) || v.Players[1].Health != 100 {
		t.Fatalf("unexpected view %+v", v.Players)
	}
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ws.Close() })
	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	return ws
}

func readWSView(t *testing.T, ws *websocket.Conn) game.View {
	t.Helper()
	_, msg, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	v, err := game.ParseSnapshot(msg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return v
}

func TestWebSocketOversizedLineKeepsConnection(t *testing.T) {
	m := newTestManager(t, Options{})
	srv := httptest.NewServer(NewHTTPHandler(m))
	defer srv.Close()

	ws := dialWS(t, srv)
	readWSView(t, ws)

	msg := strings.Repeat("z", maxLineBytes+904) + "\nMOVE DOWN\n"
	if err := ws.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatal(err)
	}
	if v := readWSView(t, ws); v.Players[0].Pos != (game.Pos{Row: 1, Col: 0}) {
		t.Fatalf("A pos = %v, want (1,0)", v.Players[0].Pos)
	}
	if got := m.Metrics().Snapshot()["unrecognized"]; got != int64(1) {
		t.Fatalf("unrecognized = %d, want 1", got)
	}
}

// 不回应 ping 的半开连接在 PongWait 后被清理，正常读取的客户端保持在线
func TestWebSocketKeepaliveDropsSilentPeer(t *testing.T) {
	m := newTestManager(t, Options{PongWait: 500 * time.Millisecond})
	srv := httptest.NewServer(NewHTTPHandler(m))
	defer srv.Close()

	live := dialWS(t, srv)
	readWSView(t, live)
	_ = live.SetReadDeadline(time.Time{})
	go func() {
		// 读循环中默认的 ping 处理器会回应 pong
		for {
			if _, _, err := live.ReadMessage(); err != nil {
				return
			}
		}
	}()

	dialWS(t, srv)
	waitUntil(t, "second websocket session", func() bool { return m.Count() == 2 })
	waitUntil(t, "silent session dropped", func() bool { return m.Count() == 1 })

	time.Sleep(time.Second)
	players := m.Engine().Players()
	if !players[0].Active || players[1].Active {
		t.Fatalf("A active=%v B active=%v, want true false", players[0].Active, players[1].Active)
	}
	if n := m.Count(); n != 1 {
		t.Fatalf("sessions = %d, want 1", n)
	}
}
