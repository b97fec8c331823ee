package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"asciibattle/game"
)

// NewHTTPHandler 管理与监控接口，以及 WebSocket 接入
func NewHTTPHandler(m *Manager) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", m.HandleWS)
	mux.HandleFunc("/admin/config", m.HandleAdminConfig)
	mux.HandleFunc("/metrics", m.HandleMetrics)
	mux.HandleFunc("/state", m.HandleState)
	mux.HandleFunc("/players", m.HandlePlayers)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// HandleAdminConfig 提供战斗规则的读取与热更新
// GET /admin/config  返回当前配置
// POST /admin/config 以 JSON 载荷更新部分字段
func (m *Manager) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	type cfg struct {
		Damage      *int `json:"damage,omitempty"`
		StartHealth *int `json:"startHealth,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		rules := m.engine.Rules()
		cur := cfg{Damage: &rules.Damage, StartHealth: &rules.StartHealth}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cur)
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		rules := m.engine.Rules()
		if body.Damage != nil {
			rules.Damage = *body.Damage
		}
		if body.StartHealth != nil {
			rules.StartHealth = *body.StartHealth
		}
		if err := m.engine.SetCombat(rules.Damage, rules.StartHealth); err != nil {
			if errors.Is(err, game.ErrConfig) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		m.log.Infof("config updated: damage=%d startHealth=%d", rules.Damage, rules.StartHealth)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMetrics 输出运行指标
// GET /metrics
func (m *Manager) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"sessions": m.Count(),
		"active":   m.engine.ActiveCount(),
		"seq":      m.engine.Seq(),
		"metrics":  m.metrics.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// HandleState 以线上协议格式输出当前快照
// GET /state
func (m *Manager) HandleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(m.engine.Snapshot())
}

// playerInfo /players 中的一条记录
type playerInfo struct {
	Letter string `json:"letter"`
	Active bool   `json:"active"`
	Health int    `json:"health"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

// HandlePlayers 以 JSON 输出按槽位排列的玩家名册
// GET /players
func (m *Manager) HandlePlayers(w http.ResponseWriter, r *http.Request) {
	players := m.engine.Players()
	out := make([]playerInfo, 0, len(players))
	for _, p := range players {
		out = append(out, playerInfo{
			Letter: string(p.Letter()),
			Active: p.Active,
			Health: p.Health,
			Row:    p.Pos.Row,
			Col:    p.Pos.Col,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
