package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"asciibattle/game"
)

// Config 服务端全部可调参数，来自环境变量（可由 .env 文件预加载）
type Config struct {
	Addr     string `env:"BATTLE_ADDR" envDefault:":5555"`
	HTTPAddr string `env:"BATTLE_HTTP_ADDR" envDefault:":8080"`

	Rows        int       `env:"BATTLE_ROWS" envDefault:"5"`
	Cols        int       `env:"BATTLE_COLS" envDefault:"5"`
	Obstacles   Obstacles `env:"BATTLE_OBSTACLES" envDefault:"2:2,1:3"`
	MaxPlayers  int       `env:"BATTLE_MAX_PLAYERS" envDefault:"4"`
	Damage      int       `env:"BATTLE_DAMAGE" envDefault:"10"`
	StartHealth int       `env:"BATTLE_START_HEALTH" envDefault:"100"`

	WriteTimeout time.Duration `env:"BATTLE_WRITE_TIMEOUT" envDefault:"2s"`
	SendQueue    int           `env:"BATTLE_SEND_QUEUE" envDefault:"32"`
	PongWait     time.Duration `env:"BATTLE_WS_PONG_WAIT" envDefault:"60s"`

	LogFile   string `env:"BATTLE_LOG_FILE" envDefault:"battle.log"`
	LogStderr bool   `env:"BATTLE_LOG_STDERR" envDefault:"true"`
}

// Load 先尝试加载 dotenv 文件（不存在则忽略，已有环境变量优先），再解析环境变量
func Load(dotenv string) (Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 检查网络参数；网格与规则由 game.NewWorld 校验
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: empty listen address", game.ErrConfig)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("%w: write timeout %s", game.ErrConfig, c.WriteTimeout)
	}
	if c.SendQueue < 1 {
		return fmt.Errorf("%w: send queue %d", game.ErrConfig, c.SendQueue)
	}
	if c.PongWait <= 0 {
		return fmt.Errorf("%w: websocket pong wait %s", game.ErrConfig, c.PongWait)
	}
	return nil
}

// Rules 转换为世界规则
func (c Config) Rules() game.Rules {
	return game.Rules{
		Rows:        c.Rows,
		Cols:        c.Cols,
		Obstacles:   []game.Pos(c.Obstacles),
		MaxPlayers:  c.MaxPlayers,
		Damage:      c.Damage,
		StartHealth: c.StartHealth,
	}
}

// Obstacles 形如 "2:2,1:3" 的坐标列表；"none" 表示没有障碍
type Obstacles []game.Pos

func (o *Obstacles) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" || strings.EqualFold(s, "none") {
		*o = Obstacles{}
		return nil
	}
	var out Obstacles
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		rs, cs, ok := strings.Cut(tok, ":")
		if !ok {
			return fmt.Errorf("obstacle %q: want row:col", tok)
		}
		r, err := strconv.Atoi(strings.TrimSpace(rs))
		if err != nil {
			return fmt.Errorf("obstacle %q: %w", tok, err)
		}
		c, err := strconv.Atoi(strings.TrimSpace(cs))
		if err != nil {
			return fmt.Errorf("obstacle %q: %w", tok, err)
		}
		out = append(out, game.Pos{Row: r, Col: c})
	}
	*o = out
	return nil
}

func (o Obstacles) String() string {
	if len(o) == 0 {
		return "none"
	}
	parts := make([]string, len(o))
	for i, p := range o {
		parts[i] = fmt.Sprintf("%d:%d", p.Row, p.Col)
	}
	return strings.Join(parts, ",")
}
