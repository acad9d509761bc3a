package config

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/annel0/worldstream/internal/util"
	"github.com/annel0/worldstream/internal/world"
)

// ErrInvalidConfig возвращается, если конфигурация не прошла проверку
var ErrInvalidConfig = errors.New("invalid config")

// Config корневая структура конфигурации приложения.
type Config struct {
	World      world.Params    `yaml:"world"`
	RandomSeed bool            `yaml:"random_seed"`
	Logging    LoggingConfig   `yaml:"logging"`
	Metrics    MetricsConfig   `yaml:"metrics"`
	Telemetry  TelemetryConfig `yaml:"telemetry"`
	Sim        SimConfig       `yaml:"sim"`
	EventBus   EventBusConfig  `yaml:"eventbus"`
	State      StateConfig     `yaml:"state"`
	API        APIConfig       `yaml:"api"`
}

// Бэкенды хранилища сессии
const (
	StateBadger = "badger"
	StateRedis  = "redis"
)

// EventBusConfig выбирает шину событий чанков: пустой URL — in-memory шина
type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Capacity  int    `yaml:"capacity"`
}

// StateConfig описывает хранилище сессии наблюдателя
type StateConfig struct {
	Backend string      `yaml:"backend"` // badger (по умолчанию) или redis
	Dir     string      `yaml:"dir"`     // Каталог BadgerDB; пустой — без сохранения
	Redis   RedisConfig `yaml:"redis"`
	Resume  bool        `yaml:"resume"` // Продолжить с сохранённых сида и позиции
}

type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// Enabled сообщает, настроено ли хранилище сессии
func (s *StateConfig) Enabled() bool {
	if s.Backend == StateRedis {
		return s.Redis.Addr != ""
	}
	return s.Dir != ""
}

// APIConfig описывает HTTP API состояния мира
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
	Service  string `yaml:"service"`
}

// SimConfig описывает наблюдателя, которого двигает headless-хост
type SimConfig struct {
	StartX      float64       `yaml:"start_x"`
	Speed       float64       `yaml:"speed"`        // Смещение за тик в мировых единицах
	PatrolTicks int           `yaml:"patrol_ticks"` // Разворот каждые N тиков; 0 — без разворота
	TickRate    time.Duration `yaml:"tick_rate"`
	ReportEvery int           `yaml:"report_every"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: world.DefaultParams(),
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Telemetry: TelemetryConfig{
			Endpoint: "localhost:4318",
			Insecure: true,
			Service:  "worldstream",
		},
		Sim: SimConfig{
			Speed:       30,
			PatrolTicks: 0,
			TickRate:    50 * time.Millisecond,
			ReportEvery: 100,
		},
		EventBus: EventBusConfig{
			Stream:    "WORLDSTREAM",
			Retention: 24,
			Capacity:  1024,
		},
		API: APIConfig{
			Addr: ":8080",
		},
	}
}

// GetRetention возвращает срок хранения событий в JetStream
func (e *EventBusConfig) GetRetention() time.Duration {
	return time.Duration(e.Retention) * time.Hour
}

// GetMetricsPort возвращает порт метрик Prometheus с поддержкой fallback значений
func (m *MetricsConfig) GetMetricsPort() int {
	return getIntWithEnvFallback(m.Port, "WORLD_METRICS_PORT", 2112)
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configValue int, envVar string, defaultValue int) int {
	// Если значение задано в конфиге и больше 0, используем его
	if configValue > 0 {
		return configValue
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}

	// Используем дефолтное значение
	return defaultValue
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV WORLDSTREAM_CONFIG, иначе
// возвращает конфигурацию по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("WORLDSTREAM_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.RandomSeed {
		cfg.World.Seed = rand.Int31()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv применяет переменные окружения, которые переопределяют файл
func (c *Config) applyEnv() error {
	if v := os.Getenv("WORLD_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("%w: WORLD_SEED=%q: %v", ErrInvalidConfig, v, err)
		}
		c.World.Seed = int32(seed)
		c.RandomSeed = false
	}
	return nil
}

// Validate проверяет параметры мира и симуляции
func (c *Config) Validate() error {
	p := c.World

	var problems []string
	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	check(p.BlockSize > 0, "world.block_size must be > 0")
	check(p.ChunkBlocks > 0, "world.chunk_blocks must be > 0")
	check(p.GroundDepth > 0, "world.ground_depth must be > 0")
	check(p.WindowHeight > 0, "world.window_height must be > 0")
	check(p.GroundRatio >= 0 && p.GroundRatio <= 1, "world.ground_ratio must be in [0,1]")
	check(p.NoiseKind == util.NoiseValue || p.NoiseKind == util.NoisePerlin, "world.noise_kind must be value or perlin")
	check(p.NoiseAmplitude >= 0, "world.noise_amplitude must be >= 0")
	check(p.NoiseSpacing > 0, "world.noise_spacing must be > 0")
	check(p.TreeDensity >= 0 && p.TreeDensity <= 1, "world.tree_density must be in [0,1]")
	check(p.TrunkMinBlocks > 0, "world.trunk_min_blocks must be > 0")
	check(p.TrunkMinBlocks <= p.TrunkMaxBlocks, "world.trunk_min_blocks must be <= trunk_max_blocks")
	check(p.FoliageWidth > 0 && p.FoliageHeight > 0, "world.foliage_width and foliage_height must be > 0")
	check(p.LeafRatio >= 0 && p.FruitRatio >= 0, "world.leaf_ratio and fruit_ratio must be >= 0")
	check(p.LeafRatio+p.FruitRatio <= 1, "world.leaf_ratio + fruit_ratio must be <= 1")
	check(p.Terrain.Before >= 0 && p.Terrain.After >= 0, "world.terrain range must be >= 0")
	check(p.Flora.Before >= 0 && p.Flora.After >= 0, "world.flora range must be >= 0")
	check(c.Sim.TickRate >= 0, "sim.tick_rate must be >= 0")
	check(c.Sim.PatrolTicks >= 0, "sim.patrol_ticks must be >= 0")
	check(c.Sim.ReportEvery >= 0, "sim.report_every must be >= 0")
	check(c.EventBus.Capacity > 0, "eventbus.capacity must be > 0")
	check(c.EventBus.Retention >= 0, "eventbus.retention_hours must be >= 0")
	check(c.State.Backend == "" || c.State.Backend == StateBadger || c.State.Backend == StateRedis, "state.backend must be badger or redis")
	check(!c.State.Resume || c.State.Enabled(), "state.resume requires state.dir or state.redis.addr")
	check(c.State.Redis.TTLMinutes >= 0, "state.redis.ttl_minutes must be >= 0")
	check(!c.API.Enabled || c.API.Addr != "", "api.addr must be set when api is enabled")

	if len(problems) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, problems)
	}
	return nil
}
