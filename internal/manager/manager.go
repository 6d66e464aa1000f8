// Package manager is the room registry: it creates rooms, routes intents
// to the owning engine, and sweeps dead rooms. Rooms never share mutable
// state; the registry lock only guards the map itself.
package manager

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/boton-fun/headsoccer/internal/engine"
	"github.com/boton-fun/headsoccer/internal/room"
)

// Config tunes the registry.
type Config struct {
	SweepInterval time.Duration `yaml:"sweep_interval"`
	MaxRoomAge    time.Duration `yaml:"max_room_age"`
}

// DefaultConfig returns the stock registry settings.
func DefaultConfig() Config {
	return Config{
		SweepInterval: time.Minute,
		MaxRoomAge:    2 * time.Hour,
	}
}

type managedRoom struct {
	eng       *engine.Engine
	joinCode  string
	createdAt time.Time
	cancel    context.CancelFunc
}

// Manager owns every live room on this process.
type Manager struct {
	cfg       Config
	engCfg    engine.Config
	clk       clockwork.Clock
	notifier  engine.Notifier
	publisher engine.Publisher

	mu    sync.RWMutex
	rooms map[string]*managedRoom
	codes map[string]string // join code -> room id

	sched gocron.Scheduler
}

// New builds a registry. The notifier and publisher are handed to every
// engine it creates.
func New(cfg Config, engCfg engine.Config, clk clockwork.Clock, n engine.Notifier, p engine.Publisher) *Manager {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultConfig().SweepInterval
	}
	if cfg.MaxRoomAge <= 0 {
		cfg.MaxRoomAge = DefaultConfig().MaxRoomAge
	}
	return &Manager{
		cfg:       cfg,
		engCfg:    engCfg,
		clk:       clk,
		notifier:  n,
		publisher: p,
		rooms:     make(map[string]*managedRoom),
		codes:     make(map[string]string),
	}
}

// RoomInfo is what callers get back when creating or looking up a room.
type RoomInfo struct {
	RoomID   string `json:"room_id"`
	JoinCode string `json:"join_code"`
}

// CreateRoom spins up a room and its engine loop.
func (m *Manager) CreateRoom(ctx context.Context, cfg room.Config) (RoomInfo, error) {
	if cfg.TimeLimit < 0 || cfg.ScoreLimit < 0 {
		return RoomInfo{}, fmt.Errorf("manager: negative match limits (time=%d score=%d)", cfg.TimeLimit, cfg.ScoreLimit)
	}

	rm := room.New(cfg, m.clk)
	eng := engine.New(rm, m.engCfg, m.clk, m.notifier, m.publisher)

	runCtx, cancel := context.WithCancel(ctx)
	mr := &managedRoom{
		eng:       eng,
		joinCode:  newJoinCode(),
		createdAt: m.clk.Now(),
		cancel:    cancel,
	}

	m.mu.Lock()
	m.rooms[rm.ID] = mr
	m.codes[mr.joinCode] = rm.ID
	m.mu.Unlock()

	go eng.Run(runCtx)

	log.Info().
		Str("room_id", rm.ID).
		Str("join_code", mr.joinCode).
		Str("game_mode", string(cfg.GameMode)).
		Msg("room created")
	return RoomInfo{RoomID: rm.ID, JoinCode: mr.joinCode}, nil
}

// Resolve maps a join code to a room id.
func (m *Manager) Resolve(joinCode string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.codes[strings.ToUpper(joinCode)]
	return id, ok
}

// Submit routes an intent to a room's engine. A missing or stopped room
// yields engine.ErrRoomGone.
func (m *Manager) Submit(roomID string, in engine.Intent) error {
	m.mu.RLock()
	mr, ok := m.rooms[roomID]
	m.mu.RUnlock()
	if !ok {
		return engine.ErrRoomGone
	}
	return mr.eng.Submit(in)
}

// Teardown stops a room's engine and forgets it.
func (m *Manager) Teardown(roomID string) {
	m.mu.Lock()
	mr, ok := m.rooms[roomID]
	if ok {
		delete(m.rooms, roomID)
		delete(m.codes, mr.joinCode)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	mr.eng.Stop()
	mr.cancel()
	log.Info().Str("room_id", roomID).Msg("room torn down")
}

// RoomCount returns the number of registered rooms.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// StartSweeper schedules the periodic stale-room sweep.
func (m *Manager) StartSweeper() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(m.cfg.SweepInterval),
		gocron.NewTask(m.Sweep),
	); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	sched.Start()
	m.sched = sched
	return nil
}

// Sweep removes rooms whose engines have stopped and expires rooms past
// the maximum age. Expiry only signals the engine; the entry is reaped on
// a later pass once the loop has wound down.
func (m *Manager) Sweep() {
	now := m.clk.Now()

	m.mu.Lock()
	var reaped []string
	for id, mr := range m.rooms {
		switch {
		case mr.eng.Stopped():
			delete(m.rooms, id)
			delete(m.codes, mr.joinCode)
			mr.cancel()
			reaped = append(reaped, id)
		case now.Sub(mr.createdAt) > m.cfg.MaxRoomAge:
			mr.eng.Stop()
		}
	}
	m.mu.Unlock()

	for _, id := range reaped {
		log.Info().Str("room_id", id).Msg("swept dead room")
	}
}

// Shutdown stops the sweeper and every engine.
func (m *Manager) Shutdown() {
	if m.sched != nil {
		if err := m.sched.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("scheduler shutdown failed")
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, mr := range m.rooms {
		mr.eng.Stop()
		mr.cancel()
		delete(m.rooms, id)
		delete(m.codes, mr.joinCode)
	}
}

func newJoinCode() string {
	return strings.ToUpper(uuid.New().String()[:6])
}
