package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const rolloverCheckInterval = 30 * time.Second

// Client is one connected websocket session for a user. A user may have
// several (phone and watch, say); events go to all of them.
type Client struct {
	Conn   *websocket.Conn
	UserID uuid.UUID
	Send   chan []byte
}

// Service is the realtime push hub. It replaces per-row change subscriptions:
// the progression flow pushes level-up, unlock and quest events here, and a
// background loop announces the daily quest rollover so clients refetch.
type Service struct {
	logger zerolog.Logger
	loc    *time.Location

	mu       sync.RWMutex
	clients  map[*Client]struct{}
	lastDate string
	quit     chan struct{}
	started  bool
}

func NewService(logger zerolog.Logger, timezone string) *Service {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &Service{
		logger:   logger,
		loc:      loc,
		clients:  make(map[*Client]struct{}),
		lastDate: time.Now().In(loc).Format("2006-01-02"),
		quit:     make(chan struct{}),
	}
}

func (s *Service) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	ticker := time.NewTicker(rolloverCheckInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.checkRollover(time.Now())
			case <-s.quit:
				return
			}
		}
	}()
}

func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.quit)
	clients := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = map[*Client]struct{}{}
	s.mu.Unlock()

	for _, c := range clients {
		close(c.Send)
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
	}
}

func (s *Service) RegisterClient(conn *websocket.Conn, userID uuid.UUID) *Client {
	c := &Client{Conn: conn, UserID: userID, Send: make(chan []byte, 128)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	return c
}

func (s *Service) UnregisterClient(c *Client) {
	s.mu.Lock()
	_, exists := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if !exists {
		return
	}
	close(c.Send)
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

// Notify sends a payload to every connection the user has open. Slow clients
// drop messages rather than blocking the progression flow.
func (s *Service) Notify(userID uuid.UUID, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("marshal ws payload failed")
		return
	}

	s.mu.RLock()
	targets := make([]*Client, 0)
	for c := range s.clients {
		if c.UserID == userID {
			targets = append(targets, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range targets {
		nonBlockingSend(c.Send, b)
	}
}

// Broadcast sends a payload to every connected client.
func (s *Service) Broadcast(payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("marshal ws payload failed")
		return
	}

	s.mu.RLock()
	targets := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.RUnlock()

	for _, c := range targets {
		nonBlockingSend(c.Send, b)
	}
}

// ConnectedUsers reports how many distinct users have open connections.
func (s *Service) ConnectedUsers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[uuid.UUID]struct{}, len(s.clients))
	for c := range s.clients {
		seen[c.UserID] = struct{}{}
	}
	return len(seen)
}

func (s *Service) checkRollover(now time.Time) {
	date := now.In(s.loc).Format("2006-01-02")
	s.mu.Lock()
	if date == s.lastDate {
		s.mu.Unlock()
		return
	}
	s.lastDate = date
	s.mu.Unlock()

	s.logger.Info().Str("quest_date", date).Msg("daily quest rollover")
	s.Broadcast(map[string]any{"type": "quests_rollover", "quest_date": date})
}

func nonBlockingSend(ch chan []byte, msg []byte) {
	select {
	case ch <- msg:
	default:
	}
}
