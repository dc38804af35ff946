package chathub

import (
	"context"
	"log/slog"

	"skillnexus/backend/internal/models"
)

// Inbound is one decoded frame together with the connection it arrived on.
type Inbound struct {
	Client Client
	Event  models.Event
}

// ManagerService is the hub dispatcher. A single goroutine running Run owns
// the presence directory and applies every join, leave and relay request in
// the order it receives them.
type ManagerService struct {
	Directory *Directory
	Relay     *Relay

	// Channels
	RegisterCh   chan Client
	UnregisterCh chan Client
	IncomingCh   chan Inbound

	queryCh chan func()
	done    chan struct{}

	// connections holds every registered handle, superseded ones included,
	// so each one is closed exactly once.
	connections map[Client]struct{}

	mirror   PresenceMirror
	mirrorCh chan<- mirrorOp
	log      *slog.Logger
}

// NewManagerService builds a hub. mirror may be nil.
func NewManagerService(mirror PresenceMirror, log *slog.Logger) *ManagerService {
	if log == nil {
		log = slog.Default()
	}
	dir := NewDirectory()
	return &ManagerService{
		Directory:    dir,
		Relay:        NewRelay(dir, log),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		IncomingCh:   make(chan Inbound),
		queryCh:      make(chan func()),
		done:         make(chan struct{}),
		connections:  make(map[Client]struct{}),
		mirror:       mirror,
		log:          log,
	}
}

// Done is closed once Run has returned.
func (m *ManagerService) Done() <-chan struct{} { return m.done }

// Run processes hub requests until ctx is cancelled, then closes every
// remaining connection.
func (m *ManagerService) Run(ctx context.Context) {
	defer close(m.done)
	m.mirrorCh = startMirror(ctx, m.mirror, m.log)
	m.log.Info("chat hub started")

	for {
		select {
		case <-ctx.Done():
			for c := range m.connections {
				c.Close()
			}
			m.connections = map[Client]struct{}{}
			m.log.Info("chat hub stopped")
			return

		case c := <-m.RegisterCh:
			m.connections[c] = struct{}{}
			m.join(c)

		case c := <-m.UnregisterCh:
			if _, ok := m.connections[c]; !ok {
				continue
			}
			delete(m.connections, c)
			m.leave(c)
			c.Close()

		case in := <-m.IncomingCh:
			m.dispatch(in)

		case q := <-m.queryCh:
			q()
		}
	}
}

// Register hands c to the hub. It returns false if the hub has stopped.
func (m *ManagerService) Register(c Client) bool {
	select {
	case m.RegisterCh <- c:
		return true
	case <-m.done:
		return false
	}
}

// OnlineUsers returns a snapshot of the present identities.
func (m *ManagerService) OnlineUsers(ctx context.Context) ([]string, error) {
	result := make(chan []string, 1)
	query := func() { result <- m.Directory.UserIDs() }

	select {
	case m.queryCh <- query:
	case <-m.done:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return <-result, nil
}

func (m *ManagerService) join(c Client) {
	userID := c.GetUserID()
	previous := m.Directory.Join(userID, c)
	if previous != nil {
		m.log.Info("connection superseded", "user_id", userID)
	}

	ev, err := models.NewEvent(models.EventUserOnline, userID)
	if err != nil {
		m.log.Error("failed to encode presence event", "error", err)
		return
	}
	m.Relay.Broadcast(userID, ev)
	m.mirrorUpdate(userID, true)
	m.log.Info("user joined", "user_id", userID, "online", m.Directory.Len())
}

func (m *ManagerService) leave(c Client) {
	userID, ok := m.Directory.Leave(c)
	if !ok {
		return
	}

	ev, err := models.NewEvent(models.EventUserOffline, userID)
	if err != nil {
		m.log.Error("failed to encode presence event", "error", err)
		return
	}
	m.Relay.Broadcast(userID, ev)
	m.mirrorUpdate(userID, false)
	m.log.Info("user left", "user_id", userID, "online", m.Directory.Len())
}

func (m *ManagerService) mirrorUpdate(userID string, online bool) {
	if m.mirrorCh == nil {
		return
	}
	select {
	case m.mirrorCh <- mirrorOp{userID: userID, online: online}:
	default:
		m.log.Warn("presence mirror backlog full, update skipped", "user_id", userID)
	}
}

// dispatch routes a client frame. The sender identity always comes from
// the connection, never from the payload.
func (m *ManagerService) dispatch(in Inbound) {
	senderID := in.Client.GetUserID()

	switch in.Event.Event {
	case models.EventUserJoin:
		var claimed string
		if len(in.Event.Data) > 0 {
			if err := in.Event.Decode(&claimed); err == nil && claimed != "" && claimed != senderID {
				m.log.Warn("join identity mismatch, using authenticated id", "claimed", claimed, "user_id", senderID)
			}
		}
		if _, ok := m.connections[in.Client]; !ok {
			return
		}
		if current, ok := m.Directory.Resolve(senderID); ok && current == in.Client {
			// already announced on register
			return
		}
		m.join(in.Client)

	case models.EventMessageSend:
		var p models.SendPayload
		if err := in.Event.Decode(&p); err != nil || p.ReceiverID == "" || len(p.Message) == 0 {
			m.log.Warn("malformed message:send dropped", "user_id", senderID, "error", err)
			return
		}
		m.Relay.Send(senderID, p.ReceiverID, p.Message)

	case models.EventTypingStart, models.EventTypingStop:
		var p models.TypingPayload
		if err := in.Event.Decode(&p); err != nil || p.ReceiverID == "" {
			m.log.Warn("malformed typing event dropped", "event", in.Event.Event, "user_id", senderID, "error", err)
			return
		}
		if p.SenderID != "" && p.SenderID != senderID {
			m.log.Warn("typing identity mismatch, using authenticated id", "claimed", p.SenderID, "user_id", senderID)
		}
		if in.Event.Event == models.EventTypingStart {
			m.Relay.TypingStart(senderID, p.ReceiverID)
		} else {
			m.Relay.TypingStop(senderID, p.ReceiverID)
		}

	default:
		m.log.Debug("unknown event ignored", "event", in.Event.Event, "user_id", senderID)
	}
}
