package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/gookit/color"

	"skillnexus/backend/internal/client"
	"skillnexus/backend/internal/config"
	"skillnexus/backend/internal/logger"
	"skillnexus/backend/internal/models"
	"skillnexus/backend/internal/session"
)

const help = `/open <user_id>  open a conversation
/list            list conversations
/quit            exit
anything else is sent to the open conversation`

func main() {
	if err := run(); err != nil {
		color.Error.Println(err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadChat()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.NewAPI(cfg.ServerURL, cfg.Token)
	self, err := api.Profile(ctx, cfg.UserID)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	transport := client.NewTransport(cfg.ServerURL, cfg.Token, self.ID, log)
	view := &screen{self: self, printed: make(map[uint]bool)}
	ctrl := session.NewController(self, api, transport, session.Options{
		Logger:   log,
		OnChange: func() { view.render() },
		OnError:  func(err error) { color.Error.Println(err) },
	})
	view.ctrl = ctrl
	transport.OnEvent = ctrl.HandleEvent
	transport.OnDisconnect = func(err error) {
		color.Error.Println("disconnected:", err)
		stop()
	}

	if err := transport.Connect(ctx); err != nil {
		return err
	}
	defer transport.Close()

	if err := ctrl.LoadConversations(ctx); err != nil {
		return err
	}
	color.Info.Printf("Signed in as %s\n", self.Name)
	fmt.Println(help)
	view.list()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := handleLine(ctx, ctrl, view, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

func handleLine(ctx context.Context, ctrl *session.Controller, view *screen, line string) bool {
	switch {
	case line == "":
	case line == "/quit":
		return true
	case line == "/list":
		view.list()
	case strings.HasPrefix(line, "/open "):
		view.reset()
		_ = ctrl.OpenConversation(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/open ")))
	default:
		if _, err := ctrl.Send(ctx, line); errors.Is(err, session.ErrNoConversation) {
			color.Warn.Println("open a conversation first")
		}
	}
	return false
}

// screen prints messages of the open conversation once each, and typing
// changes of the counterpart.
type screen struct {
	self models.UserRef
	ctrl *session.Controller

	mu      sync.Mutex
	printed map[uint]bool
	typing  bool
}

func (s *screen) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.printed = make(map[uint]bool)
	s.typing = false
}

func (s *screen) render() {
	if s.ctrl == nil {
		return
	}
	active := s.ctrl.Active()
	msgs := s.ctrl.Messages()
	typing := active != "" && s.ctrl.IsTyping(active)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		if m.Pending() || s.printed[m.Record.ID] {
			continue
		}
		s.printed[m.Record.ID] = true
		stamp := m.Record.CreatedAt.Local().Format("15:04")
		if m.Record.Sender.ID == s.self.ID {
			color.Gray.Printf("[%s] you: %s\n", stamp, m.Record.Content)
		} else {
			color.Cyan.Printf("[%s] %s: %s\n", stamp, m.Record.Sender.Name, m.Record.Content)
		}
	}
	if typing != s.typing {
		s.typing = typing
		if typing {
			color.Gray.Println("... typing")
		}
	}
}

func (s *screen) list() {
	summaries := s.ctrl.Conversations()
	if len(summaries) == 0 {
		fmt.Println("no conversations yet")
		return
	}
	for _, c := range summaries {
		status := " "
		if s.ctrl.IsOnline(c.User.ID) {
			status = color.Green.Render("●")
		}
		preview := ""
		if c.LastMessage != nil {
			preview = c.LastMessage.Content
		}
		line := fmt.Sprintf("%s %s (%s) %s", status, c.User.Name, c.User.ID, preview)
		if c.UnreadCount > 0 {
			line += color.Yellow.Sprintf(" [%d unread]", c.UnreadCount)
		}
		fmt.Println(line)
	}
}
