package nowline

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klokku/weekcal/internal/event_bus"
	"github.com/klokku/weekcal/internal/rest"
	"github.com/klokku/weekcal/pkg/user"
	"github.com/klokku/weekcal/pkg/weekrange"
	"github.com/klokku/weekcal/pkg/weekview"
	log "github.com/sirupsen/logrus"
)

const (
	MessageNow           = "now"
	MessageEventsChanged = "events_changed"

	defaultViewportWidth = 1024
	writeTimeout         = 10 * time.Second
	pongTimeout          = 60 * time.Second
	pingInterval         = 50 * time.Second
	outboxSize           = 16
)

// Message is pushed to stream subscribers as JSON.
type Message struct {
	Type string   `json:"type"`
	Date string   `json:"date,omitempty"`
	Time string   `json:"time,omitempty"`
	Top  *float64 `json:"top,omitempty"`
	// Week is the ISO week whose layout changed, e.g. "2025-W01".
	Week string `json:"week,omitempty"`
	// AllWeeks is set when a recurring event changed and any week may be affected.
	AllWeeks bool `json:"allWeeks,omitempty"`
}

type CurrentTimer interface {
	CurrentTime(ctx context.Context, viewportWidth int) weekview.NowLine
}

type Handler struct {
	eventBus *event_bus.EventBus
	timer    CurrentTimer
	upgrader websocket.Upgrader
}

// NewHandler builds the stream endpoint. checkOrigin may be nil to accept only
// same-origin upgrades.
func NewHandler(eventBus *event_bus.EventBus, timer CurrentTimer, checkOrigin func(r *http.Request) bool) *Handler {
	return &Handler{
		eventBus: eventBus,
		timer:    timer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Stream godoc
// @Summary Live current-time and calendar change feed
// @Description Websocket pushing the current-time line every minute and a notice when the user's events change
// @Tags Week
// @Param width query int false "Viewport width in logical pixels"
// @Router /api/week/now/ws [get]
// @Security XUserId
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusForbidden, "User not found", "")
		return
	}
	width, err := rest.IntQuery(r, "width", defaultViewportWidth)
	if err != nil || width <= 0 {
		rest.WriteError(w, http.StatusBadRequest, "Invalid 'width'", "expected a positive integer")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade failed for user %d: %v", currentUser.Id, err)
		return
	}
	defer conn.Close()
	log.Debugf("now line stream opened for user %d", currentUser.Id)

	ctx, cancel := context.WithCancel(user.WithUser(context.Background(), currentUser))
	defer cancel()

	outbox := make(chan Message, outboxSize)
	send := func(m Message) {
		select {
		case outbox <- m:
		default:
			log.Warnf("now line stream of user %d is full, dropping %s message", currentUser.Id, m.Type)
		}
	}

	unsubscribeTicks := event_bus.SubscribeTyped(h.eventBus, event_bus.NowTickType,
		func(e event_bus.EventT[event_bus.NowTick]) error {
			send(h.nowMessage(ctx, width))
			return nil
		})
	defer unsubscribeTicks()

	unsubscribeChanges := event_bus.SubscribeTyped(h.eventBus, event_bus.CalendarEventChangedType,
		func(e event_bus.EventT[event_bus.CalendarEventChanged]) error {
			if e.Data.UserId != currentUser.Id {
				return nil
			}
			for _, m := range changeMessages(e.Data) {
				send(m)
			}
			return nil
		})
	defer unsubscribeChanges()

	go h.readLoop(conn, cancel)

	send(h.nowMessage(ctx, width))
	h.writeLoop(ctx, conn, outbox)
	log.Debugf("now line stream closed for user %d", currentUser.Id)
}

// readLoop discards client messages and cancels the stream when the peer goes away.
func (h *Handler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugf("now line stream read error: %v", err)
			}
			return
		}
	}
}

func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, outbox <-chan Message) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
			return
		case m := <-outbox:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(m); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					log.Debugf("now line stream write failed: %v", err)
				}
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) nowMessage(ctx context.Context, width int) Message {
	now := h.timer.CurrentTime(ctx, width)
	return Message{
		Type: MessageNow,
		Date: weekrange.FormatDate(now.Date),
		Time: now.Time,
		Top:  &now.Top,
	}
}

// changeMessages yields one message per distinct week touched by the change.
func changeMessages(change event_bus.CalendarEventChanged) []Message {
	if change.Recurring {
		return []Message{{Type: MessageEventsChanged, AllWeeks: true}}
	}
	seen := make(map[weekrange.WeekNumber]bool, len(change.Dates))
	messages := make([]Message, 0, len(change.Dates))
	for _, d := range change.Dates {
		week := weekrange.WeekNumberFromDate(d)
		if seen[week] {
			continue
		}
		seen[week] = true
		messages = append(messages, Message{Type: MessageEventsChanged, Week: week.String()})
	}
	return messages
}
