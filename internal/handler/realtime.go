package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/winery-visit-booking/internal/dashboard"
	"github.com/iliyamo/winery-visit-booking/internal/middleware"
	"github.com/iliyamo/winery-visit-booking/internal/realtime"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// RealtimeHandler streams change events over WebSockets.
type RealtimeHandler struct {
	Hub      *realtime.Hub
	Admin    *AdminHandler
	Upgrader websocket.Upgrader
}

// NewRealtimeHandler allows the given origins; an empty list accepts any.
func NewRealtimeHandler(hub *realtime.Hub, admin *AdminHandler, origins []string) *RealtimeHandler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimSpace(o)] = true
	}
	return &RealtimeHandler{
		Hub:   hub,
		Admin: admin,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return len(allowed) == 0 || allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// wireEvent is what a client receives for a change.
type wireEvent struct {
	Table string    `json:"table"`
	Op    string    `json:"op"`
	ID    uint64    `json:"id,omitempty"`
	At    time.Time `json:"at"`
}

// ParseTables reads the tables query parameter.  Only change tables are
// accepted; none or only unknown ones mean both.
func ParseTables(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		switch t = strings.TrimSpace(t); t {
		case realtime.TableVisits, realtime.TableSlots:
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		out = []string{realtime.TableVisits, realtime.TableSlots}
	}
	return out
}

// socket is one upgraded connection.  All writes happen on the goroutine
// running loop.
type socket struct {
	conn *websocket.Conn
	sub  *realtime.Subscription
	uid  uint64
	log  *zerolog.Logger
	cmds chan []byte
}

func (h *RealtimeHandler) open(c echo.Context, tables []string) (*socket, error) {
	conn, err := h.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil, err
	}
	uid, _ := middleware.UserID(c)
	s := &socket{
		conn: conn,
		sub:  h.Hub.Subscribe(append(append([]string{}, tables...), realtime.TableAuth)...),
		uid:  uid,
		log:  zerolog.Ctx(c.Request().Context()),
		cmds: make(chan []byte, 4),
	}
	return s, nil
}

// read drains client messages into cmds until the peer goes away, then
// cancels the connection's context.
func (s *socket) read(cancel context.CancelFunc) {
	defer cancel()
	defer close(s.cmds)
	s.conn.SetReadLimit(4096)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error { return s.conn.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case s.cmds <- msg:
		default: // a client flooding commands loses some
		}
	}
}

func (s *socket) write(v any) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

// signedOut reports whether ev ends this connection's session.
func (s *socket) signedOut(ev realtime.Event) bool {
	return ev.Table == realtime.TableAuth && ev.Op == realtime.OpSignedOut && s.uid != 0 && ev.UserID == s.uid
}

// loop pumps events until ctx ends, the subscription closes or the user
// signs out.  onEvent and onCmd return the message to send, nil for none.
func (s *socket) loop(ctx context.Context, onEvent func(realtime.Event) any, onCmd func([]byte) any) {
	defer s.conn.Close()
	defer s.sub.Close()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	cmds := s.cmds
	for {
		var out any
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
			continue
		case ev, ok := <-s.sub.C():
			if !ok {
				return
			}
			if s.signedOut(ev) {
				msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "signed out")
				_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
				return
			}
			if ev.Table == realtime.TableAuth {
				continue
			}
			out = onEvent(ev)
		case msg, ok := <-cmds:
			if !ok {
				cmds = nil
				continue
			}
			if onCmd != nil {
				out = onCmd(msg)
			}
		}
		if out == nil {
			continue
		}
		if err := s.write(out); err != nil {
			s.log.Debug().Err(err).Msg("realtime: write failed")
			return
		}
	}
}

// Stream handles GET /v1/realtime?tables=visits,slots.  Each change is
// sent as {"table","op","id","at"}; clients refetch what they show.  The
// socket closes when its user signs out.
func (h *RealtimeHandler) Stream(c echo.Context) error {
	s, err := h.open(c, ParseTables(c.QueryParam("tables")))
	if err != nil {
		return nil // the upgrader already answered
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
	defer cancel()
	go s.read(cancel)
	s.loop(ctx, func(ev realtime.Event) any {
		return wireEvent{Table: ev.Table, Op: ev.Op, ID: ev.RecordID, At: ev.At}
	}, nil)
	return nil
}

// dashboardCommand changes what a live dashboard shows.
type dashboardCommand struct {
	View   *string `json:"view"`
	Date   *string `json:"date"`
	Search *string `json:"q"`
	Offset int     `json:"offset"`
}

// Dashboard handles GET /v1/admin/dashboard/live?view=&date=.  It sends the
// dashboard state on connect and again after every change.  Clients switch
// view, date or search term by sending a dashboardCommand.
func (h *RealtimeHandler) Dashboard(c echo.Context) error {
	d := h.Admin.newDashboard(c.QueryParam("view"), c.QueryParam("date"))
	s, err := h.open(c, dashboard.Tables)
	if err != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
	defer cancel()
	go s.read(cancel)

	st, _ := d.Refresh(ctx)
	if err := s.write(st); err != nil {
		s.sub.Close()
		s.conn.Close()
		return nil
	}
	s.loop(ctx, func(realtime.Event) any {
		st, _ := d.Refresh(ctx)
		return st
	}, func(msg []byte) any {
		var cmd dashboardCommand
		if err := json.Unmarshal(msg, &cmd); err != nil {
			return echo.Map{"error": "bad_command"}
		}
		if cmd.View != nil {
			_, _ = d.SetView(ctx, dashboard.ParseView(*cmd.View))
		}
		if cmd.Date != nil {
			_, _ = d.SetDate(ctx, *cmd.Date)
		}
		if cmd.Search != nil {
			_, _ = d.SetSearch(ctx, *cmd.Search, cmd.Offset)
		}
		return d.Snapshot()
	})
	return nil
}
