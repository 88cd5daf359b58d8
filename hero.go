package main

import (
	"context"
	"errors"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/miki-714/portfolio/internal/typewriter"
)

const (
	// Time allowed to write a frame to the peer.
	heroWriteWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	heroPongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than heroPongWait.
	heroPingPeriod = (heroPongWait * 9) / 10
	// The hero socket expects nothing from the peer but control frames.
	heroMaxMessageSize = 512
)

var errStreamClosed = errors.New("hero stream closed")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (s *server) newCycler() (*typewriter.Cycler, error) {
	return typewriter.New(s.site.Hero.Roles, typewriter.Options{
		Timing: s.cfg.Timing(),
		Cursor: s.cfg.Cursor,
	})
}

// runHero owns one typewriter for the lifetime of a single stream. The
// session is recorded so the dashboard can count live heroes.
func (s *server) runHero(ctx context.Context, transport string, emit func(typewriter.Frame) error) error {
	s.streams.Add(1)
	defer s.streams.Done()

	cyc, err := s.newCycler()
	if err != nil {
		return err
	}

	id := uuid.NewString()
	recorded := true
	if err := s.store.StartHeroSession(ctx, id, transport, time.Now()); err != nil {
		log.Printf("Error recording hero session: %v", err)
		recorded = false
	}

	err = cyc.Run(ctx, emit)

	if recorded {
		endCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.EndHeroSession(endCtx, id, time.Now(), cyc.Ticks()); err != nil {
			log.Printf("Error closing hero session %s: %v", id, err)
		}
	}
	return err
}

// streamEnded reports whether err is the normal way a stream finishes.
func streamEnded(err error) bool {
	return err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, errStreamClosed)
}

func (s *server) heroFragment(c *gin.Context) {
	c.HTML(http.StatusOK, "hero", s.pageData(c, "Home", nil))
}

// heroStream pushes every frame as a Server-Sent Event named "role" whose
// data is the HTML-escaped display text.
func (s *server) heroStream(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	err := s.runHero(c.Request.Context(), "sse", func(f typewriter.Frame) error {
		c.SSEvent("role", template.HTMLEscapeString(f.Text))
		if c.IsAborted() {
			return errStreamClosed
		}
		c.Writer.Flush()
		return nil
	})
	switch {
	case errors.Is(err, typewriter.ErrInvalidConfiguration):
		log.Printf("Hero stream misconfigured: %v", err)
		c.String(http.StatusInternalServerError, "hero unavailable")
	case !streamEnded(err):
		log.Printf("Hero stream error: %v", err)
	}
}

// heroSocket sends every frame as a JSON message over a WebSocket.
func (s *server) heroSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Hero socket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Hijacked connections don't cancel the request context; the read
	// loop notices the peer leaving instead.
	conn.SetReadLimit(heroMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(heroPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(heroPongWait))
		return nil
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("Hero socket read error: %v", err)
				}
				return
			}
		}
	}()

	lastPing := time.Now()
	err = s.runHero(ctx, "websocket", func(f typewriter.Frame) error {
		conn.SetWriteDeadline(time.Now().Add(heroWriteWait))
		if time.Since(lastPing) >= heroPingPeriod {
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
			lastPing = time.Now()
		}
		return conn.WriteJSON(f)
	})

	code, reason := websocket.CloseNormalClosure, ""
	switch {
	case errors.Is(err, typewriter.ErrInvalidConfiguration):
		log.Printf("Hero socket misconfigured: %v", err)
		code, reason = websocket.CloseInternalServerErr, "hero unavailable"
	case !streamEnded(err) && !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure):
		log.Printf("Hero socket error: %v", err)
	}
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}
