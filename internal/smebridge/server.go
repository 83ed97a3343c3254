// Package smebridge carries MLME messages between the access point and an
// external station management entity (SME) over WebSocket.
package smebridge

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/tomiamao/apmlme/mlme"
	"go.uber.org/zap"
)

// ErrNoSession is returned by Send when no SME is connected.
var ErrNoSession = errors.New("smebridge: no SME session")

// Message directions reported to an Observer.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

const (
	sendQueueLen = 256
	writeTimeout = 5 * time.Second
)

// An Observer counts relayed messages.
type Observer interface {
	MessageRelayed(direction, method string)
}

// A DeliverFunc hands a message from the SME to the MLME.
type DeliverFunc func(ctx context.Context, m mlme.Message) error

// A Server accepts authenticated SME sessions. Messages from any session
// are delivered to the MLME; messages from the MLME go to every session.
type Server struct {
	secret  []byte
	deliver DeliverFunc
	log     *zap.Logger
	obs     Observer
	txid    atomic.Uint64

	mu       sync.RWMutex
	sessions map[*session]struct{}
}

type session struct {
	id      string
	subject string
	conn    *websocket.Conn
	send    chan []byte
}

// An Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used by the Server.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithObserver reports every relayed message to obs.
func WithObserver(obs Observer) Option {
	return func(s *Server) { s.obs = obs }
}

// NewServer creates a Server that authenticates sessions with tokens signed
// by secret and passes their messages to deliver.
func NewServer(secret []byte, deliver DeliverFunc, opts ...Option) *Server {
	s := &Server{
		secret:   secret,
		deliver:  deliver,
		log:      zap.NewNop(),
		sessions: make(map[*session]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RegisterRoutes registers the SME endpoint on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /v1/sme", s)
}

// ServeHTTP upgrades an authenticated request to an SME session and serves
// it until either side closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, err := ValidateToken(s.secret, bearerToken(r))
	if err != nil {
		s.log.Debug("rejected SME session", zap.Error(err))
		http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
		return
	}

	// The token authenticates the peer, so any origin is accepted.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.Error("websocket accept failed", zap.Error(err))
		return
	}

	sess := &session{
		id:      uuid.NewString(),
		subject: claims.Subject,
		conn:    conn,
		send:    make(chan []byte, sendQueueLen),
	}
	s.register(sess)

	ctx, cancel := context.WithCancel(r.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writePump(ctx, sess)
	}()

	// readPump blocks until the SME disconnects.
	s.readPump(ctx, sess)

	s.unregister(sess)
	cancel()
	<-done
	conn.Close(websocket.StatusNormalClosure, "")
}

// Send relays m to every connected SME. Sessions that cannot keep up drop
// the message.
func (s *Server) Send(m mlme.Message) error {
	b, err := mlme.Marshal(s.txid.Add(1), m)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.sessions) == 0 {
		return ErrNoSession
	}
	for sess := range s.sessions {
		select {
		case sess.send <- b:
		default:
			s.log.Warn("SME send buffer full, dropping message",
				zap.String("session", sess.id),
				zap.String("method", string(m.Method())))
		}
	}
	s.observe(DirectionOut, m)
	return nil
}

// SessionCount returns the number of connected SMEs.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) register(sess *session) {
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()
	s.log.Info("SME connected", zap.String("session", sess.id), zap.String("subject", sess.subject))
}

func (s *Server) unregister(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
	s.log.Info("SME disconnected", zap.String("session", sess.id))
}

func (s *Server) readPump(ctx context.Context, sess *session) {
	for {
		typ, b, err := sess.conn.Read(ctx)
		if err != nil {
			s.log.Debug("websocket read ended", zap.String("session", sess.id), zap.Error(err))
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		txid, m, err := mlme.Unmarshal(b)
		if err != nil {
			s.log.Debug("dropping malformed SME message", zap.String("session", sess.id), zap.Error(err))
			continue
		}
		s.observe(DirectionIn, m)
		s.log.Debug("SME message",
			zap.String("session", sess.id),
			zap.String("method", string(m.Method())),
			zap.Uint64("txid", txid))

		if err := s.deliver(ctx, m); err != nil {
			s.log.Warn("failed to deliver SME message", zap.String("session", sess.id), zap.Error(err))
			return
		}
	}
}

func (s *Server) writePump(ctx context.Context, sess *session) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-sess.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := sess.conn.Write(writeCtx, websocket.MessageText, b)
			cancel()
			if err != nil {
				s.log.Debug("websocket write error", zap.String("session", sess.id), zap.Error(err))
				return
			}
		}
	}
}

func (s *Server) observe(direction string, m mlme.Message) {
	if s.obs != nil {
		s.obs.MessageRelayed(direction, string(m.Method()))
	}
}

// bearerToken returns the token from the Authorization header, or from the
// token query parameter for clients that cannot set headers.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if ok {
			return token
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
