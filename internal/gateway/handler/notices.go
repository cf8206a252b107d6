package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"annotator/internal/annotate/session"
	"annotator/internal/gateway/notify"
)

const (
	noticeWSWriteWait = 10 * time.Second
	noticeWSPongWait  = 60 * time.Second
	noticeWSPingEvery = (noticeWSPongWait * 9) / 10
)

var noticeWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type noticeWSInbound struct {
	Type string `json:"type"`
}

type noticeWSOutbound struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId,omitempty"`
	Notice    *notify.Notice `json:"notice,omitempty"`
	Code      string         `json:"code,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// NoticeHandler streams a session's success and error notices over a
// websocket.
type NoticeHandler struct {
	sessions *session.Manager
	hub      *notify.Hub
	log      *zap.Logger
}

func NewNoticeHandler(sessions *session.Manager, hub *notify.Hub, log *zap.Logger) *NoticeHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &NoticeHandler{sessions: sessions, hub: hub, log: log}
}

func (h *NoticeHandler) HandleNoticesWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.PathValue("id"))
	if _, err := h.sessions.Get(sessionID); err != nil {
		writeError(w, h.log, err)
		return
	}

	conn, err := noticeWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(noticeWSPongWait)); err != nil {
		h.log.Warn("notice ws set read deadline failed", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(noticeWSPongWait))
	})

	writeCh := make(chan noticeWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(noticeWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(noticeWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(noticeWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	sub, err := h.hub.Subscribe(ctx, sessionID)
	if err != nil {
		pushNoticeWS(writeCh, noticeWSOutbound{Type: "error", Code: "invalid_argument", Message: err.Error()})
		cancel()
		<-writerDone
		return
	}
	pushNoticeWS(writeCh, noticeWSOutbound{Type: "subscribed", SessionID: sessionID})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-sub:
				if !ok {
					return
				}
				pushNoticeWS(writeCh, noticeWSOutbound{Type: "notice", SessionID: sessionID, Notice: &n})
			}
		}
	}()

	for {
		var in noticeWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushNoticeWS(writeCh, noticeWSOutbound{Type: "pong"})
		default:
			pushNoticeWS(writeCh, noticeWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "unsupported type: " + in.Type,
			})
		}
	}
}

// pushNoticeWS never blocks; when the writer lags the oldest queued message
// is dropped.
func pushNoticeWS(writeCh chan noticeWSOutbound, out noticeWSOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
