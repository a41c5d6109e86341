package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"codenote/internal/gateway/service/githubpublish"
	"codenote/internal/publish"
)

// PublishService is satisfied by *githubpublish.Service.
type PublishService interface {
	Publish(ctx context.Context, in githubpublish.Input, token string, observe publish.Observer) (publish.Result, error)
}

type PublishHandler struct {
	svc        PublishService
	logger     *zap.Logger
	maxMessage int64
}

func NewPublishHandler(svc PublishService, logger *zap.Logger) *PublishHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishHandler{svc: svc, logger: logger, maxMessage: defaultPublishWSMaxMessage}
}

// WithMaxMessageBytes caps the inbound WebSocket publish message. The upgrade
// bypasses the HTTP body limit, so the cap is enforced on the connection.
func (h *PublishHandler) WithMaxMessageBytes(n int64) *PublishHandler {
	if n > 0 {
		h.maxMessage = n
	}
	return h
}

// HandlePublish serves POST /api/github/publish.
func (h *PublishHandler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in githubpublish.Input
	if status, err := decodeBody(r, &in); err != nil {
		writeJSON(w, status, map[string]any{"error": "invalid json body"})
		return
	}
	res, err := h.svc.Publish(r.Context(), in, bearerToken(r), nil)
	if err != nil {
		status, body := publishFailure(res, err)
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, publishSuccess(res))
}

const (
	publishWSWriteWait         = 10 * time.Second
	publishWSReadWait          = 30 * time.Second
	defaultPublishWSMaxMessage = 1 << 20
)

var publishWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type publishWSInbound struct {
	githubpublish.Input
	Token string `json:"token,omitempty"`
}

type publishWSOutbound struct {
	Type    string          `json:"type"`
	State   publish.State   `json:"state,omitempty"`
	OK      bool            `json:"ok,omitempty"`
	Outcome publish.Outcome `json:"outcome,omitempty"`
	SHA     string          `json:"sha,omitempty"`
	Status  int             `json:"status,omitempty"`
	Error   string          `json:"error,omitempty"`
	Details string          `json:"details,omitempty"`
}

// HandlePublishWS serves GET /api/github/publish/ws. The client sends one
// publish message; the server streams state events, then one outcome event,
// then closes.
func (h *PublishHandler) HandlePublishWS(w http.ResponseWriter, r *http.Request) {
	conn, err := publishWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(h.maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(publishWSReadWait))
	var in publishWSInbound
	if err := conn.ReadJSON(&in); err != nil {
		if errors.Is(err, websocket.ErrReadLimit) {
			// the connection already sent close 1009
			h.logger.Warn("publish message too large", zap.Int64("limit", h.maxMessage))
			return
		}
		writeWS(conn, publishWSOutbound{Type: "outcome", Status: http.StatusBadRequest, Error: "invalid publish message"})
		return
	}
	token := strings.TrimSpace(in.Token)
	if token == "" {
		token = bearerToken(r)
	}

	// the publisher runs on this goroutine, so the observer writes directly
	observe := func(s publish.State) {
		writeWS(conn, publishWSOutbound{Type: "state", State: s})
	}
	res, err := h.svc.Publish(r.Context(), in.Input, token, observe)
	if err != nil {
		status, body := publishFailure(res, err)
		out := publishWSOutbound{Type: "outcome", Outcome: res.Outcome, Status: status}
		out.Error, _ = body["error"].(string)
		out.Details, _ = body["details"].(string)
		writeWS(conn, out)
	} else {
		writeWS(conn, publishWSOutbound{Type: "outcome", OK: true, Outcome: res.Outcome, SHA: res.SHA, Status: http.StatusOK})
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(publishWSWriteWait))
}

func writeWS(conn *websocket.Conn, msg publishWSOutbound) {
	_ = conn.SetWriteDeadline(time.Now().Add(publishWSWriteWait))
	_ = conn.WriteJSON(msg)
}
