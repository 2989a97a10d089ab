package service

import (
	"context"
	"course_studio_backend/internal/util"
	"course_studio_backend/pkg/logger"
	"course_studio_backend/pkg/monitoring"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	voiceWriteWait      = 10 * time.Second
	voicePongWait       = 60 * time.Second
	voicePingPeriod     = (voicePongWait * 9) / 10
	voiceMaxMessageSize = 16 << 10
	voiceSendBuffer     = 8
)

var voiceUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// VoiceResult 把一次语音问答的结果映射为状态码和响应体，HTTP 与 websocket 共用
func VoiceResult(resp *VoiceResponse, err error) (int, interface{}) {
	switch {
	case err == nil:
		return http.StatusOK, resp
	case errors.Is(err, util.ErrAIUnconfigured):
		return http.StatusBadRequest, util.FunctionErrorBody{Error: err.Error(), Response: VoiceUnconfiguredReply}
	case errors.Is(err, util.ErrInvalidRequest):
		return http.StatusBadRequest, util.FunctionErrorBody{Error: err.Error()}
	case errors.Is(err, util.ErrRateLimited):
		return http.StatusTooManyRequests, util.FunctionErrorBody{Error: err.Error()}
	default:
		return http.StatusInternalServerError, util.FunctionErrorBody{Error: err.Error(), Response: VoiceErrorReply}
	}
}

// VoiceSession 一个学生的 websocket 语音辅导连接
type VoiceSession struct {
	Service *VoiceService
	Conn    *websocket.Conn
	Caller  string
	Send    chan []byte
	Limiter *rate.Limiter
	// done 在写协程退出时关闭
	done chan struct{}
}

// ServeVoiceWs 升级连接后阻塞读取，直到连接关闭或 ctx 结束
func ServeVoiceWs(ctx context.Context, svc *VoiceService, w http.ResponseWriter, r *http.Request, caller string) {
	conn, err := voiceUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warn("Voice websocket upgrade failed", zap.Error(err))
		return
	}

	session := &VoiceSession{
		Service: svc,
		Conn:    conn,
		Caller:  caller,
		Send:    make(chan []byte, voiceSendBuffer),
		// 每秒 1 条，允许突发 3 条
		Limiter: rate.NewLimiter(rate.Limit(1), 3),
		done:    make(chan struct{}),
	}

	logger.Log.Info("Voice session opened", zap.String("caller", caller))
	go session.writePump()
	session.readPump(ctx)
	logger.Log.Info("Voice session closed", zap.String("caller", caller))
}

func (s *VoiceSession) readPump(ctx context.Context) {
	defer func() {
		close(s.Send)
	}()
	s.Conn.SetReadLimit(voiceMaxMessageSize)
	s.Conn.SetReadDeadline(time.Now().Add(voicePongWait))
	s.Conn.SetPongHandler(func(string) error { s.Conn.SetReadDeadline(time.Now().Add(voicePongWait)); return nil })

	for {
		_, message, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Warn("Voice websocket unexpected close", zap.Error(err), zap.String("caller", s.Caller))
			}
			return
		}
		monitoring.VoiceFrameCounter.WithLabelValues("in").Inc()

		var payload interface{}
		if !s.Limiter.Allow() {
			_, payload = VoiceResult(nil, util.ErrRateLimited)
		} else {
			payload = s.handle(ctx, message)
		}

		data, err := json.Marshal(payload)
		if err != nil {
			logger.Log.Error("Voice frame encode failed", zap.Error(err))
			continue
		}

		select {
		case s.Send <- data:
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *VoiceSession) handle(ctx context.Context, message []byte) interface{} {
	var req VoiceRequest
	if err := json.Unmarshal(message, &req); err != nil {
		_, body := VoiceResult(nil, util.ErrInvalidRequest)
		return body
	}
	resp, err := s.Service.Respond(ctx, s.Caller, &req)
	if err != nil && !errors.Is(err, util.ErrAIUnconfigured) && !errors.Is(err, util.ErrInvalidRequest) && !errors.Is(err, util.ErrRateLimited) {
		logger.Log.Error("Voice assistant error", zap.String("caller", s.Caller), zap.Error(err))
	}
	_, body := VoiceResult(resp, err)
	return body
}

func (s *VoiceSession) writePump() {
	ticker := time.NewTicker(voicePingPeriod)
	defer func() {
		ticker.Stop()
		s.Conn.Close()
		close(s.done)
	}()
	for {
		select {
		case message, ok := <-s.Send:
			s.Conn.SetWriteDeadline(time.Now().Add(voiceWriteWait))
			if !ok {
				s.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
			monitoring.VoiceFrameCounter.WithLabelValues("out").Inc()
		case <-ticker.C:
			s.Conn.SetWriteDeadline(time.Now().Add(voiceWriteWait))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
