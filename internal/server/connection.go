package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/palemoky/trivia-party/internal/protocol"
	"github.com/palemoky/trivia-party/internal/protocol/codec"
	"github.com/palemoky/trivia-party/internal/types"
)

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ip := clientIP(r)

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		slog.Info("maintenance mode, connection refused", "ip", ip)
		http.Error(w, "Server is under maintenance, please try again later", http.StatusServiceUnavailable)
		return
	}

	// 连接数限制，连接关闭时释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		slog.Warn("connection limit reached", "max", s.maxConnections, "ip", ip)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		<-s.semaphore
		slog.Warn("websocket upgrade failed", "ip", ip, "error", err)
		return
	}

	client := NewClient(s, conn)
	client.IP = ip
	s.registerClient(client)

	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID: client.ID,
	}))

	go client.ReadPump()
	go client.WritePump()
}

type healthStatus struct {
	Status      string `json:"status"`
	Online      int    `json:"online"`
	Rooms       int    `json:"rooms"`
	ActiveGames int    `json:"active_games"`
	Maintenance bool   `json:"maintenance"`
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthStatus{
		Status:      "ok",
		Online:      s.GetOnlineCount(),
		Rooms:       s.roomManager.Count(),
		ActiveGames: s.roomManager.ActiveGames(),
		Maintenance: s.IsMaintenanceMode(),
	})
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	s.metrics.ConnectedClients.Inc()
	slog.Info("client connected", "client", client.ID, "ip", client.IP)
}

// unregisterClient 注销客户端并释放连接名额
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	_, ok := s.clients[client.ID]
	if ok {
		delete(s.clients, client.ID)
		<-s.semaphore
	}
	s.clientsMu.Unlock()

	if ok {
		s.metrics.ConnectedClients.Dec()
		slog.Info("client disconnected", "client", client.ID)
	}
}

var (
	_ types.ServerInterface = (*Server)(nil)
	_ types.ClientInterface = (*Client)(nil)
)
