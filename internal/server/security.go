package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// messageLimiter 按连接限制每秒消息数（固定窗口）
type messageLimiter struct {
	limits map[string]*messageWindow
	mu     sync.Mutex

	perSecond int
	warnAt    int // 超过该值时提醒客户端放慢
	now       func() time.Time
}

type messageWindow struct {
	count    int
	start    time.Time
	warnings int
}

func newMessageLimiter(perSecond int) *messageLimiter {
	return &messageLimiter{
		limits:    make(map[string]*messageWindow),
		perSecond: perSecond,
		warnAt:    perSecond / 2,
		now:       time.Now,
	}
}

// allow 记录一条消息，返回是否处理以及是否需要警告
func (ml *messageLimiter) allow(clientID string) (allowed, warning bool) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := ml.now()
	w, ok := ml.limits[clientID]
	if !ok {
		ml.limits[clientID] = &messageWindow{count: 1, start: now}
		return true, false
	}

	if now.Sub(w.start) >= time.Second {
		w.count = 1
		w.start = now
		return true, false
	}

	w.count++
	if w.count > ml.perSecond {
		w.warnings++
		return false, true
	}
	return true, w.count > ml.warnAt
}

// warnings 超速次数
func (ml *messageLimiter) warnings(clientID string) int {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if w, ok := ml.limits[clientID]; ok {
		return w.warnings
	}
	return 0
}

func (ml *messageLimiter) remove(clientID string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.limits, clientID)
}

// clientIP 获取真实客户端 IP，优先使用代理头
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
