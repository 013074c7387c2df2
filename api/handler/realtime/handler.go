package realtime

import (
	"log"
	"net/http"
	"net/url"

	"github.com/anoixa/photo-share/internal/realtime"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Handler WebSocket 接入
type Handler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewHandler 创建 WebSocket 处理器，只接受来自 allowedOrigins 的浏览器连接
func NewHandler(hub *realtime.Hub, allowedOrigins []string) *Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(r, allowed)
			},
		},
	}
}

// originAllowed 无 Origin 头（非浏览器）或同源时放行
func originAllowed(r *http.Request, allowed map[string]struct{}) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := allowed[origin]; ok {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// ServeWS GET /ws
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[Hub] WebSocket upgrade failed: %v", err)
		return
	}
	h.hub.Serve(conn)
}
