// Package realtime 通过 WebSocket 向所有在线客户端广播点赞变化
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
)

// EventLikeUpdate 点赞集合发生变化
const EventLikeUpdate = "like_update"

// Event 推送给客户端的消息帧
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data"`
}

// LikeUpdate like_update 事件的数据
type LikeUpdate struct {
	PhotoID string   `json:"photo_id"`
	Likes   []string `json:"likes"`
}

// Hub 维护在线客户端并按入队顺序广播
// 所有客户端集合的修改都在 Run 协程内完成
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	sendBuffer int
	count      atomic.Int64
	dropped    atomic.Int64
	stopOnce   sync.Once
}

// NewHub 创建广播中心
// queueSize 为待广播队列长度，sendBuffer 为每个客户端的发送缓冲
func NewHub(queueSize, sendBuffer int) *Hub {
	if queueSize <= 0 {
		queueSize = 256
	}
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, queueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		sendBuffer: sendBuffer,
	}
}

// Run 处理注册、注销与广播，ctx 取消后断开全部客户端
func (h *Hub) Run(ctx context.Context) {
	defer h.stopOnce.Do(func() {
		for client := range h.clients {
			h.remove(client)
		}
		close(h.done)
		log.Println("[Hub] Stopped")
	})

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.count.Store(int64(len(h.clients)))

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// 发送缓冲已满的慢客户端直接断开，它会在重连后重新拉取完整状态
					log.Printf("[Hub] Client send buffer full, disconnecting")
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.count.Store(int64(len(h.clients)))
}

// Publish 非阻塞地将事件放入广播队列，队列已满时丢弃并返回 false
func (h *Hub) Publish(name string, data interface{}) bool {
	payload, err := json.Marshal(Event{Name: name, Data: data})
	if err != nil {
		log.Printf("[Hub] Failed to marshal %s event: %v", name, err)
		return false
	}

	select {
	case h.broadcast <- payload:
		return true
	default:
		h.dropped.Add(1)
		log.Printf("[Hub] Broadcast queue full, dropping %s event", name)
		return false
	}
}

// PublishLikeUpdate 广播照片最新的点赞集合
func (h *Hub) PublishLikeUpdate(photoID string, likes []string) {
	if likes == nil {
		likes = []string{}
	}
	h.Publish(EventLikeUpdate, LikeUpdate{PhotoID: photoID, Likes: likes})
}

// ClientCount 当前在线客户端数
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Dropped 因队列已满而丢弃的事件数
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// attach 注册客户端，Hub 已停止时返回 false
func (h *Hub) attach(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// detach 注销客户端，Hub 已停止时直接返回
func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
