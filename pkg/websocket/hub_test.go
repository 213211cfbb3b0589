package websocket

import (
	"testing"
	"time"
)

// 欢迎消息发不出去的客户端在注册时即被清理，
// 清理与并发的统计读取不应相互干扰
func TestRegisterDropsClientWithFullBuffer(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := NewClient(hub, nil, "full-buffer-client")
	for i := 0; i < cap(client.send); i++ {
		client.send <- []byte("x")
	}

	// 注册期间并发读取统计信息
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			hub.GetStats()
		}
	}()

	hub.register <- client
	<-done

	deadline := time.After(time.Second)
	for {
		stats := hub.GetStats()
		if stats["connectedClients"].(int) == 0 && client.isClosed() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("缓冲区已满的客户端应在注册时被清理")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := NewClient(hub, nil, "normal-client")
	hub.register <- client

	deadline := time.After(time.Second)
	for hub.GetStats()["connectedClients"].(int) != 1 {
		select {
		case <-deadline:
			t.Fatal("客户端注册失败")
		case <-time.After(10 * time.Millisecond):
		}
	}

	hub.unregister <- client

	deadline = time.After(time.Second)
	for hub.GetStats()["connectedClients"].(int) != 0 {
		select {
		case <-deadline:
			t.Fatal("客户端注销失败")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if !client.isClosed() {
		t.Error("注销后客户端应关闭")
	}
}
