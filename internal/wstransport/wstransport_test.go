package wstransport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestConn_RoundTrip(t *testing.T) {
	upgrader := NewUpgrader()

	serverDone := make(chan struct{})
	var serverErr error
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Accept(w, r)
		if err != nil {
			serverErr = err
			close(serverDone)
			return
		}
		defer conn.Close()

		msg, err := conn.ReadMessage()
		if err != nil {
			serverErr = err
			close(serverDone)
			return
		}
		if err := conn.WriteMessage(append([]byte("echo:"), msg...)); err != nil {
			serverErr = err
		}
		close(serverDone)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if err := client.WriteMessage([]byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	reply, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if string(reply) != "echo:hello" {
		t.Fatalf("unexpected reply: %q", reply)
	}

	<-serverDone
	if serverErr != nil {
		t.Fatalf("server error: %v", serverErr)
	}
}

func TestConn_RejectsBinaryFrames(t *testing.T) {
	upgrader := NewUpgrader()

	readErrCh := make(chan error, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Accept(w, r)
		if err != nil {
			readErrCh <- err
			return
		}
		defer conn.Close()
		_, err = conn.ReadMessage()
		readErrCh <- err
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	const binaryMessage = 2
	if err := client.ws.WriteMessage(binaryMessage, []byte{0x01}); err != nil {
		t.Fatalf("write binary frame: %v", err)
	}

	select {
	case err := <-readErrCh:
		if err == nil {
			t.Fatal("expected ReadMessage to reject a binary frame")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server read")
	}
}
