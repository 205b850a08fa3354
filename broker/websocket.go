// Copyright (c) 2014 The SurgeMQ Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package broker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const Subprotocol = "mqtt"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	Subprotocols:    []string{Subprotocol},

	// Browser clients connect from arbitrary pages.
	CheckOrigin: func(*http.Request) bool { return true },
}

// websocketConn wraps a websocket.Conn to satisfy the net.Conn and
// io.ReadWriteCloser interfaces
type websocketConn struct {
	buf        *bytes.Buffer
	readMutex  sync.Mutex
	writeMutex sync.Mutex
	*websocket.Conn
}

var _ io.ReadWriteCloser = (*websocketConn)(nil)

func (w *websocketConn) Read(p []byte) (n int, err error) {
	// If the buffer is empty, fill it from the socket
	for w.buf.Len() == 0 {
		w.readMutex.Lock()
		_, msg, err := w.ReadMessage()
		w.readMutex.Unlock()
		if err != nil {
			return 0, err
		}
		w.buf.Write(msg)
	}

	// Read bytes from the buffer
	return w.buf.Read(p)
}

func (w *websocketConn) Write(p []byte) (n int, err error) {
	w.writeMutex.Lock()
	err = w.WriteMessage(websocket.BinaryMessage, p)
	w.writeMutex.Unlock()

	if err != nil {
		return 0, err
	}

	return len(p), nil
}

func (w *websocketConn) SetReadDeadline(t time.Time) (err error) {
	w.readMutex.Lock()
	err = w.Conn.SetReadDeadline(t)
	w.readMutex.Unlock()
	return err
}

func (w *websocketConn) SetWriteDeadline(t time.Time) (err error) {
	w.writeMutex.Lock()
	err = w.Conn.SetWriteDeadline(t)
	w.writeMutex.Unlock()
	return err
}

func (w *websocketConn) SetDeadline(t time.Time) error {
	if err := w.SetReadDeadline(t); err != nil {
		return err
	}
	return w.SetWriteDeadline(t)
}

func newWebsocketConn(ws *websocket.Conn) *websocketConn {
	return &websocketConn{
		buf:  bytes.NewBuffer(nil),
		Conn: ws,
	}
}

// WebsocketHandler upgrades requests to websocket connections speaking the
// mqtt subprotocol and pipes each of them to a new connection to addr.
func WebsocketHandler(network, addr string, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug("Websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
			return
		}

		if err := proxy(newWebsocketConn(ws), network, addr); err != nil {
			log.Debug("Websocket proxy stopped", zap.String("remote", r.RemoteAddr), zap.Error(err))
		}
	})
}

func proxy(ws *websocketConn, network, addr string) error {
	defer ws.Close()

	conn, err := net.Dial(network, addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan error, 2)

	go func() {
		_, err := io.Copy(conn, ws)
		done <- err
	}()

	go func() {
		_, err := io.Copy(ws, conn)
		done <- err
	}()

	// Whichever side finishes first closes both.
	return <-done
}

// ServeWebsocket serves h under path on addr until ctx is cancelled.
func ServeWebsocket(ctx context.Context, addr, path string, h http.Handler, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(path, h)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		srv.Shutdown(sctx)
	}()

	log.Info("Serving websocket", zap.String("addr", addr), zap.String("path", path))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
