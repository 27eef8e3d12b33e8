// Fluid simulation server: runs the engine headless and streams rendered
// frames to browsers over WebSocket. Clients inject splats by sending JSON
// messages; the bundled page maps pointer drags onto them.
//
// Usage: go run ./cmd/fluidserve [-addr :8080] [-gpu]
package main

import (
	_ "embed"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gogpu/fluid"
	gpu "github.com/gogpu/fluid/backend/wgpu"
)

//go:embed index.html
var indexHTML []byte

// splatRequest is the client -> server injection message.
type splatRequest struct {
	X     float32    `json:"x"`
	Y     float32    `json:"y"`
	DX    float32    `json:"dx"`
	DY    float32    `json:"dy"`
	Color [3]float32 `json:"color"`
}

// frameHeader precedes each binary frame so clients can size their canvas.
type frameHeader struct {
	Type   string  `json:"type"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Frame  uint64  `json:"frame"`
	Dye    float64 `json:"totalDye"`
}

type server struct {
	engine *fluid.Engine
	force  float32

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex

	upgrader websocket.Upgrader
}

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	width := flag.Int("width", 800, "Streamed frame width")
	height := flag.Int("height", 600, "Streamed frame height")
	fps := flag.Int("fps", 30, "Frames broadcast per second")
	useGPU := flag.Bool("gpu", false, "Use the WebGPU compute backend")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	fluid.SetLogger(logger)

	interval, err := frameInterval(*fps)
	if err != nil {
		slog.Error("invalid -fps flag", "error", err)
		os.Exit(1)
	}

	cfg := fluid.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = fluid.LoadConfig(*configPath)
		if err != nil {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	var opts []fluid.Option
	if *useGPU {
		backend, err := gpu.NewBackend(gpu.BackendConfig{})
		if err != nil {
			slog.Warn("GPU backend unavailable, falling back to software", "error", err)
		} else {
			opts = append(opts, fluid.WithBackend(backend))
		}
	}

	engine, err := fluid.New(cfg, *width, *height, opts...)
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	s := &server{
		engine:  engine,
		force:   cfg.SplatForce,
		clients: make(map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			// The page is served from the same process; cross-origin
			// embedding is fine for a visualization stream.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	go s.simulationLoop(interval)

	http.HandleFunc("/", s.serveHome)
	http.HandleFunc("/ws", s.handleWebSocket)

	slog.Info("server listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func (s *server) serveHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connMutex := &sync.Mutex{}
	s.mu.Lock()
	s.clients[conn] = connMutex
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	slog.Info("client connected", "remote", conn.RemoteAddr().String())

	for {
		var req splatRequest
		if err := conn.ReadJSON(&req); err != nil {
			slog.Info("client disconnected", "remote", conn.RemoteAddr().String())
			return
		}

		err := s.engine.Splat(fluid.Splat{
			X: req.X, Y: req.Y,
			DX: req.DX * s.force,
			DY: req.DY * s.force,
			Color: fluid.RGB{
				R: req.Color[0],
				G: req.Color[1],
				B: req.Color[2],
			},
		})
		if err != nil {
			slog.Error("splat failed", "error", err)
			return
		}
	}
}

// frameInterval converts a broadcast rate in frames per second to a ticker
// period. Rates below one frame per second are rejected rather than rounded.
func frameInterval(fps int) (time.Duration, error) {
	if fps <= 0 {
		return 0, fmt.Errorf("fps must be positive, got %d", fps)
	}
	return time.Second / time.Duration(fps), nil
}

// simulationLoop advances the engine and broadcasts a frame per tick.
func (s *server) simulationLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	frame := s.engine.Output()
	for range ticker.C {
		if err := s.engine.Update(); err != nil {
			slog.Error("step failed", "error", err)
			return
		}
		if err := s.engine.RenderTo(frame); err != nil {
			slog.Error("render failed", "error", err)
			return
		}
		s.broadcast(frame)
	}
}

// broadcast sends a JSON header followed by the raw RGBA frame to every
// client, dropping clients whose connection failed.
func (s *server) broadcast(frame *fluid.Pixmap) {
	stats, err := s.engine.Stats()
	if err != nil {
		return
	}
	header := frameHeader{
		Type:   "frame",
		Width:  frame.Width(),
		Height: frame.Height(),
		Frame:  stats.Frame,
		Dye:    stats.TotalDye,
	}

	var failed []*websocket.Conn
	s.mu.RLock()
	for conn, mutex := range s.clients {
		mutex.Lock()
		err := conn.WriteJSON(header)
		if err == nil {
			err = conn.WriteMessage(websocket.BinaryMessage, frame.Data())
		}
		mutex.Unlock()
		if err != nil {
			slog.Warn("dropping client", "remote", conn.RemoteAddr().String(), "error", err)
			conn.Close()
			failed = append(failed, conn)
		}
	}
	s.mu.RUnlock()

	if len(failed) > 0 {
		s.mu.Lock()
		for _, conn := range failed {
			delete(s.clients, conn)
		}
		s.mu.Unlock()
	}
}
