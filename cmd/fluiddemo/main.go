// Interactive fluid playground. Drag with the left mouse button to stir dye
// into the field; the panel on the right tunes the solver.
//
// Usage: go run ./cmd/fluiddemo [-gpu] [-config config.yaml]
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/gogpu/fluid"
	gpu "github.com/gogpu/fluid/backend/wgpu"
	"github.com/gogpu/fluid/telemetry"
)

const panelWidth = 280

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	width := flag.Int("width", 1180, "Window width")
	height := flag.Int("height", 720, "Window height")
	useGPU := flag.Bool("gpu", false, "Use the WebGPU compute backend")
	headless := flag.Bool("headless", false, "Run without graphics")
	maxFrames := flag.Int("max-frames", 600, "Headless mode: stop after N frames")
	screenshot := flag.String("screenshot", "", "Headless mode: PNG path for the final frame")
	outputDir := flag.String("output-dir", "", "Output directory for CSV frame stats")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	fluid.SetLogger(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	collector, err := telemetry.NewCollector(*outputDir)
	if err != nil {
		slog.Error("failed to open output directory", "error", err)
		os.Exit(1)
	}
	defer collector.Close()

	if *headless {
		runHeadless(cfg, *useGPU, *maxFrames, *screenshot, collector)
		return
	}
	runWindow(cfg, *useGPU, *width, *height, collector)
}

func loadConfig(path string) (fluid.Config, error) {
	if path == "" {
		return fluid.DefaultConfig(), nil
	}
	return fluid.LoadConfig(path)
}

// newEngine builds an engine for the view size, preferring the GPU backend
// when requested and falling back to software if no adapter is usable.
func newEngine(cfg fluid.Config, w, h int, useGPU bool) (*fluid.Engine, error) {
	var opts []fluid.Option
	if useGPU {
		backend, err := gpu.NewBackend(gpu.BackendConfig{})
		if err != nil {
			slog.Warn("GPU backend unavailable, falling back to software", "error", err)
		} else {
			slog.Info("using GPU backend", "adapter", backend.Info().String())
			opts = append(opts, fluid.WithBackend(backend))
		}
	}
	return fluid.New(cfg, w, h, opts...)
}

// runHeadless steps the simulation at a fixed 60 Hz with a scripted stirring
// pattern. Useful for profiling and for CSV telemetry runs.
func runHeadless(cfg fluid.Config, useGPU bool, maxFrames int, screenshot string, collector *telemetry.Collector) {
	engine, err := newEngine(cfg, 900, 600, useGPU)
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	slog.Info("starting headless run", "max_frames", maxFrames)

	for i := 0; i < maxFrames; i++ {
		splats := 0
		if i%4 == 0 {
			s := scriptedSplat(float32(i) / 60.0)
			if err := engine.Splat(s); err != nil {
				slog.Error("splat failed", "error", err)
				os.Exit(1)
			}
			splats = 1
		}

		start := time.Now()
		if err := engine.Step(1.0 / 60.0); err != nil {
			slog.Error("step failed", "error", err)
			os.Exit(1)
		}
		recordFrame(engine, collector, 1.0/60.0, splats, time.Since(start))
	}

	if screenshot != "" {
		frame := engine.Output()
		if err := engine.RenderTo(frame); err != nil {
			slog.Error("render failed", "error", err)
			os.Exit(1)
		}
		if err := frame.SavePNG(screenshot); err != nil {
			slog.Error("failed to save screenshot", "error", err)
			os.Exit(1)
		}
		slog.Info("saved screenshot", "path", screenshot)
	}
}

// scriptedSplat traces a slow circle around the center, cycling hue with time.
func scriptedSplat(t float32) fluid.Splat {
	angle := float64(t) * 0.8
	x := 0.5 + 0.3*float32(math.Cos(angle))
	y := 0.5 + 0.3*float32(math.Sin(angle))
	return fluid.Splat{
		X: x, Y: y,
		DX:    -float32(math.Sin(angle)) * 10,
		DY:    float32(math.Cos(angle)) * 10,
		Color: hueColor(t * 0.3),
	}
}

func runWindow(cfg fluid.Config, useGPU bool, width, height int, collector *telemetry.Collector) {
	viewW := width - panelWidth
	viewH := height

	rl.InitWindow(int32(width), int32(height), "Fluid Playground")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	engine, err := newEngine(cfg, viewW, viewH, useGPU)
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}
	// The engine is replaced when solver settings change; close whichever
	// instance is live at exit.
	defer func() { engine.Close() }()

	img := rl.GenImageColor(viewW, viewH, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)
	rl.SetTextureFilter(texture, rl.FilterBilinear)

	pixels := make([]color.RGBA, viewW*viewH)

	// Panel state. Solver parameters need an engine rebuild; splat
	// parameters apply per request.
	tune := cfg
	splatRadius := cfg.SplatRadius
	prevMouse := rl.GetMousePosition()
	var hue float32

	// Stats force a field readback on the GPU backend, so the HUD refreshes
	// them at a low rate instead of every frame.
	var hudStats fluid.Stats

	for !rl.WindowShouldClose() {
		mouse := rl.GetMousePosition()
		splats := 0

		if rl.IsMouseButtonDown(rl.MouseLeftButton) && mouse.X < float32(viewW) {
			dx := (mouse.X - prevMouse.X) / float32(viewW)
			dy := (mouse.Y - prevMouse.Y) / float32(viewH)
			hue += 0.01

			err := engine.Splat(fluid.Splat{
				X: mouse.X / float32(viewW),
				Y: mouse.Y / float32(viewH),
				// Pointer y grows downward, the field's y grows upward.
				DX:     dx * tune.SplatForce,
				DY:     -dy * tune.SplatForce,
				Color:  hueColor(hue),
				Radius: splatRadius,
			})
			if err != nil {
				slog.Error("splat failed", "error", err)
				break
			}
			splats = 1
		}
		prevMouse = mouse

		start := time.Now()
		if err := engine.Update(); err != nil {
			slog.Error("step failed", "error", err)
			break
		}
		stepTime := time.Since(start)
		recordFrame(engine, collector, float64(rl.GetFrameTime()), splats, stepTime)

		frame := engine.Output()
		if err := engine.RenderTo(frame); err != nil {
			slog.Error("render failed", "error", err)
			break
		}
		uploadFrame(texture, frame, pixels)

		if engine.Frame()%30 == 0 {
			if s, err := engine.Stats(); err == nil {
				hudStats = s
			}
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		rl.DrawTexture(texture, 0, 0, rl.White)

		restart := drawPanel(viewW, &tune, &splatRadius, hudStats, stepTime)
		rl.EndDrawing()

		if restart {
			engine.Close()
			engine, err = newEngine(tune, viewW, viewH, useGPU)
			if err != nil {
				slog.Error("failed to restart engine", "error", err)
				return
			}
		}
	}
}

// uploadFrame converts the pixmap into raylib's pixel layout and uploads it.
func uploadFrame(texture rl.Texture2D, frame *fluid.Pixmap, pixels []color.RGBA) {
	data := frame.Data()
	for i := range pixels {
		pixels[i] = color.RGBA{
			R: data[i*4+0],
			G: data[i*4+1],
			B: data[i*4+2],
			A: 255,
		}
	}
	rl.UpdateTexture(texture, pixels)
}

// drawPanel renders the tuning sliders and returns true when the solver
// parameters changed and the engine should be rebuilt.
func drawPanel(panelX int, tune *fluid.Config, splatRadius *float32, stats fluid.Stats, stepTime time.Duration) bool {
	x := float32(panelX + 15)
	y := float32(15)
	w := float32(panelWidth - 95)

	rl.DrawRectangle(int32(panelX), 0, panelWidth, int32(rl.GetScreenHeight()), rl.NewColor(24, 24, 28, 255))
	rl.DrawText("Fluid Playground", int32(x), int32(y), 20, rl.RayWhite)
	y += 40

	slider := func(label string, value, min, max float32) float32 {
		rl.DrawText(label, int32(x), int32(y), 14, rl.LightGray)
		y += 18
		v := gui.SliderBar(
			rl.Rectangle{X: x, Y: y, Width: w, Height: 20},
			"", fmt.Sprintf("%.3f", value),
			value, min, max,
		)
		y += 32
		return v
	}

	curl := slider("Vorticity strength", tune.Curl, 0, 60)
	density := slider("Dye dissipation", tune.DensityDissipation, 0.9, 1.0)
	velocity := slider("Velocity dissipation", tune.VelocityDissipation, 0.9, 1.0)
	iters := slider("Pressure iterations", float32(tune.PressureIterations), 1, 60)
	*splatRadius = slider("Splat radius", *splatRadius, 0.0005, 0.02)

	changed := curl != tune.Curl ||
		density != tune.DensityDissipation ||
		velocity != tune.VelocityDissipation ||
		int(iters) != tune.PressureIterations
	tune.Curl = curl
	tune.DensityDissipation = density
	tune.VelocityDissipation = velocity
	tune.PressureIterations = int(iters)

	restart := false
	if changed {
		rl.DrawText("solver change pending", int32(x), int32(y), 12, rl.Orange)
	}
	y += 20
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: w, Height: 26}, "Apply solver settings") {
		restart = true
	}
	y += 44

	rl.DrawText(fmt.Sprintf("frame %d", stats.Frame), int32(x), int32(y), 14, rl.Gray)
	y += 18
	rl.DrawText(fmt.Sprintf("dye total %.1f", stats.TotalDye), int32(x), int32(y), 14, rl.Gray)
	y += 18
	rl.DrawText(fmt.Sprintf("max |v| %.2f", stats.MaxVelocity), int32(x), int32(y), 14, rl.Gray)
	y += 18
	rl.DrawText(fmt.Sprintf("step %s", stepTime.Round(10*time.Microsecond)), int32(x), int32(y), 14, rl.Gray)
	return restart
}

func recordFrame(engine *fluid.Engine, collector *telemetry.Collector, dt float64, splats int, stepTime time.Duration) {
	if collector == nil {
		return
	}
	stats, err := engine.Stats()
	if err != nil {
		return
	}
	_ = collector.Record(telemetry.FrameRecord{
		Frame:             stats.Frame,
		DT:                dt,
		Splats:            splats,
		StepMicros:        stepTime.Microseconds(),
		TotalDye:          stats.TotalDye,
		MaxVelocity:       stats.MaxVelocity,
		MeanAbsDivergence: stats.MeanAbsDivergence,
	})
}

// hueColor converts a hue in turns to a bright RGB color (full saturation
// and value), wrapping at 1.
func hueColor(h float32) fluid.RGB {
	h = h - float32(math.Floor(float64(h)))
	sector := h * 6
	i := int(sector)
	f := sector - float32(i)

	switch i % 6 {
	case 0:
		return fluid.RGB{R: 1, G: f, B: 0}
	case 1:
		return fluid.RGB{R: 1 - f, G: 1, B: 0}
	case 2:
		return fluid.RGB{R: 0, G: 1, B: f}
	case 3:
		return fluid.RGB{R: 0, G: 1 - f, B: 1}
	case 4:
		return fluid.RGB{R: f, G: 0, B: 1}
	default:
		return fluid.RGB{R: 1, G: 0, B: 1 - f}
	}
}
