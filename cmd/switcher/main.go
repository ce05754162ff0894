// Command switcher runs the automatic multi-camera switcher: it reads the
// camera rig layout, opens one frame source per camera, and drives the
// frame-synchronous switching loop while serving the telemetry API.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/abdullah-azi/football-highlights/internal/api"
	"github.com/abdullah-azi/football-highlights/internal/config"
	"github.com/abdullah-azi/football-highlights/internal/events"
	"github.com/abdullah-azi/football-highlights/internal/switcher"
	"github.com/abdullah-azi/football-highlights/internal/telemetry"
	"github.com/abdullah-azi/football-highlights/internal/version"
	"github.com/abdullah-azi/football-highlights/internal/video"
)

var (
	camerasPath = flag.String("cameras", "config/cameras.example.json", "Camera rig layout JSON (zones, routing, sources)")
	tuningPath  = flag.String("tuning", "", "Switching tunables JSON (defaults used when omitted)")
	outputPath  = flag.String("output", "", "Output video file for the switched feed (omit to disable)")
	weights     = flag.String("weights", "models/yolov4.weights", "YOLO weights file")
	modelCfg    = flag.String("model-config", "models/yolov4.cfg", "YOLO network config file")
	namesPath   = flag.String("names", "models/coco.names", "Class names file")
	targetClass = flag.String("target-class", "sports ball", "Class to track")
	sessionNote = flag.String("note", "", "Free-text note recorded on the session")
)

// envConfig holds the runtime infrastructure settings.
type envConfig struct {
	DBPath string `env:"SWITCHER_DB" envDefault:"switching.db"`
	Listen string `env:"SWITCHER_LISTEN" envDefault:":8080"`
	Kafka  telemetry.KafkaConfig
}

func main() {
	flag.Parse()
	log.Printf("switcher %s", version.String())

	// A missing .env is fine; env vars may come from the environment proper.
	_ = godotenv.Load()
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		log.Fatalf("parse environment: %v", err)
	}

	if err := run(ec); err != nil {
		log.Fatalf("switcher: %v", err)
	}
}

func run(ec envConfig) error {
	layout, err := config.LoadCameraLayout(*camerasPath)
	if err != nil {
		return err
	}

	tuning := config.EmptyTuning()
	if *tuningPath != "" {
		tuning, err = config.LoadTuning(*tuningPath)
		if err != nil {
			return err
		}
	}
	cfg := tuning.EngineConfig()
	zones, routes := layout.ZoneTables()

	// One seekable source per declared camera.
	sources := make(map[switcher.CameraID]switcher.FrameSource, len(layout.Cameras))
	var fileSources []*video.FileSource
	defer func() {
		for _, src := range fileSources {
			src.Close()
		}
	}()
	for cam, path := range layout.SourcePaths() {
		src, err := video.OpenFileSource(path)
		if err != nil {
			return err
		}
		fileSources = append(fileSources, src)
		sources[cam] = src
		log.Printf("camera %d (%s): %s, %d frames at %.1f fps",
			cam, layout.CameraName(cam), path, src.FrameCount(), src.FPS())
	}

	ball, err := video.NewBallDetector(*weights, *modelCfg, *namesPath, *targetClass, cfg.BallConfThresh)
	if err != nil {
		return err
	}
	defer ball.Close()
	sticky := video.NewStickyTracker(ball, video.DefaultStickyConfig())

	store, err := events.Open(ec.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sinks := telemetry.MultiSink{events.NewSink(store), telemetry.LogSink{}}
	if ec.Kafka.Enabled() {
		ks, err := telemetry.NewKafkaSink(ec.Kafka)
		if err != nil {
			return err
		}
		defer ks.Close()
		sinks = append(sinks, ks)
	}

	var frames switcher.FrameSink
	if *outputPath != "" {
		first := fileSources[0]
		width, height := first.Dimensions()
		ws, err := video.NewWriterSink(*outputPath, first.FPS(), width, height)
		if err != nil {
			return err
		}
		defer ws.Close()
		frames = ws
	}

	orch, err := switcher.New(switcher.Options{
		Zones:       zones,
		Routes:      routes,
		Config:      cfg,
		StartCamera: switcher.CameraID(layout.StartCamera),
		PreferStart: switcher.CameraID(layout.PreferredStart),
		Sources:     sources,
		Detector:    sticky,
		// Fallback probes judge each camera on its own, without the
		// continuity gate anchored to the active camera's ball.
		ScanDetector: ball,
		Sticky:       sticky,
		Sink:         sinks,
		Frames:       frames,
	})
	if err != nil {
		return err
	}
	if err := store.BeginSession(orch.SessionID(), orch.Snapshot().ActiveCam, *sessionNote); err != nil {
		return err
	}
	log.Printf("session %s starting on camera %d (%s)",
		orch.SessionID(), orch.Snapshot().ActiveCam, layout.CameraName(orch.Snapshot().ActiveCam))

	mux := http.NewServeMux()
	api.NewServer(orch, store).Register(mux)
	httpSrv := &http.Server{Addr: ec.Listen, Handler: mux}
	go func() {
		log.Printf("telemetry API listening on %s", ec.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("telemetry API: %v", err)
		}
	}()
	defer httpSrv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = orch.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	snap := orch.Snapshot()
	log.Printf("session %s finished: %d frames, %d switches", snap.SessionID, snap.Frame, snap.Switches)
	for cam, n := range snap.Usage {
		log.Printf("  camera %d (%s): %d frames", cam, layout.CameraName(cam), n)
	}
	return err
}
