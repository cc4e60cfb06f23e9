// Command poseestimate plays a directory of frames through a pose model at a fixed frame rate,
// the way a camera would deliver them, and prints the keypoints of every estimated frame.
package main

import (
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-pose/config"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/logger"
	"github.com/nvr-ai/go-pose/models/model"
	"github.com/nvr-ai/go-pose/models/postprocess"
	"github.com/nvr-ai/go-pose/pipeline"
	"github.com/nvr-ai/go-pose/profiler"
	"github.com/nvr-ai/go-pose/render"
	"github.com/nvr-ai/go-pose/util"
)

func main() {
	var (
		configPath string
		envFile    string
		imagesDir  string
		outputDir  string
		modelName  string
		modelPath  string
		fps        float64
	)
	flag.StringVar(&configPath, "config", "", "Path to the YAML configuration")
	flag.StringVar(&envFile, "env", ".env", "Optional .env file with POSE_* overrides")
	flag.StringVar(&imagesDir, "images", "", "Directory of frames (.jpg, .jpeg, .png)")
	flag.StringVar(&outputDir, "out", "", "Directory for annotated frames; empty disables overlays")
	flag.StringVar(&modelName, "model", "", "Model name (pefm, posenet); overrides the configuration")
	flag.StringVar(&modelPath, "model-path", "", "ONNX model file; overrides the configuration")
	flag.Float64Var(&fps, "fps", 30, "Frame rate at which frames are submitted")
	flag.Parse()

	if err := run(configPath, envFile, imagesDir, outputDir, modelName, modelPath, fps); err != nil {
		fmt.Fprintf(os.Stderr, "poseestimate: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile, imagesDir, outputDir, modelName, modelPath string, fps float64) error {
	if imagesDir == "" {
		return fmt.Errorf("-images is required")
	}
	if fps <= 0 {
		return fmt.Errorf("-fps must be positive, got %v", fps)
	}

	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return err
	}
	if modelName != "" {
		cfg.Model.Name = model.Name(strings.ToLower(modelName))
	}
	if modelPath != "" {
		cfg.Model.Path = modelPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}

	files, err := util.LoadDirectoryImageFiles(imagesDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no frames found in %s", imagesDir)
	}
	frames := make([]image.Image, len(files))
	for i, f := range files {
		if frames[i], err = f.Decode(); err != nil {
			return err
		}
	}

	prof := profiler.New(0)
	engine, err := inference.NewEngineBuilder().
		WithModel(cfg.ModelArgs()).
		WithQuantized(cfg.Model.Quantized).
		WithSession(cfg.Model.Path, cfg.SessionOptions()).
		WithLogger(log).
		WithProfiler(prof).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	modelCfg := engine.Model().Config()
	style := render.StyleFor(modelCfg)
	style.Radius = cfg.Render.Radius
	style.MinConfidence = cfg.Render.MinConfidence

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{
		"model":  modelCfg.Name,
		"frames": len(frames),
		"fps":    fps,
	}).Info("starting playback")

	var out sync.Mutex
	dispatcher := pipeline.NewDispatcher(engine, func(r pipeline.Result) {
		out.Lock()
		defer out.Unlock()

		if r.Err != nil {
			log.WithError(r.Err).WithField("frame", r.FrameID).Error("estimate failed")
			return
		}
		printKeypoints(os.Stdout, r, modelCfg.Labels, cfg.Render.MinConfidence)

		if outputDir != "" {
			path := filepath.Join(outputDir, fmt.Sprintf("frame-%04d.jpg", r.FrameID))
			if err := render.WriteOverlay(path, frames[r.FrameID], r.Keypoints, style); err != nil {
				log.WithError(err).WithField("path", path).Warn("overlay not written")
			}
		}
	}, pipeline.Options{
		Timeout: cfg.Pipeline.Timeout,
		Logger:  log,
	})

	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	for i, img := range frames {
		dispatcher.Submit(pipeline.Frame{ID: int64(i), Image: img, Timestamp: time.Now()})
		<-ticker.C
	}
	dispatcher.Close()

	printSummary(os.Stdout, dispatcher.Stats(), prof.Snapshot())
	return nil
}

// printKeypoints lists the labelled keypoints of one frame.
func printKeypoints(w io.Writer, r pipeline.Result, labels model.Labels, min *float32) {
	fmt.Fprintf(w, "frame %04d  inference %s\n", r.FrameID, r.Inference.Round(time.Microsecond))
	for _, kp := range postprocess.Labelled(postprocess.Visible(r.Keypoints, min), labels) {
		if !kp.Present {
			fmt.Fprintf(w, "  %-16s -\n", kp.Label)
			continue
		}
		fmt.Fprintf(w, "  %-16s x=%.3f y=%.3f conf=%.3f\n", kp.Label,
			kp.Keypoint.Location.X, kp.Keypoint.Location.Y, kp.Keypoint.Confidence)
	}
}

// printSummary prints admission counters and per-stage timings.
func printSummary(w io.Writer, stats pipeline.Stats, timings []profiler.Stats) {
	fmt.Fprintf(w, "\nsubmitted %d  admitted %d  dropped %d  completed %d  failed %d\n",
		stats.Submitted, stats.Admitted, stats.Dropped, stats.Completed, stats.Failed)
	for _, s := range timings {
		fmt.Fprintf(w, "  %-12s avg %-10s min %-10s max %-10s %.1f fps\n", s.Name,
			s.Average.Round(time.Microsecond), s.Min.Round(time.Microsecond),
			s.Max.Round(time.Microsecond), s.FPS)
	}
}
