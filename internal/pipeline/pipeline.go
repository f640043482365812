// Package pipeline assembles the DeepStream launch description. All the
// heavy lifting (decode, inference, OSD, encode) happens inside the
// GStreamer elements named here - this module only decides which textual
// pipeline to build from the config.
package pipeline

import (
	"net"
	"net/http"
	"strings"

	"github.com/dslaunch/dslaunch/internal/api"
	"github.com/dslaunch/dslaunch/internal/app"
	"github.com/dslaunch/dslaunch/internal/inference"
	"github.com/dslaunch/dslaunch/pkg/launch"
	"github.com/rs/zerolog"
)

func Init() {
	var cfg struct {
		Mod map[string]string `yaml:"pipeline"`
	}

	cfg.Mod = defaults // will be overriden from yaml

	app.LoadConfig(&cfg)

	log = app.GetLogger("pipeline")

	conf = cfg.Mod
	launchStr = buildLaunch(conf, inference.ConfigPath())

	app.Info["pipeline"] = map[string]string{
		"mode":   Mode(),
		"source": source(conf),
	}

	api.HandleFunc("api/pipeline", apiPipeline)

	log.Info().Str("mode", Mode()).Str("source", source(conf)).Msg("[pipeline] build")
	log.Debug().Msgf("[pipeline] launch: %s", launchStr)
}

// LaunchString returns the assembled gst-launch description.
func LaunchString() string {
	return launchStr
}

func Mode() string {
	if conf["mode"] == ModeScale {
		return ModeScale
	}
	return ModeDetect
}

// RTSPEnabled reports whether the launch description carries the
// RTP/UDP leg that the RTSP restreamer picks up.
func RTSPEnabled() bool {
	return conf["rtsp"] != ""
}

// RTPAddr returns the `host:port` the udpsink leg pays RTP to.
func RTPAddr() string {
	return conf["udp"]
}

// MountPath returns the RTSP mount for the current mode, e.g. "/ds-detect".
func MountPath() string {
	return "/ds-" + Mode()
}

const (
	ModeDetect = "detect"
	ModeScale  = "scale"
)

// defaults merged with the `pipeline:` YAML section. Settings and element
// templates live in one map, so any template can be overridden from config
// the same way as a setting.
var defaults = map[string]string{
	"mode":    ModeDetect,
	"source":  "",
	"device":  "",
	"width":   "1920",
	"height":  "1080",
	"display": "true",
	"rtsp":    "",
	"bitrate": "4000000",
	"udp":     "224.224.255.255:5400",

	// source templates
	"src/uri":  "nvurisrcbin uri={input}",
	"src/v4l2": "v4l2src device={input}",
	"src/test": "videotestsrc pattern=0",

	// GPU processing, frames stay in NVMM memory end to end
	"convert": "nvvideoconvert interpolation-method=5",
	"mux":     "m.sink_0 nvstreammux name=m width={width} height={height} batch-size=1",
	"infer":   "nvinfer config-file-path={config}",
	"osd":     "nvdsosd",
	"scale":   "video/x-raw(memory:NVMM),width={width},height={height}",

	// sink topologies
	"sink/display": "nvvideoconvert ! ximagesink sync=false",
	"sink/fake":    "fakesink sync=false",
	"sink/rtsp":    "nvvideoconvert ! video/x-raw(memory:NVMM),format=I420 ! nvv4l2h264enc bitrate={bitrate} insert-sps-pps=true ! h264parse ! rtph264pay name=pay0 pt=96 ! udpsink host={host} port={port} sync=false",
	"sink/tee":     "nvvideoconvert ! video/x-raw(memory:NVMM),format=I420 ! tee name=t t. ! queue ! nvv4l2h264enc bitrate={bitrate} insert-sps-pps=true ! h264parse ! rtph264pay name=pay0 pt=96 ! udpsink host={host} port={port} sync=false t. ! queue ! nvvideoconvert ! ximagesink sync=false",
}

// internal

var log zerolog.Logger
var conf map[string]string
var launchStr string

func source(conf map[string]string) string {
	if s := conf["source"]; s != "" {
		return s
	}
	if s := conf["device"]; s != "" {
		return s
	}
	return "test"
}

func buildLaunch(conf map[string]string, inferConfig string) string {
	host, port, _ := net.SplitHostPort(conf["udp"])

	vars := map[string]string{
		"width":   conf["width"],
		"height":  conf["height"],
		"bitrate": conf["bitrate"],
		"config":  inferConfig,
		"host":    host,
		"port":    port,
	}

	d := &launch.Desc{}
	d.Add(sourceSegment(conf))

	if conf["mode"] == ModeScale {
		d.Add(conf["convert"])
		d.Add(launch.Expand(conf["scale"], vars))
	} else {
		d.Add(conf["convert"])
		d.Add(launch.Expand(conf["mux"], vars))
		d.Add(launch.Expand(conf["infer"], vars))
		d.Add(conf["osd"])
	}

	d.Add(launch.Expand(sinkTemplate(conf), vars))

	return d.String()
}

// sourceSegment classifies the input: network URI, video file, local
// camera device, or the test pattern fallback.
func sourceSegment(conf map[string]string) string {
	src := source(conf)

	switch {
	case strings.HasPrefix(src, "rtsp://"),
		strings.HasPrefix(src, "http://"),
		strings.HasPrefix(src, "https://"):
		return strings.Replace(conf["src/uri"], "{input}", src, 1)

	case strings.HasSuffix(src, ".mp4"),
		strings.HasSuffix(src, ".avi"),
		strings.HasSuffix(src, ".mkv"):
		return strings.Replace(conf["src/uri"], "{input}", "file://"+src, 1)

	case strings.HasPrefix(src, "/dev/video"):
		return strings.Replace(conf["src/v4l2"], "{input}", src, 1)
	}

	return conf["src/test"]
}

func sinkTemplate(conf map[string]string) string {
	rtsp := conf["rtsp"] != ""
	display := conf["display"] == "true"

	switch {
	case rtsp && display:
		return conf["sink/tee"]
	case rtsp:
		return conf["sink/rtsp"]
	case display:
		return conf["sink/display"]
	}
	return conf["sink/fake"]
}

func apiPipeline(w http.ResponseWriter, r *http.Request) {
	api.ResponseJSON(w, map[string]string{
		"mode":   Mode(),
		"source": source(conf),
		"launch": launchStr,
	})
}
