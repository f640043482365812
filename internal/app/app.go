package app

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dslaunch/dslaunch/pkg/shell"
	"gopkg.in/yaml.v3"
)

var Version = "1.2.0"

var ConfigPath string
var Info = map[string]any{
	"version": Version,
}

func Init() {
	var confs flagConfig
	var version bool

	flag.Var(&confs, "config", "dslaunch config (path to file or raw text), support multiple")
	flag.BoolVar(&version, "version", false, "Print the version of the application and exit")
	flag.Parse()

	if version {
		fmt.Printf("dslaunch version %s %s/%s\n", Version, runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	initConfig(confs)
	initLogger()

	platform := fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	Logger.Info().Str("version", Version).Str("platform", platform).Msg("dslaunch")
	Logger.Debug().Str("version", runtime.Version()).Msg("build")

	if ConfigPath != "" {
		Logger.Info().Str("path", ConfigPath).Msg("config")
	}
}

// LoadConfig unmarshals every config source into v, in load order,
// so later sources override earlier ones.
func LoadConfig(v any) {
	for _, data := range configs {
		if err := yaml.Unmarshal(data, v); err != nil {
			Logger.Warn().Err(err).Msg("[app] read config")
		}
	}
}

// defaultConfig keeps the launcher drop-in compatible with the
// environment-variable surface of the original containers. Config files
// passed via `-config` load after it and win.
const defaultConfig = `
log:
  level: ${LOG_LEVEL:info}
pipeline:
  mode: ${PIPELINE_MODE:detect}
  source: ${RTSP_URL:}
  device: ${GST_DEVICE:}
  width: "${OUTPUT_WIDTH:1920}"
  height: "${OUTPUT_HEIGHT:1080}"
  display: "${SHOW_DISPLAY:true}"
  rtsp: "${RTSP_OUTPUT:}"
inference:
  config: ${MODEL_CONFIG:/opt/nvidia/deepstream/deepstream/samples/configs/deepstream-app/config_infer_primary.txt}
  engine: ${MODEL_ENGINE:}
  labels: ${LABELS_FILE:/models/labels.txt}
  object: ${DETECT_OBJECT:person}
  class_id: "${FILTER_CLASS_ID:}"
rtsp:
  listen: ":${RTSP_OUTPUT_PORT:8555}"
`

// internal

type flagConfig []string

func (c *flagConfig) String() string {
	return strings.Join(*c, " ")
}

func (c *flagConfig) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var configs [][]byte

func initConfig(confs flagConfig) {
	configs = [][]byte{[]byte(shell.ReplaceEnvVars(defaultConfig))}

	if confs == nil {
		confs = []string{"dslaunch.yaml"}
	}

	for _, conf := range confs {
		if len(conf) == 0 {
			continue
		}
		if conf[0] == '{' {
			// config as raw YAML or JSON
			configs = append(configs, []byte(conf))
		} else if data := parseConfString(conf); data != nil {
			configs = append(configs, data)
		} else {
			// config as file
			if ConfigPath == "" {
				ConfigPath = conf
			}

			if data, _ = os.ReadFile(conf); data == nil {
				continue
			}

			data = []byte(shell.ReplaceEnvVars(string(data)))
			configs = append(configs, data)
		}
	}

	if ConfigPath != "" {
		if !filepath.IsAbs(ConfigPath) {
			if cwd, err := os.Getwd(); err == nil {
				ConfigPath = filepath.Join(cwd, ConfigPath)
			}
		}
		Info["config_path"] = ConfigPath
	}
}

func parseConfString(s string) []byte {
	i := strings.IndexByte(s, '=')
	if i < 0 {
		return nil
	}

	items := strings.Split(s[:i], ".")
	if len(items) < 2 {
		return nil
	}

	// `pipeline.mode=scale` => `{pipeline: {mode: scale}}`
	var pre string
	var suf = s[i+1:]
	for _, item := range items {
		pre += "{" + item + ": "
		suf += "}"
	}

	return []byte(pre + suf)
}
