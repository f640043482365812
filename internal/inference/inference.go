// Package inference rewrites the nvinfer model configuration so that only
// one detection class survives post-clustering. The pipeline module reads
// the result via ConfigPath. Filtering is best-effort: on any failure the
// original configuration is used and the pipeline still starts.
package inference

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dslaunch/dslaunch/internal/api"
	"github.com/dslaunch/dslaunch/internal/app"
	"github.com/dslaunch/dslaunch/pkg/infercfg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func Init() {
	var cfg struct {
		Mod struct {
			Config  string `yaml:"config"`
			Engine  string `yaml:"engine"`
			Labels  string `yaml:"labels"`
			Object  string `yaml:"object"`
			ClassID string `yaml:"class_id"`
			Path    string `yaml:"path"`
		} `yaml:"inference"`
	}

	app.LoadConfig(&cfg)

	log = app.GetLogger("inference")

	state.Config = cfg.Mod.Config
	state.Object = cfg.Mod.Object

	api.HandleFunc("api/inference", apiInference)

	id, ok := resolveClass(cfg.Mod.ClassID, cfg.Mod.Labels, cfg.Mod.Object)
	if !ok {
		log.Warn().Str("object", cfg.Mod.Object).Str("labels", cfg.Mod.Labels).
			Msg("[inference] class not resolved, filtering disabled")
		return
	}

	state.ClassID = &id

	out := cfg.Mod.Path
	if out == "" {
		// namespace the output per run, two launchers on one host
		// must not overwrite each other's filtered config
		out = filepath.Join(os.TempDir(), fmt.Sprintf("config_infer_filtered_%s.txt", uuid.NewString()))
	}

	path, err := Filter(cfg.Mod.Config, id, out, cfg.Mod.Engine)
	if err != nil {
		log.Warn().Err(err).Msg("[inference] filter config, using original")
		return
	}

	state.Filtered = path
	log.Info().Str("object", cfg.Mod.Object).Int("class_id", id).Str("path", path).
		Msg("[inference] class filtering enabled")
}

// Filter rewrites the model configuration at base so that only classID
// survives post-clustering and writes the result to out, returning out.
//
// Every [class-attrs-all] section is removed, then a permissive
// [class-attrs-N] section for classID and a restrictive [class-attrs-all]
// section are appended, in that order - nvinfer prefers the specific
// per-class section, so only the target class passes. When engine is
// non-empty, model-engine-file lines are rewritten to it.
//
// The output is written via a temp file plus rename, so concurrent
// readers never observe a partial document and a failed run leaves
// nothing behind at out.
func Filter(base string, classID int, out, engine string) (string, error) {
	data, err := os.ReadFile(base)
	if err != nil {
		return "", err
	}

	doc := infercfg.Parse(string(data))
	doc.Strip(infercfg.AllClasses)

	if engine != "" {
		doc.Set("model-engine-file", engine)
	}

	doc.Append(fmt.Sprintf("[class-attrs-%d]", classID), infercfg.PermissiveThreshold)
	doc.Append(infercfg.AllClasses, infercfg.RestrictiveThreshold)

	if err = writeAtomic(out, []byte(doc.String())); err != nil {
		return "", err
	}

	return out, nil
}

// ConfigPath returns the filtered configuration path, or the original
// model configuration when filtering is disabled or failed.
func ConfigPath() string {
	if state.Filtered != "" {
		return state.Filtered
	}
	return state.Config
}

// internal

var log zerolog.Logger

var state struct {
	Config   string `json:"config"`
	Object   string `json:"object,omitempty"`
	ClassID  *int   `json:"class_id,omitempty"`
	Filtered string `json:"filtered,omitempty"`
}

func resolveClass(override, labels, object string) (int, bool) {
	if override != "" {
		id, err := strconv.Atoi(override)
		if err != nil {
			log.Warn().Str("class_id", override).Msg("[inference] bad class id")
			return 0, false
		}
		return id, true
	}

	if object == "" {
		return 0, false
	}

	return classID(labels, object)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".infer*")
	if err != nil {
		return err
	}

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}

func apiInference(w http.ResponseWriter, r *http.Request) {
	api.ResponseJSON(w, &state)
}
