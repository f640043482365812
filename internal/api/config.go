package api

import (
	"io"
	"net/http"
	"os"

	"github.com/dslaunch/dslaunch/internal/app"
	"gopkg.in/yaml.v3"
)

func configHandler(w http.ResponseWriter, r *http.Request) {
	if app.ConfigPath == "" {
		http.Error(w, "", http.StatusGone)
		return
	}

	switch r.Method {
	case "GET":
		data, err := os.ReadFile(app.ConfigPath)
		if err != nil {
			http.Error(w, "", http.StatusNotFound)
			return
		}
		Response(w, data, "application/yaml")

	case "POST", "PATCH":
		data, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if r.Method == "PATCH" {
			data, err = mergeYAML(app.ConfigPath, data)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		} else {
			// validate config
			var tmp struct{}
			if err = yaml.Unmarshal(data, &tmp); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		if err = os.WriteFile(app.ConfigPath, data, 0644); err != nil {
			Error(w, err)
			return
		}

	default:
		http.Error(w, "Method not allowed", http.StatusBadRequest)
	}
}

func mergeYAML(file string, patch []byte) ([]byte, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var dst map[string]any
	if err = yaml.Unmarshal(data, &dst); err != nil {
		return nil, err
	}

	var src map[string]any
	if err = yaml.Unmarshal(patch, &src); err != nil {
		return nil, err
	}

	return yaml.Marshal(merge(dst, src))
}

func merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		return src
	}
	for k, v := range src {
		if vv, ok := dst[k].(map[string]any); ok {
			if v, ok := v.(map[string]any); ok {
				dst[k] = merge(vv, v)
				continue
			}
		}
		dst[k] = v
	}
	return dst
}
