package inference

import (
	"os"
	"strings"
)

// classID resolves object against the model labels file: the class id is
// the zero-based index of the line whose trimmed content equals object.
func classID(path, object string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("[inference] read labels")
		return 0, false
	}

	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == object {
			return i, true
		}
	}

	return 0, false
}
