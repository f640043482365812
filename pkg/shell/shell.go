package shell

import (
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
)

var envRe = regexp.MustCompile(`\${([^}{]+)}`)

// ReplaceEnvVars expands `${VAR}` and `${VAR:default}` placeholders in text
// from the process environment. Unknown variables without a default are
// left untouched.
func ReplaceEnvVars(text string) string {
	return envRe.ReplaceAllStringFunc(text, func(match string) string {
		key := match[2 : len(match)-1]

		var def string
		var dok bool

		if i := strings.IndexByte(key, ':'); i > 0 {
			key, def = key[:i], key[i+1:]
			dok = true
		}

		if value, vok := os.LookupEnv(key); vok {
			return value
		}

		if dok {
			return def
		}

		return match
	})
}

// RunUntilSignal blocks the calling goroutine until SIGINT or SIGTERM.
func RunUntilSignal() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	println("exit with signal:", (<-sigs).String())
}
