package main

import (
	"github.com/dslaunch/dslaunch/internal/api"
	"github.com/dslaunch/dslaunch/internal/api/ws"
	"github.com/dslaunch/dslaunch/internal/app"
	"github.com/dslaunch/dslaunch/internal/inference"
	"github.com/dslaunch/dslaunch/internal/pipeline"
	"github.com/dslaunch/dslaunch/internal/rtsp"
	"github.com/dslaunch/dslaunch/internal/run"
	"github.com/dslaunch/dslaunch/pkg/shell"
)

func main() {
	app.Init() // init config and logs

	api.Init() // init HTTP API server
	ws.Init()  // pipeline events over WebSocket (depends on api)

	inference.Init() // rewrite model config for class filtering
	pipeline.Init()  // assemble launch description (depends on inference)
	rtsp.Init()      // restream the RTP leg over RTSP (depends on pipeline)
	run.Init()       // parse and play the pipeline (depends on pipeline)

	shell.RunUntilSignal()

	run.Shutdown()
}
