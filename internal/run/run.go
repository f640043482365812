// Package run owns the GStreamer pipeline lifecycle: parse the launch
// description, drive it to PLAYING, watch the bus and tear everything
// down on shutdown.
package run

import (
	"context"
	"time"

	"github.com/dslaunch/dslaunch/internal/api/ws"
	"github.com/dslaunch/dslaunch/internal/app"
	"github.com/dslaunch/dslaunch/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/tinyzimmer/go-gst/gst"
)

func Init() {
	log = app.GetLogger("run")

	gst.Init(nil)

	var err error
	if pipe, err = gst.NewPipelineFromString(pipeline.LaunchString()); err != nil {
		log.Fatal().Err(err).Msg("[run] parse launch")
		return
	}

	if err = pipe.SetState(gst.StatePlaying); err != nil {
		log.Fatal().Err(err).Msg("[run] set playing")
		return
	}

	var ctx context.Context
	ctx, cancel = context.WithCancel(context.Background())

	go watch(ctx, pipe)
}

// Shutdown stops the bus watch and drives the pipeline to NULL. Safe to
// call when Init failed.
func Shutdown() {
	if cancel != nil {
		cancel()
	}
	if pipe != nil {
		if err := pipe.SetState(gst.StateNull); err != nil {
			log.Warn().Err(err).Msg("[run] set null")
		}
	}
}

// internal

var log zerolog.Logger
var pipe *gst.Pipeline
var cancel context.CancelFunc

// watch polls the pipeline bus until EOS, an error or shutdown. Bus
// events are mirrored to websocket subscribers.
func watch(ctx context.Context, pipe *gst.Pipeline) {
	bus := pipe.GetPipelineBus()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg := bus.TimedPop(100 * time.Millisecond)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageEOS:
			log.Info().Msg("[run] end of stream")
			ws.Broadcast(&ws.Message{Type: "eos"})
			return

		case gst.MessageError:
			gerr := msg.ParseError()
			log.Error().Str("source", msg.Source()).
				Str("debug", gerr.DebugString()).
				Msgf("[run] %s", gerr.Error())
			ws.Broadcast(&ws.Message{Type: "error", Value: gerr.Error()})
			return

		case gst.MessageStateChanged:
			if msg.Source() != pipe.GetName() {
				continue
			}
			old, cur := msg.ParseStateChanged()
			log.Debug().Msgf("[run] state %s -> %s", old, cur)
			ws.Broadcast(&ws.Message{Type: "state", Value: cur.String()})
		}
	}
}
