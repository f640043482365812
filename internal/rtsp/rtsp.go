// Package rtsp restreams the pipeline's RTP/H264 leg to RTSP clients.
// The encoder pays RTP to a UDP group (see the pipeline udpsink leg),
// this module picks the packets up and serves them on a single mount.
// SPS/PPS travel in-band (insert-sps-pps=true), so the track carries
// no out-of-band parameters.
package rtsp

import (
	"net"
	"strconv"
	"strings"

	"github.com/aler9/gortsplib"
	"github.com/aler9/gortsplib/pkg/base"
	"github.com/dslaunch/dslaunch/internal/app"
	"github.com/dslaunch/dslaunch/internal/pipeline"
	"github.com/pion/rtp"
	"github.com/rs/zerolog"
)

func Init() {
	var cfg struct {
		Mod struct {
			Listen string `yaml:"listen"`
			Mount  string `yaml:"mount"`
		} `yaml:"rtsp"`
	}

	// default config
	cfg.Mod.Listen = ":8555"

	app.LoadConfig(&cfg)

	log = app.GetLogger("rtsp")

	if !pipeline.RTSPEnabled() || cfg.Mod.Listen == "" {
		return
	}

	mount := cfg.Mod.Mount
	if mount == "" {
		mount = pipeline.MountPath()
	}

	track := &gortsplib.TrackH264{PayloadType: 96}
	stream = gortsplib.NewServerStream(gortsplib.Tracks{track})

	server := &gortsplib.Server{
		Handler:     &handler{mount: mount},
		RTSPAddress: cfg.Mod.Listen,
	}

	log.Info().Str("addr", cfg.Mod.Listen).Str("mount", mount).Msg("[rtsp] listen")

	go func() {
		if err := server.StartAndWait(); err != nil {
			log.Error().Err(err).Msg("[rtsp] serve")
		}
	}()

	go relay(pipeline.RTPAddr())
}

// internal

var log zerolog.Logger
var stream *gortsplib.ServerStream

type handler struct {
	mount string
}

func (h *handler) OnConnOpen(ctx *gortsplib.ServerHandlerOnConnOpenCtx) {
	log.Debug().Str("addr", ctx.Conn.NetConn().RemoteAddr().String()).Msg("[rtsp] client")
}

func (h *handler) OnDescribe(ctx *gortsplib.ServerHandlerOnDescribeCtx) (*base.Response, *gortsplib.ServerStream, error) {
	if !h.match(ctx.Path) {
		return &base.Response{StatusCode: base.StatusNotFound}, nil, nil
	}
	return &base.Response{StatusCode: base.StatusOK}, stream, nil
}

func (h *handler) OnSetup(ctx *gortsplib.ServerHandlerOnSetupCtx) (*base.Response, *gortsplib.ServerStream, error) {
	if !h.match(ctx.Path) {
		return &base.Response{StatusCode: base.StatusNotFound}, nil, nil
	}
	return &base.Response{StatusCode: base.StatusOK}, stream, nil
}

func (h *handler) match(path string) bool {
	return strings.TrimPrefix(path, "/") == strings.TrimPrefix(h.mount, "/")
}

func (h *handler) OnPlay(ctx *gortsplib.ServerHandlerOnPlayCtx) (*base.Response, error) {
	return &base.Response{StatusCode: base.StatusOK}, nil
}

// relay forwards RTP packets from the pipeline's udpsink leg into the
// server stream. addr may be a multicast group or a plain host:port.
func relay(addr string) {
	host, ports, err := net.SplitHostPort(addr)
	if err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("[rtsp] udp addr")
		return
	}
	port, _ := strconv.Atoi(ports)
	ip := net.ParseIP(host)

	var conn *net.UDPConn
	if ip != nil && ip.IsMulticast() {
		conn, err = net.ListenMulticastUDP("udp", nil, &net.UDPAddr{IP: ip, Port: port})
	} else {
		conn, err = net.ListenUDP("udp", &net.UDPAddr{IP: ip, Port: port})
	}
	if err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("[rtsp] udp listen")
		return
	}
	_ = conn.SetReadBuffer(1 << 20)

	log.Debug().Str("addr", addr).Msg("[rtsp] relay")

	buf := make([]byte, 2048)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			log.Warn().Err(err).Msg("[rtsp] udp read")
			return
		}

		var pkt rtp.Packet
		if err = pkt.Unmarshal(buf[:n]); err != nil {
			log.Debug().Err(err).Msg("[rtsp] rtp unmarshal")
			continue
		}

		stream.WritePacketRTP(0, &pkt)
	}
}
