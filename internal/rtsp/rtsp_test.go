package rtsp

import (
	"testing"

	"github.com/aler9/gortsplib"
	"github.com/aler9/gortsplib/pkg/base"
	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"
)

func TestHandlerMount(t *testing.T) {
	track := &gortsplib.TrackH264{PayloadType: 96}
	stream = gortsplib.NewServerStream(gortsplib.Tracks{track})
	defer func() {
		_ = stream.Close()
		stream = nil
	}()

	h := &handler{mount: "/ds-detect"}

	// the library reports the path without the leading slash
	res, st, err := h.OnDescribe(&gortsplib.ServerHandlerOnDescribeCtx{Path: "ds-detect"})
	require.Nil(t, err)
	require.Equal(t, base.StatusOK, res.StatusCode)
	require.Equal(t, stream, st)

	res, st, err = h.OnSetup(&gortsplib.ServerHandlerOnSetupCtx{Path: "ds-scale"})
	require.Nil(t, err)
	require.Equal(t, base.StatusNotFound, res.StatusCode)
	require.Nil(t, st)

	// writing with no subscribed readers is a no-op
	pkt := rtp.Packet{Header: rtp.Header{Version: 2, PayloadType: 96}}
	stream.WritePacketRTP(0, &pkt)
}
