package launch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDesc(t *testing.T) {
	d := &Desc{}
	d.Add("videotestsrc pattern=0").Add("").Add("nvvideoconvert interpolation-method=5").Add("fakesink sync=false")
	require.Equal(t, "videotestsrc pattern=0 ! nvvideoconvert interpolation-method=5 ! fakesink sync=false", d.String())
}

func TestExpand(t *testing.T) {
	s := Expand("nvstreammux name=m width={width} height={height} batch-size=1", map[string]string{
		"width":  "1280",
		"height": "720",
	})
	require.Equal(t, "nvstreammux name=m width=1280 height=720 batch-size=1", s)

	// unknown placeholders stay as-is
	require.Equal(t, "a {b} c", Expand("a {b} c", map[string]string{"x": "y"}))
}
