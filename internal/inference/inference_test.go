package inference

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func filterText(t *testing.T, text string, classID int, engine string) string {
	t.Helper()

	dir := t.TempDir()
	base := filepath.Join(dir, "config_infer.txt")
	out := filepath.Join(dir, "config_infer_filtered.txt")
	require.Nil(t, os.WriteFile(base, []byte(text), 0644))

	path, err := Filter(base, classID, out, engine)
	require.Nil(t, err)
	require.Equal(t, out, path)

	data, err := os.ReadFile(path)
	require.Nil(t, err)
	return string(data)
}

func TestFilterScenario(t *testing.T) {
	out := filterText(t, "[class-attrs-all]\nthreshold=0.3\n[other]\nx=1\n", 2, "")
	require.Equal(t,
		"[other]\nx=1\n\n[class-attrs-2]\npre-cluster-threshold=0.25\n\n[class-attrs-all]\npre-cluster-threshold=1.0\n",
		out)
}

func TestFilterPassThrough(t *testing.T) {
	// no all-classes section: input is preserved, two sections appended
	in := "# yolo11 primary detector\n[property]\ngpu-id=0\nbatch-size=1\n\n[class-attrs-7]\ntopk=20\n"
	out := filterText(t, in, 0, "")
	require.Equal(t,
		in+"\n[class-attrs-0]\npre-cluster-threshold=0.25\n\n[class-attrs-all]\npre-cluster-threshold=1.0\n",
		out)
}

func TestFilterRemovesWholeSection(t *testing.T) {
	in := "[property]\ngpu-id=0\n[class-attrs-all]\nthreshold=0.3\ntopk=20\nnms-iou-threshold=0.5\n[osd]\ndisplay-text=1\n"
	out := filterText(t, in, 1, "")

	require.NotContains(t, out, "threshold=0.3")
	require.NotContains(t, out, "topk=20")
	require.NotContains(t, out, "nms-iou-threshold=0.5")

	// lines before and after the removed section survive in order,
	// including the boundary header right after it
	require.True(t, strings.HasPrefix(out, "[property]\ngpu-id=0\n[osd]\ndisplay-text=1\n"))
}

func TestFilterThresholdOrdering(t *testing.T) {
	out := filterText(t, "[property]\ngpu-id=0\n", 3, "")

	perClass := strings.Index(out, "[class-attrs-3]")
	allClasses := strings.Index(out, "[class-attrs-all]")
	require.True(t, perClass >= 0)
	require.True(t, allClasses > perClass, "per-class section must precede the all-classes section")
}

func TestFilterIdempotent(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "config_infer.txt")
	require.Nil(t, os.WriteFile(base, []byte("[property]\ngpu-id=0\n[class-attrs-all]\nthreshold=0.3\n"), 0644))

	out1 := filepath.Join(dir, "pass1.txt")
	_, err := Filter(base, 2, out1, "")
	require.Nil(t, err)

	out2 := filepath.Join(dir, "pass2.txt")
	_, err = Filter(out1, 2, out2, "")
	require.Nil(t, err)

	data, err := os.ReadFile(out2)
	require.Nil(t, err)
	text := string(data)

	// thresholds do not compound: still exactly one restrictive
	// all-classes section, and the active per-class threshold for the
	// target class is unchanged
	require.Equal(t, 1, strings.Count(text, "[class-attrs-all]"))
	require.Equal(t, 1, strings.Count(text, "pre-cluster-threshold=1.0"))
	require.True(t, strings.HasSuffix(text,
		"[class-attrs-2]\npre-cluster-threshold=0.25\n\n[class-attrs-all]\npre-cluster-threshold=1.0\n"))
}

func TestFilterEngineOverride(t *testing.T) {
	in := "[property]\nmodel-engine-file=/models/yolo11s.engine\n"
	out := filterText(t, in, 0, "/workdir/model_b1_gpu0_fp32.engine")

	require.Contains(t, out, "model-engine-file=/workdir/model_b1_gpu0_fp32.engine")
	require.NotContains(t, out, "/models/yolo11s.engine")
}

func TestFilterMissingBase(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "filtered.txt")

	_, err := Filter(filepath.Join(dir, "missing.txt"), 0, out, "")
	require.NotNil(t, err)

	// all-or-nothing: no file appears at the output path on failure
	_, err = os.Stat(out)
	require.True(t, os.IsNotExist(err))
}

func TestClassID(t *testing.T) {
	labels := filepath.Join(t.TempDir(), "labels.txt")
	require.Nil(t, os.WriteFile(labels, []byte("person\nbicycle\ncar\n"), 0644))

	id, ok := classID(labels, "car")
	require.True(t, ok)
	require.Equal(t, 2, id)

	_, ok = classID(labels, "dragon")
	require.False(t, ok)

	_, ok = classID(filepath.Join(t.TempDir(), "missing.txt"), "person")
	require.False(t, ok)
}

func TestResolveClass(t *testing.T) {
	labels := filepath.Join(t.TempDir(), "labels.txt")
	require.Nil(t, os.WriteFile(labels, []byte("person\nbicycle\n"), 0644))

	// explicit override wins over the labels lookup
	id, ok := resolveClass("7", labels, "person")
	require.True(t, ok)
	require.Equal(t, 7, id)

	id, ok = resolveClass("", labels, "bicycle")
	require.True(t, ok)
	require.Equal(t, 1, id)

	_, ok = resolveClass("seven", labels, "person")
	require.False(t, ok)

	_, ok = resolveClass("", labels, "")
	require.False(t, ok)
}
