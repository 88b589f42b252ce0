package mcfg

import (
	"bytes"
	"os"
	"path/filepath"
	. "testing"
	"time"

	"github.com/Nick-ccq/k10-base64/mcmp"
	"github.com/Nick-ccq/k10-base64/mtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCfg struct {
	cmp       *mcmp.Component
	logLevel  *string
	chunkSize *int
	framePath *string
	verbose   *bool
	timeout   *mtime.Duration
}

func newTestCfg() testCfg {
	cmp := new(mcmp.Component)
	fileCmp := cmp.Child("file")
	cameraCmp := cmp.Child("camera")
	return testCfg{
		cmp: cmp,
		logLevel: String(cmp, "log-level",
			ParamDefault("info"),
			ParamUsage("Maximum log level which will be printed")),
		chunkSize: Int(fileCmp, "chunk-size",
			ParamDefault(510),
			ParamUsage("Bytes read from a file per chunk")),
		framePath: String(cameraCmp, "frame-path", ParamRequired()),
		verbose:   Bool(cmp, "verbose"),
		timeout:   Duration(cameraCmp, "timeout", ParamDefault(mtime.Dur(time.Second))),
	}
}

func TestPopulateDefaults(t *T) {
	cfg := newTestCfg()
	err := Populate(cfg.cmp, nil)
	require.Error(t, err, "frame-path is required")
	assert.Contains(t, err.Error(), "camera-frame-path")

	assert.Equal(t, "info", *cfg.logLevel)
	assert.Equal(t, 510, *cfg.chunkSize)
	assert.Equal(t, time.Second, cfg.timeout.Duration)
	assert.False(t, *cfg.verbose)
}

func TestPopulateParamValues(t *T) {
	cfg := newTestCfg()
	err := Populate(cfg.cmp, ParamValues{
		{Path: []string{"camera"}, Name: "frame-path", Value: []byte(`"/dev/shm/frame.jpg"`)},
		{Path: []string{"file"}, Name: "chunk-size", Value: []byte(`3`)},
		{Path: []string{"file"}, Name: "chunk-size", Value: []byte(`6`)},
	})
	require.NoError(t, err)
	assert.Equal(t, "/dev/shm/frame.jpg", *cfg.framePath)
	assert.Equal(t, 6, *cfg.chunkSize)

	err = Populate(cfg.cmp, ParamValues{
		{Path: []string{"camera"}, Name: "frame-path", Value: []byte(`"x"`)},
		{Path: []string{"file"}, Name: "chunk-size", Value: []byte(`"six"`)},
	})
	assert.Error(t, err)
}

func TestAddParamDuplicate(t *T) {
	cmp := new(mcmp.Component)
	Int(cmp, "foo")
	assert.Panics(t, func() { String(cmp, "FOO") })
	assert.Panics(t, func() { Int(cmp, "bar", ParamDefault("not an int")) })
}

func TestCollectParamsSorted(t *T) {
	cfg := newTestCfg()
	var names []string
	for _, p := range CollectParams(cfg.cmp) {
		names = append(names, p.fullName())
	}
	assert.Equal(t, []string{
		"camera-frame-path",
		"camera-timeout",
		"file-chunk-size",
		"log-level",
		"verbose",
	}, names)
}

func TestSourceCLI(t *T) {
	cfg := newTestCfg()
	err := Populate(cfg.cmp, &SourceCLI{Args: []string{
		"--camera-frame-path", "/tmp/f.jpg",
		"--file-chunk-size=48",
		"--verbose",
		"--camera-timeout=250ms",
		"--log-level", "debug",
	}})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/f.jpg", *cfg.framePath)
	assert.Equal(t, 48, *cfg.chunkSize)
	assert.True(t, *cfg.verbose)
	assert.Equal(t, 250*time.Millisecond, cfg.timeout.Duration)
	assert.Equal(t, "debug", *cfg.logLevel)

	cfg = newTestCfg()
	err = Populate(cfg.cmp, &SourceCLI{Args: []string{"--nope"}})
	assert.Error(t, err)

	cfg = newTestCfg()
	err = Populate(cfg.cmp, &SourceCLI{Args: []string{"--camera-frame-path"}})
	assert.Error(t, err)
}

func TestSourceCLIHelp(t *T) {
	cmp := new(mcmp.Component)
	Int(cmp, "foo", ParamDefault(5), ParamUsage("Test int param  ")) // trailing space should be trimmed
	Bool(cmp, "bar", ParamUsage("Test bool param."))
	String(cmp, "baz", ParamDefault("baz"), ParamUsage("Test string param"))
	String(cmp, "baz2", ParamRequired())

	buf := new(bytes.Buffer)
	var exitCode int
	src := &SourceCLI{
		Args:       []string{"-h"},
		HelpWriter: buf,
		exit:       func(c int) { exitCode = c },
	}
	_, err := src.Parse(CollectParams(cmp))
	require.NoError(t, err)
	assert.Equal(t, 1, exitCode)

	exp := `
--baz2 (Required)

--bar (Flag)
	Test bool param.

--baz (Default: "baz")
	Test string param.

--foo (Default: 5)
	Test int param.

`
	assert.Equal(t, exp, buf.String())
}

func TestSourceEnv(t *T) {
	cfg := newTestCfg()
	err := Populate(cfg.cmp, &SourceEnv{
		Prefix: "k10",
		Env: []string{
			"K10_CAMERA_FRAME_PATH=/tmp/f.jpg",
			"K10_FILE_CHUNK_SIZE=3",
			"K10_VERBOSE=1",
			"FILE_CHUNK_SIZE=99", // no prefix, ignored
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/f.jpg", *cfg.framePath)
	assert.Equal(t, 3, *cfg.chunkSize)
	assert.True(t, *cfg.verbose)

	err = Populate(newTestCfg().cmp, &SourceEnv{Env: []string{"MALFORMED"}})
	assert.Error(t, err)
}

func TestSourceYAML(t *T) {
	body := []byte(`
log-level: warn
verbose: true
camera:
  frame-path: /tmp/f.jpg
  timeout: 2
file:
  chunk-size: 96
unknown:
  key: ignored
`)
	cfg := newTestCfg()
	require.NoError(t, Populate(cfg.cmp, &SourceYAML{Body: body}))
	assert.Equal(t, "warn", *cfg.logLevel)
	assert.True(t, *cfg.verbose)
	assert.Equal(t, "/tmp/f.jpg", *cfg.framePath)
	assert.Equal(t, 2*time.Second, cfg.timeout.Duration)
	assert.Equal(t, 96, *cfg.chunkSize)

	path := filepath.Join(t.TempDir(), "k10b64.yaml")
	require.NoError(t, os.WriteFile(path, body, 0644))
	cfg = newTestCfg()
	require.NoError(t, Populate(cfg.cmp, &SourceYAML{Path: path}))
	assert.Equal(t, 96, *cfg.chunkSize)

	missing := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := (&SourceYAML{Path: missing, Optional: true}).Parse(nil)
	assert.NoError(t, err)
	_, err = (&SourceYAML{Path: missing}).Parse(nil)
	assert.Error(t, err)
}

func TestSourcesPrecedence(t *T) {
	cfg := newTestCfg()
	err := Populate(cfg.cmp, Sources{
		&SourceYAML{Body: []byte("camera:\n  frame-path: from-yaml\nlog-level: warn\n")},
		&SourceEnv{Env: []string{"CAMERA_FRAME_PATH=from-env"}},
		&SourceCLI{Args: []string{"--log-level=error"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "from-env", *cfg.framePath)
	assert.Equal(t, "error", *cfg.logLevel)
}
