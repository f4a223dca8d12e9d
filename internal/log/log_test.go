package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestOptionsFromFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flags)
	assert.NoError(t, flags.Parse([]string{"--debug", "--log-max-size", "5"}))
	opts := OptionsFromFlags(flags)
	assert.True(t, opts.Debug)
	assert.Equal(t, 5, opts.MaxSize)
	assert.Empty(t, opts.Path)
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mlviz.log")
	l := New(Options{Path: path, MaxSize: 1, Quiet: true})
	l.Info("hello", zap.Int("iteration", 3))
	assert.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"iteration":3`)
}

func TestQuietWithoutPath(t *testing.T) {
	l := New(Options{Quiet: true})
	assert.False(t, l.Core().Enabled(zap.ErrorLevel))
}

func TestReplace(t *testing.T) {
	nop := zap.NewNop()
	restore := Replace(nop)
	assert.Same(t, nop, Logger())
	restore()
	assert.NotSame(t, nop, Logger())
}
