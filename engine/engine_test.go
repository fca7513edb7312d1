package engine

import (
	"io"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spaghettifunk/phase/engine/config"
	"github.com/spaghettifunk/phase/engine/core"
	"github.com/spaghettifunk/phase/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

// recordingBackend accepts every call and remembers the order.
type recordingBackend struct {
	extent   metadata.Extent
	calls    []string
	rebuilds []metadata.Extent
	drawErr  error
}

func (b *recordingBackend) Extent() metadata.Extent { return b.extent }

func (b *recordingBackend) RebuildSwapchain(requested metadata.Extent) error {
	b.calls = append(b.calls, "rebuild")
	b.rebuilds = append(b.rebuilds, requested)
	b.extent = requested
	return nil
}

func (b *recordingBackend) WaitForFrame() error {
	b.calls = append(b.calls, "wait")
	return nil
}

func (b *recordingBackend) UploadVertices([]metadata.Vertex) error {
	b.calls = append(b.calls, "upload")
	return nil
}

func (b *recordingBackend) AcquireNextImage() (uint32, error) {
	b.calls = append(b.calls, "acquire")
	return 0, nil
}

func (b *recordingBackend) RecordCommands(uint32) error {
	b.calls = append(b.calls, "record")
	return nil
}

func (b *recordingBackend) Submit() error {
	b.calls = append(b.calls, "submit")
	return b.drawErr
}

func (b *recordingBackend) Present(uint32) error {
	b.calls = append(b.calls, "present")
	return nil
}

func (b *recordingBackend) WaitIdle() error {
	b.calls = append(b.calls, "idle")
	return nil
}

func (b *recordingBackend) Shutdown() error {
	b.calls = append(b.calls, "shutdown")
	return nil
}

func TestEngineLifecycle(t *testing.T) {
	backend := &recordingBackend{extent: metadata.NewExtent(800, 600)}
	e := New(backend, 800, 600)

	assert.NotEqual(t, uuid.Nil, e.ID())
	assert.Equal(t, EngineStageRunning, e.Stage())

	require.NoError(t, e.Draw(0))
	assert.Equal(t, []string{"wait", "upload", "acquire", "record", "submit", "present"}, backend.calls)
	assert.Equal(t, uint64(1), e.Frames())

	backend.calls = nil
	require.NoError(t, e.Deinit())
	assert.Equal(t, []string{"idle", "shutdown"}, backend.calls)
	assert.Equal(t, EngineStageShutdown, e.Stage())

	backend.calls = nil
	require.NoError(t, e.Deinit(), "second deinit is a no-op")
	assert.Empty(t, backend.calls)
}

func TestEngineResizeCoalesces(t *testing.T) {
	backend := &recordingBackend{extent: metadata.NewExtent(800, 600)}
	e := New(backend, 800, 600)

	e.SignalResize(640, 480)
	e.SignalResize(1024, 768)
	e.SignalResize(400, 300)
	require.NoError(t, e.Draw(0.5))

	assert.Equal(t, []metadata.Extent{metadata.NewExtent(400, 300)}, backend.rebuilds)
	assert.Equal(t, "rebuild", backend.calls[0])
}

func TestEngineIgnoresResizeAfterDeinit(t *testing.T) {
	backend := &recordingBackend{extent: metadata.NewExtent(800, 600)}
	e := New(backend, 800, 600)
	require.NoError(t, e.Deinit())

	e.SignalResize(400, 300)
	assert.Empty(t, backend.rebuilds)
	assert.Error(t, e.Draw(0))
}

func TestEngineDrawErrorIsFatal(t *testing.T) {
	backend := &recordingBackend{
		extent:  metadata.NewExtent(800, 600),
		drawErr: errors.New("device lost"),
	}
	e := New(backend, 800, 600)

	err := e.Draw(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrFatalDevice))
}

func TestEngineIDsAreUnique(t *testing.T) {
	a := New(&recordingBackend{extent: metadata.NewExtent(1, 1)}, 1, 1)
	b := New(&recordingBackend{extent: metadata.NewExtent(1, 1)}, 1, 1)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestInitRejectsMissingShaders(t *testing.T) {
	cfg := config.Default()
	cfg.Renderer.ShaderDir = t.TempDir()

	// shaders are checked before the window is touched
	e, err := Init(nil, 800, 600, cfg)
	require.Error(t, err)
	assert.Nil(t, e)
	assert.True(t, errors.Is(err, core.ErrInit))
}
