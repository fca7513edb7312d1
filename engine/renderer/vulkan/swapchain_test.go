package vulkan

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/phase/engine/core"
	"github.com/spaghettifunk/phase/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rebuildSteps struct {
	calls     []string
	destroyed *SwapchainState
	waitErr   error
	next      *SwapchainState
	buildErr  error
}

func (r *rebuildSteps) run(old *SwapchainState) (*SwapchainState, error) {
	return replaceSwapchain(old,
		func() error {
			r.calls = append(r.calls, "wait")
			return r.waitErr
		},
		func(sc *SwapchainState) {
			r.destroyed = sc
			r.calls = append(r.calls, "destroy")
		},
		func() (*SwapchainState, error) {
			r.calls = append(r.calls, "build")
			return r.next, r.buildErr
		},
	)
}

func TestReplaceSwapchainKeepsOldStateWhenWaitFails(t *testing.T) {
	old := &SwapchainState{Extent: metadata.NewExtent(800, 600), ImageCount: 3}
	steps := &rebuildSteps{waitErr: core.MarkFatal(errors.New("vkDeviceWaitIdle: device lost"))}

	got, err := steps.run(old)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrFatalDevice))
	assert.Same(t, old, got, "the old swapchain must stay owned so shutdown can destroy it")
	assert.Equal(t, uint32(3), got.ImageCount)
	assert.Nil(t, steps.destroyed)
	assert.Equal(t, []string{"wait"}, steps.calls)
}

func TestReplaceSwapchainDestroysBeforeBuilding(t *testing.T) {
	old := &SwapchainState{Extent: metadata.NewExtent(800, 600), ImageCount: 3}
	next := &SwapchainState{Extent: metadata.NewExtent(1024, 768), ImageCount: 3}
	steps := &rebuildSteps{next: next}

	got, err := steps.run(old)
	require.NoError(t, err)
	assert.Same(t, next, got)
	assert.Same(t, old, steps.destroyed)
	assert.Equal(t, []string{"wait", "destroy", "build"}, steps.calls)
}

func TestReplaceSwapchainBuildFailureLeavesEmptyState(t *testing.T) {
	old := &SwapchainState{Extent: metadata.NewExtent(800, 600), ImageCount: 3}
	steps := &rebuildSteps{buildErr: errors.Mark(errors.New("vkCreateSwapchainKHR failed"), core.ErrSwapchain)}

	got, err := steps.run(old)
	require.Error(t, err)
	require.NotNil(t, got)
	assert.NotSame(t, old, got)
	assert.Zero(t, got.ImageCount)
	assert.Equal(t, []string{"wait", "destroy", "build"}, steps.calls)
}
