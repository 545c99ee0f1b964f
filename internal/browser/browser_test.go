package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/talentcheck/internal/common"
)

func TestAllocatorOptions(t *testing.T) {
	base := len(AllocatorOptions(common.BrowserConfig{WindowWidth: 1280, WindowHeight: 720}))

	withExtras := AllocatorOptions(common.BrowserConfig{
		WindowWidth:  1280,
		WindowHeight: 720,
		ExecPath:     "/usr/bin/chromium",
		UserAgent:    "talentcheck",
	})
	assert.Len(t, withExtras, base+2)
}

func TestTargetBind_InheritsDeadline(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	defer cancelParent()
	tgt := &Target{ctx: parent, logger: common.NopLogger("Browser")}

	caller, cancelCaller := context.WithCancel(context.Background())
	runCtx, release := tgt.bind(caller)
	defer release()

	cancelCaller()
	<-runCtx.Done()
	assert.ErrorIs(t, runCtx.Err(), context.Canceled)
	assert.NoError(t, parent.Err(), "cancelling a run must not close the target")
}
