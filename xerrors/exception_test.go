package xerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHasNoCause(t *testing.T) {
	e := New("boom")
	require.Nil(t, e.Cause())
	assert.Equal(t, "boom", e.Error())
	assert.Equal(t, 1, e.ExceptionCount())
}

func TestTraceChainsException(t *testing.T) {
	root := New("root cause")
	wrapped := Trace("operation failed", root)

	require.NotNil(t, wrapped.Cause())
	assert.Same(t, root, wrapped.Cause())
	assert.Equal(t, 2, wrapped.ExceptionCount())
	assert.Same(t, root, wrapped.FirstException())
}

func TestTraceWrapsPlainError(t *testing.T) {
	plain := errors.New("disk full")
	wrapped := Trace("write failed", plain)

	require.NotNil(t, wrapped.Cause())
	assert.Equal(t, "disk full", wrapped.Cause().Error())
	assert.Contains(t, wrapped.Cause().Details(), "wrapped *errors.errorString")
}

func TestTraceWithNilPrevIsRoot(t *testing.T) {
	e := Trace("standalone", nil)
	assert.Nil(t, e.Cause())
}

func TestDetailsAndParametersAreOrdered(t *testing.T) {
	e := New("bad input").AddDetail("first").AddDetail("second").
		AddParameter("key", "123").AddParameter("status", "400")

	assert.Equal(t, []string{"first", "second"}, e.Details())
	assert.Equal(t, "123", mustParam(t, e, "key"))
	assert.Equal(t, "400", mustParam(t, e, "status"))
}

func mustParam(t *testing.T, e *Exception, name string) string {
	t.Helper()
	v, ok := e.ParameterValue(name)
	require.True(t, ok)
	return v
}

func TestRenderDeepestFirstAndNewestFirst(t *testing.T) {
	root := New("root")
	mid := Trace("mid", root)
	top := Trace("top", mid)

	deepest := top.Render(DeepestFirst)
	newest := top.Render(NewestFirst)

	assert.True(t, indexOf(deepest, "root") < indexOf(deepest, "top"))
	assert.True(t, indexOf(newest, "top") < indexOf(newest, "root"))
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func TestDisableLoggingSuppressesRender(t *testing.T) {
	e := New("silent").DisableLogging()
	assert.Empty(t, e.Render(DeepestFirst))
	assert.Empty(t, e.RenderHTML(DeepestFirst))
}

func TestDisableStackTraceOmitsLocationWithoutExtras(t *testing.T) {
	e := New("short").DisableStackTrace()
	rendered := e.Render(DeepestFirst)
	assert.NotContains(t, rendered, "at ")

	e2 := New("short with detail").DisableStackTrace().AddDetail("x")
	rendered2 := e2.Render(DeepestFirst)
	assert.Contains(t, rendered2, "at ")
}

func TestDisableStackTraceRecursive(t *testing.T) {
	root := New("root")
	top := Trace("top", root)
	top.DisableStackTraceRecursive()

	assert.True(t, top.StackTraceDisabled())
	assert.True(t, top.Cause().StackTraceDisabled())
}

func TestErrorsIsWalksExceptionChain(t *testing.T) {
	err := Trace("pool acquire", ErrPoolTimeout)
	assert.True(t, errors.Is(err, ErrPoolTimeout))
}

func TestAsExtractsException(t *testing.T) {
	var err error = Trace("wrapped", nil)
	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "wrapped", e.Error())
}
