package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	e := New(CategoryConfig, SeverityError, "bad listen address")
	assert.Equal(t, "config (error): bad listen address", e.Error())

	cause := stderrors.New("connect refused")
	w := Wrap(cause, CategoryTransport, SeverityWarning, "publish failed")
	assert.Equal(t, "transport (warning): publish failed: connect refused", w.Error())
	assert.ErrorIs(t, w, cause)
}

func TestCategoryHelpers(t *testing.T) {
	e := WrapError(stderrors.New("x"), CategoryStore, "insert failed")
	assert.True(t, IsCategory(e, CategoryStore))
	assert.False(t, IsCategory(e, CategoryAgent))
	assert.Equal(t, CategoryStore, GetCategory(e))
	assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
}

func TestWithContext(t *testing.T) {
	e := New(CategoryAgent, SeverityWarning, "sink rejected record").
		WithContext("sink", "nats").
		WithContext("subject", "probekit.logs")
	assert.Equal(t, "nats", e.Context["sink"])
	assert.Len(t, e.Context, 2)
}
