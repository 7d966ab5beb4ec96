package format

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID int
}

type labeled struct {
	Name string
}

func (l *labeled) String() string { return "labeled:" + l.Name }

type echoType struct{}

func (*echoType) String() string {
	return "*git.home.luguber.info/inful/probekit/internal/format.echoType"
}

func TestValueNil(t *testing.T) {
	assert.Equal(t, "null", Value(nil, false))
	assert.Equal(t, "null", Value(nil, true))
	var p *widget
	assert.Equal(t, "null", Value(p, true))
}

func TestValueStringPassthrough(t *testing.T) {
	assert.Equal(t, `say "hi"`, Value(`say "hi"`, false))
}

func TestValueValueKinds(t *testing.T) {
	assert.Equal(t, "42", Value(42, false))
	assert.Equal(t, "true", Value(true, false))
	assert.Equal(t, "{7}", Value(widget{ID: 7}, false))
}

func TestValueSummaryFallback(t *testing.T) {
	w := &widget{ID: 1}
	want := fmt.Sprintf("%s@%x", TypeFullName(w), IdentityHash(w))
	assert.Equal(t, want, Value(w, false))
}

func TestValueDetailedStringer(t *testing.T) {
	l := &labeled{Name: "spinner"}
	assert.Equal(t, "labeled:spinner", Value(l, true))

	// Summary mode never invokes the conversion.
	want := fmt.Sprintf("%s@%x", TypeFullName(l), IdentityHash(l))
	assert.Equal(t, want, Value(l, false))
}

func TestValueDetailedWithoutStringerFallsBack(t *testing.T) {
	w := &widget{ID: 2}
	want := fmt.Sprintf("%s@%x", TypeFullName(w), IdentityHash(w))
	assert.Equal(t, want, Value(w, true))
}

func TestValueStringerEchoingTypeNameFallsBack(t *testing.T) {
	e := &echoType{}
	require.Equal(t, TypeFullName(e), e.String())
	want := fmt.Sprintf("%s@%x", TypeFullName(e), IdentityHash(e))
	assert.Equal(t, want, Value(e, true))
}

func TestParams(t *testing.T) {
	got := Params([]string{"count", "label"}, []any{3, "abc"}, false)
	assert.Equal(t, "count=3, label=abc", got)
}

func TestParamsPositionalNames(t *testing.T) {
	got := Params(nil, []any{1, true}, false)
	assert.Equal(t, "arg0=1, arg1=true", got)
}

func TestParamsEmpty(t *testing.T) {
	assert.Equal(t, "", Params(nil, nil, true))
}

func TestQuoteCaption(t *testing.T) {
	assert.Equal(t, `"plain"`, QuoteCaption("plain"))
	assert.Equal(t, `"say \"hi\""`, QuoteCaption(`say "hi"`))
}

func TestIdentityHashStablePerInstance(t *testing.T) {
	a := &widget{ID: 1}
	b := &widget{ID: 1}
	assert.Equal(t, IdentityHash(a), IdentityHash(a))
	assert.NotEqual(t, IdentityHash(a), IdentityHash(b))
}

func TestTypeFullName(t *testing.T) {
	assert.Equal(t,
		"*git.home.luguber.info/inful/probekit/internal/format.widget",
		TypeFullName(&widget{}))
	assert.Equal(t, "int", TypeFullName(0))
}
