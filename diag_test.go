package bibtex

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorHasErrors(t *testing.T) {
	var c Collector
	assert.False(t, c.HasErrors())
	c.Diagnose(Diagnostic{Severity: SeverityWarning, Message: "just a warning"})
	assert.False(t, c.HasErrors())
	c.Diagnose(Diagnostic{Severity: SeverityError, Message: "boom"})
	assert.True(t, c.HasErrors())
}

func TestCollectorErr(t *testing.T) {
	var c Collector
	assert.NoError(t, c.Err())

	c.Diagnose(Diagnostic{Severity: SeverityWarning, Message: "warn"})
	assert.NoError(t, c.Err())

	c.Diagnose(Diagnostic{Severity: SeverityError, Pos: Position{Line: 1, Column: 1}, Message: "bad"})
	err := c.Err()
	require.Error(t, err)
	var fatal *FatalError
	require.True(t, errors.As(err, &fatal))
	assert.Len(t, fatal.Diagnostics, 1)
}

func TestDiscardSinkDropsEverything(t *testing.T) {
	assert.NotPanics(t, func() {
		DiscardSink.Diagnose(Diagnostic{Severity: SeverityError, Message: "ignored"})
	})
}

func TestSinkFunc(t *testing.T) {
	var got []Diagnostic
	sink := SinkFunc(func(d Diagnostic) { got = append(got, d) })
	sink.Diagnose(Diagnostic{Message: "hello"})
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Message)
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Severity: SeverityWarning, Pos: Position{Line: 1, Column: 1}, Message: "only"}
	assert.Equal(t, "1:1: warning: only", d.String())
}

func TestFatalErrorMessage(t *testing.T) {
	one := &FatalError{Diagnostics: []error{Diagnostic{Severity: SeverityError, Message: "only"}}}
	assert.Contains(t, one.Error(), "only")

	many := &FatalError{Diagnostics: []error{
		Diagnostic{Severity: SeverityError, Message: "first"},
		Diagnostic{Severity: SeverityError, Message: "second"},
	}}
	assert.Contains(t, many.Error(), "2 errors")
	assert.Contains(t, many.Error(), "first")
	assert.Contains(t, many.Error(), "second")
}
