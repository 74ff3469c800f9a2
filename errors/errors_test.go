package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineAndFormatting(t *testing.T) {
	err := New("an error")
	wrapErr := Wrap(err, "another error")
	assert.Equal(t, `an error`, fmt.Sprintf("%s", err))
	assert.Equal(t, `"an error"`, fmt.Sprintf("%q", err))
	assert.Equal(t, `errors/errors_test.go:11: an error`, fmt.Sprintf("%+v", err))
	assert.Equal(t, `another error: an error`, fmt.Sprintf("%s", wrapErr))
	assert.Equal(t, `errors/errors_test.go:12: another error: errors/errors_test.go:11: an error`, fmt.Sprintf("%+v", wrapErr))
}

func TestKindsMatchThroughWrap(t *testing.T) {
	err := Wrap(ErrShardUnregistered, "gcc-bootstrap-v10.2.0.x86_64-linux-musl")
	assert.True(t, Is(err, ErrShardUnregistered))
	assert.False(t, Is(err, ErrMountFailed))
}

func TestExitCode(t *testing.T) {
	err := ExitCode(New("boom"), 3)
	var we *WithExitCode
	assert.True(t, As(err, &we))
	assert.Equal(t, 3, we.ExitCode())
}
