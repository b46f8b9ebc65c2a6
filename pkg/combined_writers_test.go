package pkg

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type failingWriter struct {
	err    error
	closed bool
}

func (f *failingWriter) Write([]byte) (int, error) {
	return 0, f.err
}

func (f *failingWriter) Close() error {
	f.closed = true
	return f.err
}

func TestCombinedWriter_Write(t *testing.T) {
	sb1 := &strings.Builder{}
	initMessage := "already-here"
	sb1.WriteString(initMessage)
	sb2 := &strings.Builder{}

	cw := NewCombinedWriter(sb1, sb2)
	require.NotNil(t, cw)
	assert.Len(t, cw.Writers, 2)

	msg1 := "a message"
	msg2 := "another message here"
	n, err := cw.Write([]byte(msg1))
	require.NoError(t, err)
	assert.Equal(t, len(msg1)*len(cw.Writers), n)
	n, err = cw.Write([]byte(msg2))
	require.NoError(t, err)
	assert.Equal(t, len(msg2)*len(cw.Writers), n)

	assert.Equal(t, initMessage+msg1+msg2, sb1.String())
	assert.Equal(t, msg1+msg2, sb2.String())
}

func TestCombinedWriter_WriteAndCloseErrors(t *testing.T) {
	sb := &strings.Builder{}
	fw1 := &failingWriter{err: errors.New("disk full")}
	fw2 := &failingWriter{err: errors.New("pipe closed")}

	cw := NewCombinedWriter(fw1, sb, fw2)
	n, err := cw.Write([]byte("log line"))
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, len("log line"), n)
	assert.Equal(t, "log line", sb.String())

	err = cw.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "pipe closed")
	assert.True(t, fw1.closed)
	assert.True(t, fw2.closed)
}
