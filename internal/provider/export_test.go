package provider

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/workint/internal/resource"
	"github.com/roach88/workint/internal/testutil"
)

func readStream(t *testing.T, s *Stream) ([]byte, error) {
	t.Helper()
	defer s.Close()
	return io.ReadAll(s)
}

func TestOpenTypedStream_ExportsThreeLines(t *testing.T) {
	p, _ := newTestProvider(t)
	path := mustInsert(t, p, "work", 100)

	s, err := p.OpenTypedStream(context.Background(), path, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", s.MIMEType)
	assert.Equal(t, int64(UnknownLength), s.Length)

	got, err := readStream(t, s)
	require.NoError(t, err)
	testutil.AssertGolden(t, "export_work", got)
}

func TestOpenTypedStream_WildcardFilters(t *testing.T) {
	p, _ := newTestProvider(t)
	path := mustInsert(t, p, "meeting", 7)

	for _, filter := range []string{"*/*", "text/*", "text/plain; charset=utf-8"} {
		t.Run(filter, func(t *testing.T) {
			s, err := p.OpenTypedStream(context.Background(), path, filter)
			require.NoError(t, err)
			got, err := readStream(t, s)
			require.NoError(t, err)
			assert.Equal(t, "meeting\n\n7\n", string(got))
		})
	}
}

func TestOpenTypedStream_Charset(t *testing.T) {
	p, _ := newTestProvider(t)
	path := mustInsert(t, p, "caf\u00e9", 1)

	s, err := p.OpenTypedStream(context.Background(), path, "text/plain; charset=iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=iso-8859-1", s.MIMEType)

	got, err := readStream(t, s)
	require.NoError(t, err)
	assert.Equal(t, []byte("caf\xe9\n\n1\n"), got)
}

func TestOpenTypedStream_NormalizesToNFC(t *testing.T) {
	p, _ := newTestProvider(t)
	path := mustInsert(t, p, "cafe\u0301", 1)

	s, err := p.OpenTypedStream(context.Background(), path, "text/plain")
	require.NoError(t, err)

	got, err := readStream(t, s)
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9\n\n1\n", string(got))
}

func TestOpenTypedStream_EncodingFailureEndsStreamQuietly(t *testing.T) {
	p, _ := newTestProvider(t)
	path := mustInsert(t, p, "работа", 1)

	s, err := p.OpenTypedStream(context.Background(), path, "text/plain; charset=iso-8859-1")
	require.NoError(t, err)

	got, err := readStream(t, s)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenTypedStream_EncodingFailureStrict(t *testing.T) {
	p, _ := newTestProvider(t, WithStrictExport(true))
	path := mustInsert(t, p, "работа", 1)

	s, err := p.OpenTypedStream(context.Background(), path, "text/plain; charset=iso-8859-1")
	require.NoError(t, err)

	_, err = readStream(t, s)
	assert.Error(t, err)
}

func TestOpenTypedStream_UnknownCharset(t *testing.T) {
	tests := []struct {
		name   string
		strict bool
	}{
		{"lenient", false},
		{"strict", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestProvider(t, WithStrictExport(tt.strict))
			path := mustInsert(t, p, "work", 1)

			s, err := p.OpenTypedStream(context.Background(), path, "text/plain; charset=x-no-such-charset")
			require.NoError(t, err)

			got, err := readStream(t, s)
			assert.Empty(t, got)
			if tt.strict {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOpenTypedStream_MissingTask(t *testing.T) {
	p, _ := newTestProvider(t)

	s, err := p.OpenTypedStream(context.Background(), "/tasks/404", "text/plain")
	assert.ErrorIs(t, err, ErrResourceNotFound)
	assert.Nil(t, s)
}

func TestOpenTypedStream_UnsupportedType(t *testing.T) {
	p, _ := newTestProvider(t)
	path := mustInsert(t, p, "work", 1)

	_, err := p.OpenTypedStream(context.Background(), path, "application/json")
	assert.ErrorIs(t, err, ErrUnsupportedStreamType)

	_, err = p.OpenTypedStream(context.Background(), "/tasks", "text/plain")
	assert.ErrorIs(t, err, ErrUnsupportedStreamType)

	_, err = p.OpenTypedStream(context.Background(), "/elsewhere", "text/plain")
	assert.ErrorIs(t, err, ErrInvalidResource)
}

func TestOpenTypedStream_EarlyReaderClose(t *testing.T) {
	p, _ := newTestProvider(t)
	path := mustInsert(t, p, "work", 1)

	s, err := p.OpenTypedStream(context.Background(), path, "text/plain")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// The producer released its read connection: the store stays usable
	// for as many reads as the pool has connections and more.
	for i := 0; i < 10; i++ {
		_, err := p.Get(context.Background(), path)
		require.NoError(t, err)
	}
}

func TestOpenTypedStream_ContextCancelStopsProducer(t *testing.T) {
	p, _ := newTestProvider(t)
	path := mustInsert(t, p, "work", 1)

	ctx, cancel := context.WithCancel(context.Background())
	s, err := p.OpenTypedStream(ctx, path, "text/plain")
	require.NoError(t, err)
	defer s.Close()

	cancel()

	done := make(chan struct{})
	go func() {
		io.ReadAll(s)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not end after cancel")
	}
}

func TestStreamTypes(t *testing.T) {
	p, _ := newTestProvider(t)

	types, err := p.StreamTypes("/tasks", "*/*")
	require.NoError(t, err)
	assert.Empty(t, types)

	types, err = p.StreamTypes("/tasks/1", "text/*")
	require.NoError(t, err)
	assert.Equal(t, []string{resource.MIMETextPlain}, types)

	types, err = p.StreamTypes("/tasks/1", "image/*")
	require.NoError(t, err)
	assert.Empty(t, types)

	_, err = p.StreamTypes("/x", "*/*")
	assert.ErrorIs(t, err, ErrInvalidResource)
}
