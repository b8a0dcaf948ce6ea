package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strconv"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/workint/internal/resource"
	"github.com/roach88/workint/internal/schema"
	"github.com/roach88/workint/internal/store"
)

// UnknownLength is the Length of a stream whose size is not known up front.
const UnknownLength = -1

// exportProjection is the fixed column set read for a text export.
var exportProjection = []string{schema.ColID, schema.ColCategory, schema.ColStarted}

// Stream is an open export of one task.
//
// Read it to the end and Close it. Closing early is allowed and stops the
// producer.
type Stream struct {
	io.ReadCloser

	// MIMEType is the media type of the content, with its charset.
	MIMEType string

	// Length is the content length in bytes, or UnknownLength.
	Length int64
}

// StreamTypes returns the export MIME types of path that match filter.
// Collections have none.
func (p *Provider) StreamTypes(path, filter string) ([]string, error) {
	return p.router.StreamTypes(path, filter)
}

// OpenTypedStream exports the task at an item address as text.
//
// The content is three lines: the category, an empty line, and the start
// time in epoch milliseconds. A charset parameter in filter selects the
// output encoding; UTF-8 otherwise.
//
// The stream is returned before any content is produced: a producer
// goroutine renders the row and writes it into a pipe, so a slow reader
// paces the producer. The producer stops when the reader closes the
// stream or ctx is done.
func (p *Provider) OpenTypedStream(ctx context.Context, path, filter string) (*Stream, error) {
	types, err := p.router.StreamTypes(path, filter)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("open stream %s: %w: %q", path, ErrUnsupportedStreamType, filter)
	}

	cur, err := p.Query(ctx, path, QueryArgs{Projection: exportProjection})
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if !cur.Next() {
		err := cur.Err()
		cur.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: open stream %s: %w", ErrPersistenceFailure, path, err)
		}
		return nil, fmt.Errorf("open stream %s: %w", path, ErrResourceNotFound)
	}

	charset := resource.Charset(filter)
	pr, pw := io.Pipe()

	go p.produce(ctx, cur, pw, cur.NotificationAddress(), charset)

	return &Stream{
		ReadCloser: pr,
		MIMEType:   streamMIMEType(types[0], charset),
		Length:     UnknownLength,
	}, nil
}

// produce renders the cursor's current row into pw.
// It closes the cursor and the pipe on every path.
func (p *Provider) produce(ctx context.Context, cur *store.Cursor, pw *io.PipeWriter, path, charset string) {
	defer cur.Close()

	stop := context.AfterFunc(ctx, func() {
		pw.CloseWithError(ctx.Err())
	})
	defer stop()

	task, err := cur.Task()
	// The row is in memory; release the read connection before writing
	// into a pipe that may block on the reader.
	cur.Close()
	if err != nil {
		p.logger.Error("export read failed", "path", path, "error", err)
		pw.CloseWithError(fmt.Errorf("%w: %w", ErrPersistenceFailure, err))
		return
	}

	enc, err := encoderFor(charset)
	if err != nil {
		p.failExport(pw, path, err)
		return
	}

	for _, line := range renderTask(task) {
		data, err := encodeLine(enc, line)
		if err != nil {
			p.failExport(pw, path, err)
			return
		}
		if _, err := pw.Write(data); err != nil {
			if errors.Is(err, io.ErrClosedPipe) {
				p.logger.Debug("export reader closed early", "path", path)
			} else {
				p.logger.Debug("export stopped", "path", path, "error", err)
			}
			pw.Close()
			return
		}
	}

	pw.Close()
}

// failExport ends a stream after an encoding failure. Lines already written
// stay written.
func (p *Provider) failExport(pw *io.PipeWriter, path string, err error) {
	p.logger.Error("export encoding failed", "path", path, "error", err)
	if p.strictExport {
		pw.CloseWithError(err)
		return
	}
	pw.Close()
}

// renderTask returns the export lines of a task.
func renderTask(t schema.Task) []string {
	return []string{
		t.Category,
		"",
		strconv.FormatInt(t.Started, 10),
	}
}

// encoderFor resolves a charset label. The empty label is UTF-8, for which
// nil is returned.
func encoderFor(charset string) (*encoding.Encoder, error) {
	if charset == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", charset, err)
	}
	return enc.NewEncoder(), nil
}

func encodeLine(enc *encoding.Encoder, line string) ([]byte, error) {
	text := norm.NFC.String(line) + "\n"
	if enc == nil {
		return []byte(text), nil
	}
	out, err := enc.String(text)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", line, err)
	}
	return []byte(out), nil
}

func streamMIMEType(mediaType, charset string) string {
	if charset == "" {
		charset = "utf-8"
	}
	return mime.FormatMediaType(mediaType, map[string]string{"charset": charset})
}
