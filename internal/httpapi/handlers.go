package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/roach88/workint/internal/notify"
	"github.com/roach88/workint/internal/provider"
	"github.com/roach88/workint/internal/queryir"
	"github.com/roach88/workint/internal/resource"
	"github.com/roach88/workint/internal/schema"
)

const maxBodySize = 64 << 10 // 64KB

// changeBuffer is the number of change events held for a slow SSE client.
const changeBuffer = 64

// taskPath rebuilds the provider address of the request.
func taskPath(c *gin.Context) string {
	if id := c.Param("id"); id != "" {
		return resource.CollectionPath + "/" + id
	}
	return resource.CollectionPath
}

// selectionFromQuery builds a selection from the filter query params.
func selectionFromQuery(c *gin.Context) (queryir.Selection, error) {
	f, err := provider.ParseFilter(map[string]string{
		provider.ParamCategory:      c.Query(provider.ParamCategory),
		provider.ParamStartedAfter:  c.Query(provider.ParamStartedAfter),
		provider.ParamStartedBefore: c.Query(provider.ParamStartedBefore),
	})
	if err != nil {
		return queryir.Selection{}, err
	}
	return f.Selection(), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *Server) handleList(c *gin.Context) {
	sel, err := selectionFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	order, err := queryir.ParseSort(c.Query("sort"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	cur, err := s.provider.Query(c.Request.Context(), taskPath(c), provider.QueryArgs{
		Projection: splitList(c.Query("projection")),
		Selection:  sel,
		Order:      order,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer cur.Close()

	columns := cur.Columns()
	rows := make([]map[string]any, 0)
	for cur.Next() {
		task, err := cur.Task()
		if err != nil {
			s.writeError(c, fmt.Errorf("%w: %w", provider.ErrPersistenceFailure, err))
			return
		}
		rows = append(rows, task.Fields(columns))
	}
	if err := cur.Err(); err != nil {
		s.writeError(c, fmt.Errorf("%w: %w", provider.ErrPersistenceFailure, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"columns": columns,
		"tasks":   rows,
		"count":   len(rows),
	})
}

// acceptEntry is one media range of an Accept header.
type acceptEntry struct {
	mediaType string
	params    map[string]string
	q         float64
}

// parseAccept splits an Accept header into media ranges ordered by
// q-value, highest first; equal q-values keep header order. Ranges with
// q=0 and unparsable ranges are dropped.
func parseAccept(header string) []acceptEntry {
	var entries []acceptEntry
	for _, part := range strings.Split(header, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		q := 1.0
		if raw, ok := params["q"]; ok {
			if q, err = strconv.ParseFloat(raw, 64); err != nil {
				continue
			}
			delete(params, "q")
		}
		if q <= 0 {
			continue
		}
		entries = append(entries, acceptEntry{mediaType: mediaType, params: params, q: q})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].q > entries[j].q })
	return entries
}

// wantsText picks the export filter for an Accept header. It returns the
// most preferred text range that text/plain satisfies. When the client
// only names text types that cannot be served, the first of them is
// returned so the export answers 406. A preferred */* or JSON range means
// the JSON representation.
func wantsText(accept string) (string, bool) {
	var firstText string
	for _, e := range parseAccept(accept) {
		switch {
		case e.mediaType == "*/*", e.mediaType == "application/json":
			return "", false
		case resource.MatchMIMEType(resource.MIMETextPlain, e.mediaType):
			return mime.FormatMediaType(e.mediaType, e.params), true
		case firstText == "" && strings.HasPrefix(e.mediaType, "text/"):
			firstText = mime.FormatMediaType(e.mediaType, e.params)
		}
	}
	return firstText, firstText != ""
}

func (s *Server) handleGet(c *gin.Context) {
	if filter, ok := wantsText(c.GetHeader("Accept")); ok {
		s.streamTask(c, filter)
		return
	}

	task, err := s.provider.Get(c.Request.Context(), taskPath(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// streamTask writes the text export of a task. The length is unknown up
// front, so the response is chunked.
func (s *Server) streamTask(c *gin.Context, filter string) {
	stream, err := s.provider.OpenTypedStream(c.Request.Context(), taskPath(c), filter)
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer stream.Close()

	c.DataFromReader(http.StatusOK, stream.Length, stream.MIMEType, stream, nil)
}

func (s *Server) handleCreate(c *gin.Context) {
	values, ok := s.bindValues(c)
	if !ok {
		return
	}

	addr, err := s.provider.Insert(c.Request.Context(), taskPath(c), values)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header("Location", addr.Path())
	c.JSON(http.StatusCreated, gin.H{
		"id":   addr.ID,
		"path": addr.Path(),
		"uri":  s.provider.Router().ContentURI(addr),
	})
}

func (s *Server) handleUpdate(c *gin.Context) {
	values, ok := s.bindValues(c)
	if !ok {
		return
	}
	sel, err := selectionFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	n, err := s.provider.Update(c.Request.Context(), taskPath(c), values, sel)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (s *Server) handleDelete(c *gin.Context) {
	sel, err := selectionFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	n, err := s.provider.Delete(c.Request.Context(), taskPath(c), sel)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// bindValues decodes the JSON body into Values. On failure the request is
// aborted and false returned.
func (s *Server) bindValues(c *gin.Context) (schema.Values, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)

	var values schema.Values
	if err := c.ShouldBindJSON(&values); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("request body required")
		}
		if errors.Is(err, schema.ErrUnknownColumn) || errors.Is(err, schema.ErrInvalidValue) {
			s.writeError(c, err)
		} else {
			s.badRequest(c, provider.CodeInvalidValue, err)
		}
		return schema.Values{}, false
	}
	return values, true
}

// handleChanges streams change events for an address (query param path,
// default /tasks) as server-sent events. The first event, "subscribed",
// carries the subscription id.
func (s *Server) handleChanges(c *gin.Context) {
	address := c.DefaultQuery("path", resource.CollectionPath)
	ctx := c.Request.Context()
	changes := make(chan notify.Change, changeBuffer)
	sub, err := s.provider.Register(address, notify.ObserverFunc(func(ch notify.Change) {
		select {
		case changes <- ch:
		case <-ctx.Done():
		}
	}))
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer sub.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("subscribed", gin.H{"id": sub.ID(), "path": sub.Address()})
	c.Writer.Flush()

	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ch := <-changes:
			c.SSEvent("change", ch)
			return true
		}
	})
}
