package activitymap

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	auth "github.com/goliatone/go-authgate"
)

// NewWriterSink returns an ActivitySink appending one JSON record per line to
// w. Concurrent Record calls never interleave lines.
func NewWriterSink(w io.Writer, opts ...Option) auth.ActivitySink {
	var (
		mu     sync.Mutex
		mapper = NewMapper(opts...)
		enc    = json.NewEncoder(w)
	)
	return auth.ActivitySinkFunc(func(_ context.Context, event auth.ActivityEvent) error {
		record := mapper.Map(event)

		mu.Lock()
		defer mu.Unlock()
		return enc.Encode(record)
	})
}
