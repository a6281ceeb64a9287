// Package clienttest provides an in-memory indexer for tests.
package clienttest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/manifest-network/metaharvest/internal/client"
	"github.com/manifest-network/metaharvest/internal/models"
)

// Fake serves canned JSON per path. Unknown paths answer 404.
// A string response is treated as raw JSON.
type Fake struct {
	mu        sync.Mutex
	responses map[string]any
	errors    map[string]error
	calls     []string
}

func NewFake() *Fake {
	return &Fake{
		responses: make(map[string]any),
		errors:    make(map[string]error),
	}
}

// Set registers the response for path.
func (f *Fake) Set(path string, v any) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[path] = v
	return f
}

// Fail makes path return err.
func (f *Fake) Fail(path string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[path] = err
	return f
}

// Clear removes a failure registered with Fail.
func (f *Fake) Clear(path string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.errors, path)
	return f
}

// Calls returns the requested paths in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CountPrefix counts requests whose path starts with prefix.
func (f *Fake) CountPrefix(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *Fake) FetchJSON(_ context.Context, _ models.Network, path string, out any) error {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	err, failed := f.errors[path]
	v, ok := f.responses[path]
	f.mu.Unlock()

	if failed {
		return err
	}
	if !ok {
		return &client.UpstreamError{Path: path, StatusCode: http.StatusNotFound, Body: "Not Found"}
	}

	var raw []byte
	if s, isString := v.(string); isString {
		raw = []byte(s)
	} else if raw, err = json.Marshal(v); err != nil {
		return fmt.Errorf("fake: marshal %s: %w", path, err)
	}
	return json.Unmarshal(raw, out)
}

// Source binds the fake to a network.
func (f *Fake) Source() client.Source {
	return client.Source{Fetcher: f, Network: models.Preview}
}

// BlockHash is the hash the synthetic chain gives height h.
func BlockHash(h int64) string { return fmt.Sprintf("blk%d", h) }

// NewChain registers a synthetic chain of heights 1..tip. Blocks are reachable
// by height and by hash; transaction lists too. txsOf may be nil.
func NewChain(tip int64, timeOf func(h int64) int64, txsOf func(h int64) []string) *Fake {
	f := NewFake()
	for h := int64(1); h <= tip; h++ {
		block := models.Block{Height: h, Hash: BlockHash(h), Time: timeOf(h)}
		if h > 1 {
			prev := BlockHash(h - 1)
			block.PreviousBlock = &prev
		}
		txs := []string{}
		if txsOf != nil {
			if got := txsOf(h); got != nil {
				txs = got
			}
		}
		f.Set(fmt.Sprintf("/blocks/%d", h), block)
		f.Set("/blocks/"+block.Hash, block)
		f.Set(fmt.Sprintf("/blocks/%d/txs", h), txs)
		f.Set("/blocks/"+block.Hash+"/txs", txs)
		if h == tip {
			f.Set("/blocks/latest", block)
		}
	}
	return f
}
