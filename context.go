// SPDX-License-Identifier: GPL-3.0-or-later

package feedpipe

import (
	"context"
	"fmt"
	"time"

	"github.com/nimbusdata/feedpipe/internal/codec"
	"github.com/nimbusdata/feedpipe/internal/codeclayer"
	"github.com/nimbusdata/feedpipe/internal/dispatcher"
	"github.com/nimbusdata/feedpipe/internal/errkind"
	"github.com/nimbusdata/feedpipe/internal/httplayer"
	"github.com/nimbusdata/feedpipe/internal/iolayer"
	"github.com/nimbusdata/feedpipe/internal/layer"
)

// Context owns one layer chain and its dispatcher (spec §3 "Context":
// "Owns one chain and its associated request/response state blocks.
// Holds protocol variant, API key, and feed identifier.").
//
// A Context runs at most one request to completion at a time; there is
// no pipelining of concurrent in-flight requests (spec §1 non-goal). Each
// request dials a fresh connection and tears it down on completion (spec
// §1 non-goal: no connection pooling or reuse across requests).
type Context struct {
	cfg      *Config
	protocol Protocol
	apiKey   string
	feedID   string

	io    *iolayer.IOLayer
	http  *httplayer.HTTPLayer
	codec *codeclayer.CodecLayer
	chain *layer.Chain

	disp *dispatcher.Dispatcher
}

// CreateContext builds a [*Context] bound to apiKey and feedID, wiring
// the three-layer chain and a fresh [*dispatcher.Dispatcher] per spec
// §6's create_context. cfg may be nil, in which case [NewConfig]'s
// defaults are used.
func CreateContext(cfg *Config, protocol Protocol, apiKey, feedID string) (*Context, error) {
	if protocol != ProtocolHTTP {
		return nil, ErrUnsupportedProtocol
	}
	if cfg == nil {
		cfg = NewConfig()
	}

	disp, err := dispatcher.New(cfg.logger())
	if err != nil {
		return nil, newError(errkind.Initialization, err)
	}
	disp.NetworkTimeout = cfg.NetworkTimeout

	ioLayer := iolayer.New(iolayer.Config{
		Dispatcher:    disp,
		Logger:        cfg.logger(),
		ErrClassifier: cfg.ErrClassifier,
		Resolver:      cfg.Resolver,
		TimeNow:       cfg.TimeNow,
	})
	httpLayer := httplayer.New(httplayer.Config{
		Host:           cfg.Host,
		APIKey:         apiKey,
		UserAgent:      cfg.UserAgent,
		StringValueMax: cfg.StringValueMax,
		Logger:         cfg.logger(),
		TimeNow:        cfg.TimeNow,
	})
	codecLayer := codeclayer.New(codeclayer.Config{
		StringValueMax: cfg.StringValueMax,
		Logger:         cfg.logger(),
	})

	chain := layer.NewChain(ioLayer, httpLayer, codecLayer)
	ioLayer.SetChain(chain)
	httpLayer.SetChain(chain)
	codecLayer.SetChain(chain)

	return &Context{
		cfg:      cfg,
		protocol: protocol,
		apiKey:   apiKey,
		feedID:   feedID,
		io:       ioLayer,
		http:     httpLayer,
		codec:    codecLayer,
		chain:    chain,
		disp:     disp,
	}, nil
}

// Close releases the context's dispatcher backend (spec §6
// delete_context). The context must not be used after Close.
func (c *Context) Close() error {
	return c.disp.Close()
}

// SetNetworkTimeout sets the dispatcher-enforced network timeout (spec
// §5 "Cancellation and timeouts", §9 open question resolved: the
// timeout is dispatcher-enforced).
func (c *Context) SetNetworkTimeout(d time.Duration) {
	c.cfg.NetworkTimeout = d
	c.disp.NetworkTimeout = d
}

// NetworkTimeout returns the current dispatcher-enforced network timeout.
func (c *Context) NetworkTimeout() time.Duration {
	return c.cfg.NetworkTimeout
}

// FeedGet implements spec §6's feed_get.
func (c *Context) FeedGet(ctx context.Context) (*Response, error) {
	return c.run(ctx, httplayer.Request{Op: httplayer.OpFeedGet, FeedID: c.feedID})
}

// FeedUpdate implements spec §6's feed_update: body carries one or more
// datapoints across any number of the feed's datastreams.
func (c *Context) FeedUpdate(ctx context.Context, body []Datapoint) (*Response, error) {
	return c.run(ctx, httplayer.Request{
		Op:         httplayer.OpFeedUpdate,
		FeedID:     c.feedID,
		Datapoints: toRecords(body),
	})
}

// DatastreamGet implements spec §6's datastream_get. The returned
// Datapoint mirrors the C API's "out datapoint" parameter: it is the
// first decoded record of the response, or nil if the body was empty.
func (c *Context) DatastreamGet(ctx context.Context, datastreamID string) (*Response, *Datapoint, error) {
	resp, err := c.run(ctx, httplayer.Request{
		Op: httplayer.OpDatastreamGet, FeedID: c.feedID, DatastreamID: datastreamID,
	})
	if err != nil {
		return nil, nil, err
	}
	var dp *Datapoint
	if len(resp.Datapoints) > 0 {
		first := resp.Datapoints[0]
		dp = &first
	}
	return resp, dp, nil
}

// DatastreamCreate implements spec §6's datastream_create.
func (c *Context) DatastreamCreate(ctx context.Context, datastreamID string, dp Datapoint) (*Response, error) {
	return c.run(ctx, httplayer.Request{
		Op: httplayer.OpDatastreamCreate, FeedID: c.feedID, DatastreamID: datastreamID,
		Datapoints: []codec.Record{dp.toRecord(datastreamID)},
	})
}

// DatastreamUpdate implements spec §6's datastream_update.
func (c *Context) DatastreamUpdate(ctx context.Context, datastreamID string, dp Datapoint) (*Response, error) {
	return c.run(ctx, httplayer.Request{
		Op: httplayer.OpDatastreamUpdate, FeedID: c.feedID, DatastreamID: datastreamID,
		Datapoints: []codec.Record{dp.toRecord(datastreamID)},
	})
}

// DatastreamDelete implements spec §6's datastream_delete.
func (c *Context) DatastreamDelete(ctx context.Context, datastreamID string) (*Response, error) {
	return c.run(ctx, httplayer.Request{
		Op: httplayer.OpDatastreamDelete, FeedID: c.feedID, DatastreamID: datastreamID,
	})
}

// DatapointDelete implements spec §6's datapoint_delete.
func (c *Context) DatapointDelete(ctx context.Context, datastreamID string, dp Datapoint) (*Response, error) {
	return c.run(ctx, httplayer.Request{
		Op: httplayer.OpDatapointDelete, FeedID: c.feedID, DatastreamID: datastreamID,
		Datapoints: []codec.Record{dp.toRecord(datastreamID)},
	})
}

// DatapointDeleteRange implements spec §6's datapoint_delete_range.
func (c *Context) DatapointDeleteRange(ctx context.Context, datastreamID string, start, end time.Time) (*Response, error) {
	return c.run(ctx, httplayer.Request{
		Op: httplayer.OpDatapointDeleteRange, FeedID: c.feedID, DatastreamID: datastreamID,
		Start: start, End: end,
	})
}

func toRecords(points []Datapoint) []codec.Record {
	if len(points) == 0 {
		return nil
	}
	records := make([]codec.Record, len(points))
	for i, dp := range points {
		records[i] = dp.toRecord("")
	}
	return records
}

// run drives one request to completion: Init, Connect, prime the read
// path, inject the request at the top of the chain, drain the
// dispatcher until the response is fully decoded or a layer reports
// ERROR, then tear down the connection (spec §6: each top-level
// operation "runs one request to completion by driving the dispatcher").
func (c *Context) run(ctx context.Context, req httplayer.Request) (*Response, error) {
	c.io.Reset()
	c.http.Reset()
	c.codec.Reset()

	if st := c.io.Init(ctx); st == layer.StateError {
		return nil, c.fail()
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	// Arm the read path before writing: the server may start responding
	// before the full request is written for a short body, and arming
	// is idempotent with the write path (distinct fd directions).
	if st := c.io.OnDataReceived(ctx, nil); st == layer.StateError {
		c.teardown(ctx)
		return nil, c.fail()
	}

	if st := c.codec.OnDataReady(ctx, req); st == layer.StateError {
		c.teardown(ctx)
		return nil, c.fail()
	}

	if err := c.disp.Run(ctx, func() bool {
		return c.codec.Result() != nil || c.anyErrored()
	}); err != nil {
		c.teardown(ctx)
		return nil, newError(errkind.Transport, err)
	}

	if c.anyErrored() {
		c.teardown(ctx)
		return nil, c.fail()
	}

	result := c.codec.Result()
	c.teardown(ctx)
	if result == nil {
		return nil, newError(errkind.Protocol, fmt.Errorf("feedpipe: no response"))
	}
	return newResponse(result), nil
}

// connect resolves and connects the I/O layer, driving the dispatcher
// if the connect suspends on EINPROGRESS (spec §4.2 "Connect").
func (c *Context) connect(ctx context.Context) error {
	target := iolayer.Target{Host: c.cfg.Host, Port: c.cfg.Port}

	done := false
	final := layer.StateOK
	st := c.io.Connect(ctx, target, func(s layer.State) {
		done = true
		final = s
	})
	if st == layer.StateWantRead || st == layer.StateWantWrite {
		if err := c.disp.Run(ctx, func() bool { return done }); err != nil {
			return newError(errkind.Connection, err)
		}
	} else {
		final = st
	}
	if final == layer.StateError {
		return c.fail()
	}
	return nil
}

// anyErrored reports whether any layer in the chain reached a terminal
// error for the in-flight request.
func (c *Context) anyErrored() bool {
	return c.io.LastErrKind() != errkind.None ||
		c.http.LastErrKind() != errkind.None ||
		c.codec.LastErrKind() != errkind.None
}

// fail builds an [*Error] from whichever layer most recently failed,
// preferring the lowest layer in the chain (closest to the root cause).
func (c *Context) fail() error {
	if k := c.io.LastErrKind(); k != errkind.None {
		return newError(k, fmt.Errorf("feedpipe: i/o layer error"))
	}
	if k := c.http.LastErrKind(); k != errkind.None {
		return newError(k, fmt.Errorf("feedpipe: http layer error"))
	}
	if k := c.codec.LastErrKind(); k != errkind.None {
		return newError(k, fmt.Errorf("feedpipe: codec layer error"))
	}
	return newError(errkind.None, fmt.Errorf("feedpipe: unknown error"))
}

// teardown closes the connection for this request (spec §4.2 "Close
// path"): the downward Close acknowledgement through every layer, then
// the I/O layer's real shutdown+close+unregister.
func (c *Context) teardown(ctx context.Context) {
	c.chain.CloseAll(ctx)
	c.io.OnClose(ctx)
}
