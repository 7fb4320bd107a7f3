// SPDX-License-Identifier: GPL-3.0-or-later

// Package httplayer implements spec §4.3: the HTTP layer formats an
// outgoing request line/headers/body and parses an incoming
// status-line/header/body-framed response, sitting between the codec
// layer above and the I/O layer below.
package httplayer

import (
	"fmt"
	"time"

	"github.com/nimbusdata/feedpipe/internal/codec"
)

// Op tags the operation variant of a [Request] (spec §3 "Request object").
type Op int

const (
	OpFeedGet Op = iota
	OpFeedUpdate
	OpDatastreamGet
	OpDatastreamCreate
	OpDatastreamUpdate
	OpDatastreamDelete
	OpDatapointDelete
	OpDatapointDeleteRange
)

// Request is the tagged request object the codec layer receives from
// the owning context and forwards downward, combined with its encoded
// body, to the HTTP layer (spec §3, §4.3).
type Request struct {
	Op           Op
	FeedID       string
	DatastreamID string

	// Datapoints holds the body payload: every datastream's value for
	// OpFeedUpdate, or exactly one record for OpDatastreamCreate and
	// OpDatastreamUpdate. For OpDatapointDelete it holds one record whose
	// timestamp selects the datapoint in the request path; that
	// operation sends no body.
	Datapoints []codec.Record

	// Start, End bound an OpDatapointDeleteRange query.
	Start, End time.Time
}

// OutgoingPayload is what the codec layer hands to the HTTP layer's
// OnDataReady: the original request plus its encoded body, so the HTTP
// layer can size Content-Length without re-invoking the codec.
type OutgoingPayload struct {
	Req  Request
	Body []byte
}

// requestLine returns the method and path for req (spec §4.3, end-to-end
// scenario 6 for the range-delete query composition).
func requestLine(req Request) (method, path string) {
	switch req.Op {
	case OpFeedGet:
		return "GET", fmt.Sprintf("/v2/feeds/%s", req.FeedID)
	case OpFeedUpdate:
		return "PUT", fmt.Sprintf("/v2/feeds/%s", req.FeedID)
	case OpDatastreamGet:
		return "GET", fmt.Sprintf("/v2/feeds/%s/datastreams/%s", req.FeedID, req.DatastreamID)
	case OpDatastreamCreate:
		return "POST", fmt.Sprintf("/v2/feeds/%s/datastreams", req.FeedID)
	case OpDatastreamUpdate:
		return "PUT", fmt.Sprintf("/v2/feeds/%s/datastreams/%s", req.FeedID, req.DatastreamID)
	case OpDatastreamDelete:
		return "DELETE", fmt.Sprintf("/v2/feeds/%s/datastreams/%s", req.FeedID, req.DatastreamID)
	case OpDatapointDelete:
		ts := time.Time{}
		if len(req.Datapoints) > 0 {
			ts = req.Datapoints[0].Timestamp
		}
		return "DELETE", fmt.Sprintf("/v2/feeds/%s/datastreams/%s/datapoints/%s",
			req.FeedID, req.DatastreamID, codec.FormatTimestamp(ts))
	case OpDatapointDeleteRange:
		return "DELETE", fmt.Sprintf("/v2/feeds/%s/datastreams/%s/datapoints?start=%s&end=%s",
			req.FeedID, req.DatastreamID, req.Start.UTC().Format(time.RFC3339), req.End.UTC().Format(time.RFC3339))
	default:
		return "GET", fmt.Sprintf("/v2/feeds/%s", req.FeedID)
	}
}

// EncodeBody renders req's body per spec §4.4: one record per line for
// operations that carry datapoints, empty for GET/DELETE operations
// whose parameters live entirely in the query string.
func EncodeBody(req Request, maxStringLen int) ([]byte, error) {
	switch req.Op {
	case OpFeedGet, OpDatastreamGet, OpDatastreamDelete, OpDatapointDelete, OpDatapointDeleteRange:
		return nil, nil
	}
	if len(req.Datapoints) == 0 {
		return nil, nil
	}
	var out []byte
	for _, rec := range req.Datapoints {
		line, err := codec.Encode(rec, maxStringLen)
		if err != nil {
			return nil, err
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out, nil
}
