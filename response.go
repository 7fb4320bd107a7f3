// SPDX-License-Identifier: GPL-3.0-or-later

package feedpipe

import "github.com/nimbusdata/feedpipe/internal/codeclayer"

// Response is the terminal outcome of a top-level operation: status
// code, a parsed header subset, and the decoded datapoints from the
// response body (spec §3 "Response").
type Response struct {
	StatusCode int
	Headers    map[string]string
	Datapoints []Datapoint
}

func newResponse(r *codeclayer.Result) *Response {
	resp := &Response{StatusCode: r.StatusCode, Headers: r.Headers}
	for _, rec := range r.Records {
		resp.Datapoints = append(resp.Datapoints, fromRecord(rec))
	}
	return resp
}
