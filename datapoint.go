// SPDX-License-Identifier: GPL-3.0-or-later

package feedpipe

import (
	"time"

	"github.com/nimbusdata/feedpipe/internal/codec"
)

// Datapoint is a timestamp plus a tagged value (spec §3 "Datapoint").
// DatastreamID identifies which datastream the point belongs to; it is
// only significant for [*Context.FeedUpdate], which bundles points for
// every datastream of a feed into one request body. Single-datastream
// operations (DatastreamCreate, DatastreamUpdate, DatapointDelete) take
// the datastream id as a separate argument and ignore this field.
type Datapoint struct {
	DatastreamID string
	Timestamp    time.Time
	Value        Value
}

func (dp Datapoint) toRecord(datastreamID string) codec.Record {
	id := dp.DatastreamID
	if datastreamID != "" {
		id = datastreamID
	}
	return codec.Record{DatastreamID: id, Timestamp: dp.Timestamp, Value: dp.Value}
}

func fromRecord(rec codec.Record) Datapoint {
	return Datapoint{DatastreamID: rec.DatastreamID, Timestamp: rec.Timestamp, Value: rec.Value}
}
