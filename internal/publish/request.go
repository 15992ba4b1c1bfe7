// Package publish turns inbound publish requests into the ordered list of
// message descriptors handed to the dispatch coordinator.
//
// Three request shapes are supported:
//   - SingleRequest: one explicit topic/key/message
//   - CountRequest:  N messages numbered 1..N
//   - RangeRequest:  one message per index in [StartIndex, EndIndex]
//
// Everything in this package is a pure transformation: no logging and no
// network activity. Validation always runs before expansion, so an invalid
// request never yields descriptors.
package publish

import (
	"fmt"
	"math"
)

// Field length bounds.
const (
	MaxTopicLength  = 100
	MaxKeyLength    = 50
	MaxPrefixLength = 100
)

// DefaultMaxBatchSize bounds the number of descriptors a count or range
// request may expand to when the request carries no explicit MaxBatch.
const DefaultMaxBatchSize = 100000

// Descriptor is one logical message: the (topic, key, value) triple submitted
// to the broker client. Descriptors are values and are never mutated after
// creation.
type Descriptor struct {
	Topic string
	Key   string
	Value string
}

// Normalizer is implemented by every request shape.
type Normalizer interface {
	// Validate reports every violated constraint, or nil.
	Validate() error
	// Total is the number of descriptors a valid request expands to.
	Total() int
	// Normalize validates the request and expands it into descriptors.
	Normalize() ([]Descriptor, error)
}

// SingleRequest publishes exactly one message.
type SingleRequest struct {
	Topic   string `json:"topic" form:"topic" query:"topic"`
	Key     string `json:"key" form:"key" query:"key"`
	Message string `json:"message" form:"message" query:"message"`
}

func (r SingleRequest) Validate() error {
	var v violations
	v.checkText("topic", "Topic", r.Topic, MaxTopicLength)
	v.checkText("key", "Key", r.Key, MaxKeyLength)
	v.checkNotBlank("message", "Message", r.Message)
	return v.err()
}

func (r SingleRequest) Total() int { return 1 }

func (r SingleRequest) Normalize() ([]Descriptor, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return []Descriptor{{Topic: r.Topic, Key: r.Key, Value: r.Message}}, nil
}

// CountRequest publishes Count messages whose keys and values are the given
// prefixes suffixed with "-1" through "-Count".
type CountRequest struct {
	Topic       string `json:"topic" form:"topic" query:"topic"`
	KeyPrefix   string `json:"key" form:"key" query:"key"`
	ValuePrefix string `json:"messagePrefix" form:"messagePrefix" query:"messagePrefix"`
	Count       int    `json:"numberOfMessages" form:"numberOfMessages" query:"numberOfMessages"`
	// MaxBatch caps Count. Zero means DefaultMaxBatchSize.
	MaxBatch int `json:"-" form:"-" query:"-"`
}

func (r CountRequest) Validate() error {
	var v violations
	v.checkText("topic", "Topic", r.Topic, MaxTopicLength)
	v.checkText("key", "Key", r.KeyPrefix, MaxKeyLength)
	v.checkText("messagePrefix", "Message prefix", r.ValuePrefix, MaxPrefixLength)
	if r.Count <= 0 {
		v.add("numberOfMessages", "Number of messages must be greater than 0")
	} else if limit := batchLimit(r.MaxBatch); r.Count > limit {
		v.add("numberOfMessages", fmt.Sprintf("Number of messages must not exceed %d", limit))
	}
	return v.err()
}

func (r CountRequest) Total() int { return r.Count }

func (r CountRequest) Normalize() ([]Descriptor, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return expand(r.Topic, r.KeyPrefix, r.ValuePrefix, 1, r.Count), nil
}

// RangeRequest publishes one message for every index in the inclusive range
// [StartIndex, EndIndex].
type RangeRequest struct {
	Topic       string `json:"topic"`
	KeyPrefix   string `json:"key"`
	ValuePrefix string `json:"messagePrefix"`
	StartIndex  int    `json:"startIndex"`
	EndIndex    int    `json:"endIndex"`
	// MaxBatch caps the size of the range. Zero means DefaultMaxBatchSize.
	MaxBatch int `json:"-"`
}

func (r RangeRequest) Validate() error {
	var v violations
	v.checkText("topic", "Topic", r.Topic, MaxTopicLength)
	v.checkText("key", "Key", r.KeyPrefix, MaxKeyLength)
	v.checkText("messagePrefix", "Message prefix", r.ValuePrefix, MaxPrefixLength)
	if r.StartIndex < 1 {
		v.add("startIndex", "Start index must be at least 1")
	}
	if r.EndIndex < 1 {
		v.add("endIndex", "End index must be at least 1")
	}
	if r.StartIndex > r.EndIndex {
		v.add("startIndex", "Start index must be less than or equal to end index")
	} else if limit := batchLimit(r.MaxBatch); r.StartIndex >= 1 && r.Total() > limit {
		v.add("endIndex", fmt.Sprintf("Range must not exceed %d messages", limit))
	}
	return v.err()
}

// Total saturates at math.MaxInt instead of overflowing.
func (r RangeRequest) Total() int {
	if r.EndIndex < r.StartIndex {
		return 0
	}
	span := uint64(r.EndIndex) - uint64(r.StartIndex)
	if span >= math.MaxInt {
		return math.MaxInt
	}
	return int(span) + 1
}

func (r RangeRequest) Normalize() ([]Descriptor, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return expand(r.Topic, r.KeyPrefix, r.ValuePrefix, r.StartIndex, r.Total()), nil
}

func batchLimit(n int) int {
	if n <= 0 {
		return DefaultMaxBatchSize
	}
	return n
}

// expand builds total descriptors numbered from, from+1, ... in ascending
// order. Iterating by offset keeps from+n within range up to math.MaxInt.
func expand(topic, keyPrefix, valuePrefix string, from, total int) []Descriptor {
	out := make([]Descriptor, 0, total)
	for n := 0; n < total; n++ {
		i := from + n
		out = append(out, Descriptor{
			Topic: topic,
			Key:   fmt.Sprintf("%s-%d", keyPrefix, i),
			Value: fmt.Sprintf("%s-%d", valuePrefix, i),
		})
	}
	return out
}
