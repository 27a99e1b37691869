package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/pitwall/core"
)

// Records are encoded in MUS format, fields in declaration order:
//
//	document:   id, text, vector length, vector elements, inserted-at (Unix ns, 0 when unset)
//	collection: name, dimension, metric
//
// Strings are length-prefixed, integers are varints and vector elements are
// fixed-width little-endian float32s.

var (
	errTrailingBytes = errors.New("unexpected trailing bytes")
	errVectorLength  = errors.New("invalid vector length")
)

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrSerializationFailed)
	}
	insertedAt := unixNano(doc.InsertedAt)

	size := ord.String.Size(doc.ID) + ord.String.Size(doc.Text) +
		varint.Int.Size(len(doc.Vector)) + varint.Int64.Size(insertedAt)
	for _, f := range doc.Vector {
		size += raw.Float32.Size(f)
	}

	buf := make([]byte, size)
	n := ord.String.Marshal(doc.ID, buf)
	n += ord.String.Marshal(doc.Text, buf[n:])
	n += varint.Int.Marshal(len(doc.Vector), buf[n:])
	for _, f := range doc.Vector {
		n += raw.Float32.Marshal(f, buf[n:])
	}
	varint.Int64.Marshal(insertedAt, buf[n:])
	return buf, nil
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	var (
		doc core.Document
		n   int
	)
	id, m, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	n += m
	text, m, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: text: %w", ErrSerializationFailed, err)
	}
	n += m
	length, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: vector length: %w", ErrSerializationFailed, err)
	}
	n += m
	// Each element takes four bytes, so a length the buffer cannot hold is corrupt.
	if length < 0 || length > (len(data)-n)/4 {
		return nil, fmt.Errorf("%w: %w %d", ErrSerializationFailed, errVectorLength, length)
	}
	vector := make([]float32, length)
	for i := range vector {
		vector[i], m, err = raw.Float32.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: vector[%d]: %w", ErrSerializationFailed, i, err)
		}
		n += m
	}
	insertedAt, m, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: inserted_at: %w", ErrSerializationFailed, err)
	}
	n += m
	if n != len(data) {
		return nil, fmt.Errorf("%w: document: %w", ErrSerializationFailed, errTrailingBytes)
	}

	doc.ID = id
	doc.Text = text
	doc.Vector = vector
	doc.InsertedAt = fromUnixNano(insertedAt)
	return &doc, nil
}

// MarshalCollectionSpec serializes a CollectionSpec to bytes.
func MarshalCollectionSpec(spec core.CollectionSpec) ([]byte, error) {
	metric := string(spec.Metric)
	buf := make([]byte, ord.String.Size(spec.Name)+varint.Int.Size(spec.Dimension)+ord.String.Size(metric))
	n := ord.String.Marshal(spec.Name, buf)
	n += varint.Int.Marshal(spec.Dimension, buf[n:])
	ord.String.Marshal(metric, buf[n:])
	return buf, nil
}

// UnmarshalCollectionSpec deserializes a CollectionSpec from bytes.
func UnmarshalCollectionSpec(data []byte) (core.CollectionSpec, error) {
	var n int
	name, m, err := ord.String.Unmarshal(data)
	if err != nil {
		return core.CollectionSpec{}, fmt.Errorf("%w: name: %w", ErrSerializationFailed, err)
	}
	n += m
	dimension, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return core.CollectionSpec{}, fmt.Errorf("%w: dimension: %w", ErrSerializationFailed, err)
	}
	n += m
	rawMetric, m, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return core.CollectionSpec{}, fmt.Errorf("%w: metric: %w", ErrSerializationFailed, err)
	}
	n += m
	if n != len(data) {
		return core.CollectionSpec{}, fmt.Errorf("%w: collection: %w", ErrSerializationFailed, errTrailingBytes)
	}

	metric, err := core.ParseSimilarityMetric(rawMetric)
	if err != nil {
		return core.CollectionSpec{}, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.CollectionSpec{Name: name, Dimension: dimension, Metric: metric}, nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}
