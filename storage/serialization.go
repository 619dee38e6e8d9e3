// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/lexresearch/core"
)

// maxVectorDimensions bounds the vector length accepted when decoding.
const maxVectorDimensions = 1 << 16

// MarshalPassage serializes a Passage to bytes.
//
// Layout: ID, Text, CaseName, Citation, Source as MUS strings, Year and
// InsertedAt (unix micros) as varints, then the vector length followed by
// fixed-width float32 values.
func MarshalPassage(p *core.Passage) []byte {
	buf := make([]byte, passageSize(p))
	n := 0
	for _, s := range passageStrings(p) {
		n += ord.String.Marshal(s, buf[n:])
	}
	n += varint.Int64.Marshal(int64(p.Year), buf[n:])
	n += varint.Int64.Marshal(p.InsertedAt.UnixMicro(), buf[n:])
	n += varint.Int64.Marshal(int64(len(p.Vector)), buf[n:])
	for _, f := range p.Vector {
		n += raw.Float32.Marshal(f, buf[n:])
	}
	return buf[:n]
}

// UnmarshalPassage deserializes a Passage from bytes.
func UnmarshalPassage(data []byte) (*core.Passage, error) {
	var (
		p      core.Passage
		offset int
	)

	fields := []*string{&p.ID, &p.Text, &p.CaseName, &p.Citation, &p.Source}
	for _, field := range fields {
		s, n, err := ord.String.Unmarshal(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
		*field = s
		offset += n
	}

	year, n, err := varint.Int64.Unmarshal(data[offset:])
	if err != nil {
		return nil, fmt.Errorf("%w: year: %w", ErrSerializationFailed, err)
	}
	p.Year = int(year)
	offset += n

	micros, n, err := varint.Int64.Unmarshal(data[offset:])
	if err != nil {
		return nil, fmt.Errorf("%w: inserted at: %w", ErrSerializationFailed, err)
	}
	p.InsertedAt = time.UnixMicro(micros).UTC()
	offset += n

	dims, n, err := varint.Int64.Unmarshal(data[offset:])
	if err != nil {
		return nil, fmt.Errorf("%w: vector length: %w", ErrSerializationFailed, err)
	}
	offset += n
	if dims < 0 || dims > maxVectorDimensions {
		return nil, fmt.Errorf("%w: vector length %d", ErrSerializationFailed, dims)
	}

	if dims > 0 {
		p.Vector = make([]float32, dims)
		for i := range p.Vector {
			if offset >= len(data) {
				return nil, ErrTruncatedData
			}
			f, n, err := raw.Float32.Unmarshal(data[offset:])
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrTruncatedData, err)
			}
			p.Vector[i] = f
			offset += n
		}
	}

	return &p, nil
}

func passageStrings(p *core.Passage) []string {
	return []string{p.ID, p.Text, p.CaseName, p.Citation, p.Source}
}

func passageSize(p *core.Passage) int {
	size := 0
	for _, s := range passageStrings(p) {
		size += ord.String.Size(s)
	}
	size += varint.Int64.Size(int64(p.Year))
	size += varint.Int64.Size(p.InsertedAt.UnixMicro())
	size += varint.Int64.Size(int64(len(p.Vector)))
	for _, f := range p.Vector {
		size += raw.Float32.Size(f)
	}
	return size
}
