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
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/hybrid/core"
)

// CorpusStats holds the collection-wide counts BM25 scoring needs.
type CorpusStats struct {
	Passages    int64
	TotalTokens int64
}

// MarshalPassage serializes a Passage to bytes.
func MarshalPassage(p *core.Passage) []byte {
	buf := make([]byte, sizePassage(p))
	n := ord.String.Marshal(p.ID, buf)
	n += ord.String.Marshal(p.ParentID, buf[n:])
	n += ord.String.Marshal(p.DocumentID, buf[n:])
	n += ord.Bool.Marshal(p.Page != nil, buf[n:])
	if p.Page != nil {
		n += varint.Int.Marshal(*p.Page, buf[n:])
	}
	n += ord.String.Marshal(p.Text, buf[n:])
	n += ord.String.Marshal(p.ContextText, buf[n:])
	n += varint.Int.Marshal(len(p.Vector), buf[n:])
	for _, v := range p.Vector {
		n += varint.Float32.Marshal(v, buf[n:])
	}
	n += varint.Int.Marshal(len(p.Entities), buf[n:])
	for _, e := range p.Entities {
		n += ord.String.Marshal(e.Name, buf[n:])
		n += varint.Int.Marshal(int(e.Type), buf[n:])
	}
	return buf[:n]
}

func sizePassage(p *core.Passage) int {
	size := ord.String.Size(p.ID) +
		ord.String.Size(p.ParentID) +
		ord.String.Size(p.DocumentID) +
		ord.Bool.Size(p.Page != nil) +
		ord.String.Size(p.Text) +
		ord.String.Size(p.ContextText) +
		varint.Int.Size(len(p.Vector)) +
		varint.Int.Size(len(p.Entities))
	if p.Page != nil {
		size += varint.Int.Size(*p.Page)
	}
	for _, v := range p.Vector {
		size += varint.Float32.Size(v)
	}
	for _, e := range p.Entities {
		size += ord.String.Size(e.Name) + varint.Int.Size(int(e.Type))
	}
	return size
}

// UnmarshalPassage deserializes a Passage from bytes.
func UnmarshalPassage(data []byte) (*core.Passage, error) {
	d := decoder{data: data}
	p := &core.Passage{}
	p.ID = d.string()
	p.ParentID = d.string()
	p.DocumentID = d.string()
	if d.bool() {
		page := d.int()
		p.Page = &page
	}
	p.Text = d.string()
	p.ContextText = d.string()

	if count := d.length(); count > 0 {
		p.Vector = make([]float32, count)
		for i := range p.Vector {
			p.Vector[i] = d.float32()
		}
	}
	if count := d.length(); count > 0 {
		p.Entities = make([]core.EntityMention, count)
		for i := range p.Entities {
			p.Entities[i].Name = d.string()
			p.Entities[i].Type = core.EntityType(d.int())
		}
	}

	if d.err != nil {
		return nil, fmt.Errorf("%w: passage: %w", ErrSerializationFailed, d.err)
	}
	return p, nil
}

// MarshalCorpusStats serializes CorpusStats to bytes.
func MarshalCorpusStats(s CorpusStats) []byte {
	buf := make([]byte, varint.Int64.Size(s.Passages)+varint.Int64.Size(s.TotalTokens))
	n := varint.Int64.Marshal(s.Passages, buf)
	varint.Int64.Marshal(s.TotalTokens, buf[n:])
	return buf
}

// UnmarshalCorpusStats deserializes CorpusStats from bytes.
func UnmarshalCorpusStats(data []byte) (CorpusStats, error) {
	d := decoder{data: data}
	s := CorpusStats{Passages: d.int64(), TotalTokens: d.int64()}
	if d.err != nil {
		return CorpusStats{}, fmt.Errorf("%w: corpus stats: %w", ErrSerializationFailed, d.err)
	}
	return s, nil
}

// MarshalInt serializes a single int, used for term frequencies and
// passage lengths.
func MarshalInt(v int) []byte {
	buf := make([]byte, varint.Int.Size(v))
	varint.Int.Marshal(v, buf)
	return buf
}

// UnmarshalInt deserializes a single int.
func UnmarshalInt(data []byte) (int, error) {
	v, _, err := varint.Int.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: int: %w", ErrSerializationFailed, err)
	}
	return v, nil
}

// MarshalMention serializes an entity mention record: the entity type and
// the optional page it occurs on.
func MarshalMention(t core.EntityType, page *int) []byte {
	size := varint.Int.Size(int(t)) + ord.Bool.Size(page != nil)
	if page != nil {
		size += varint.Int.Size(*page)
	}
	buf := make([]byte, size)
	n := varint.Int.Marshal(int(t), buf)
	n += ord.Bool.Marshal(page != nil, buf[n:])
	if page != nil {
		varint.Int.Marshal(*page, buf[n:])
	}
	return buf
}

// UnmarshalMention deserializes an entity mention record.
func UnmarshalMention(data []byte) (core.EntityType, *int, error) {
	d := decoder{data: data}
	t := core.EntityType(d.int())
	var page *int
	if d.bool() {
		p := d.int()
		page = &p
	}
	if d.err != nil {
		return 0, nil, fmt.Errorf("%w: mention: %w", ErrSerializationFailed, d.err)
	}
	return t, page, nil
}

// MarshalEntityRef serializes an entity's display name and type.
func MarshalEntityRef(e core.EntityMention) []byte {
	buf := make([]byte, ord.String.Size(e.Name)+varint.Int.Size(int(e.Type)))
	n := ord.String.Marshal(e.Name, buf)
	varint.Int.Marshal(int(e.Type), buf[n:])
	return buf
}

// UnmarshalEntityRef deserializes an entity's display name and type.
func UnmarshalEntityRef(data []byte) (core.EntityMention, error) {
	d := decoder{data: data}
	e := core.EntityMention{Name: d.string(), Type: core.EntityType(d.int())}
	if d.err != nil {
		return core.EntityMention{}, fmt.Errorf("%w: entity: %w", ErrSerializationFailed, d.err)
	}
	return e, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes. UpdatedAt is kept at
// microsecond precision.
func MarshalCheckpoint(c *Checkpoint) []byte {
	micros := c.UpdatedAt.UnixMicro()
	buf := make([]byte, ord.String.Size(c.Name)+varint.Int64.Size(c.Offset)+varint.Int64.Size(micros))
	n := ord.String.Marshal(c.Name, buf)
	n += varint.Int64.Marshal(c.Offset, buf[n:])
	varint.Int64.Marshal(micros, buf[n:])
	return buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*Checkpoint, error) {
	d := decoder{data: data}
	c := &Checkpoint{Name: d.string(), Offset: d.int64()}
	c.UpdatedAt = time.UnixMicro(d.int64()).UTC()
	if d.err != nil {
		return nil, fmt.Errorf("%w: checkpoint: %w", ErrSerializationFailed, d.err)
	}
	return c, nil
}

// decoder walks a buffer and keeps the first error; later reads are no-ops.
type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.data[d.off:])
	d.advance(n, err)
	return v
}

func (d *decoder) bool() bool {
	if d.err != nil {
		return false
	}
	v, n, err := ord.Bool.Unmarshal(d.data[d.off:])
	d.advance(n, err)
	return v
}

func (d *decoder) int() int {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(d.data[d.off:])
	d.advance(n, err)
	return v
}

func (d *decoder) int64() int64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(d.data[d.off:])
	d.advance(n, err)
	return v
}

func (d *decoder) float32() float32 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Float32.Unmarshal(d.data[d.off:])
	d.advance(n, err)
	return v
}

// length reads a collection length and rejects values the remaining bytes
// cannot possibly hold.
func (d *decoder) length() int {
	n := d.int()
	if d.err == nil && (n < 0 || n > len(d.data)-d.off) {
		d.err = fmt.Errorf("invalid length %d", n)
		return 0
	}
	return n
}

func (d *decoder) advance(n int, err error) {
	if err != nil {
		d.err = err
		return
	}
	d.off += n
}
