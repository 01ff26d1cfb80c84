package corpus

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/poiesic/hybrid/core"
)

// Record is one fixture line.
type Record struct {
	ID          string   `json:"id"`
	ParentID    string   `json:"parent_id,omitempty"`
	DocumentID  string   `json:"document_id"`
	Page        *int     `json:"page,omitempty"`
	Text        string   `json:"text"`
	ContextText string   `json:"context_text,omitempty"`
	Entities    []Entity `json:"entities,omitempty"`
}

// Entity is an entity annotation on a fixture record.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// DecodeRecord parses one fixture line.
func DecodeRecord(line []byte) (*Record, error) {
	var rec Record
	if err := sonic.Unmarshal(line, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return &rec, nil
}

// Passage converts the record to a passage ready for embedding. A missing
// context falls back to the text. Entity types are parsed leniently; an
// unknown type becomes other.
func (r *Record) Passage() (*core.Passage, error) {
	p := &core.Passage{
		ID:          strings.TrimSpace(r.ID),
		ParentID:    strings.TrimSpace(r.ParentID),
		DocumentID:  strings.TrimSpace(r.DocumentID),
		Text:        r.Text,
		ContextText: r.ContextText,
	}
	if r.Page != nil {
		p.Page = core.PageOf(*r.Page)
	}
	if p.ContextText == "" {
		p.ContextText = p.Text
	}
	for _, e := range r.Entities {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		typ, err := core.ParseEntityType(e.Type)
		if err != nil {
			typ = core.EntityTypeOther
		}
		p.Entities = append(p.Entities, core.EntityMention{Name: name, Type: typ})
	}
	if err := core.ValidatePassage(p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return p, nil
}
