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


package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/hybrid/ai"
	"github.com/poiesic/hybrid/core"
	"github.com/tmc/langchaingo/llms"
)

// EntityExtractor implements ai.EntityExtractor using OpenAI-compatible chat APIs.
type EntityExtractor struct {
	client llms.Model
	logger *slog.Logger
}

// entity is an internal type used for JSON unmarshaling.
type entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type entityList struct {
	Entities []entity `json:"entities"`
}

func newEntityExtractor(client llms.Model) *EntityExtractor {
	return &EntityExtractor{
		client: client,
		logger: slog.Default().With("component", "openai-extractor"),
	}
}

// NewEntityExtractor creates an entity extractor using the provided configuration.
//
// Returns ai.EntityExtractor interface to enforce abstraction.
func NewEntityExtractor(config *ai.Config) (ai.EntityExtractor, error) {
	client, err := newChatModel(config)
	if err != nil {
		return nil, err
	}
	return newEntityExtractor(client), nil
}

// ExtractEntities extracts named entities from text using an LLM.
// Names are de-duplicated case-insensitively; unknown types map to
// core.EntityTypeOther.
func (e *EntityExtractor) ExtractEntities(ctx context.Context, text string) ([]ai.ExtractedEntity, error) {
	var result entityList
	if err := generateJSON(ctx, e.client, e.logger, buildEntityPrompt(), collapseWhitespace(text), &result); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(result.Entities))
	extracted := make([]ai.ExtractedEntity, 0, len(result.Entities))
	for _, ent := range result.Entities {
		name := strings.TrimSpace(ent.Name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		entityType, err := core.ParseEntityType(ent.Type)
		if err != nil {
			e.logger.Debug("unrecognized entity type", "name", name, "type", ent.Type)
		}
		extracted = append(extracted, ai.ExtractedEntity{Name: name, Type: entityType})
	}

	e.logger.Debug("extracted entities",
		"total", len(result.Entities),
		"kept", len(extracted))
	return extracted, nil
}
