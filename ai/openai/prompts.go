package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/hybrid/core"
)

const expansionPromptTemplate = `Rewrite the user's search query into %d alternative phrasings that a search engine
could use to find the same information. Vary vocabulary and word order; keep every name, number and
date exactly as written. Do not answer the query.

Output ONLY valid JSON of the form {"queries": ["...", "..."]}. Do not include any preamble, explanation,
or text outside the object.

Example:
Input: "who audits acme corp"
Output:
{"queries": ["acme corp external auditor", "which firm audits acme corp financial statements", "acme corp audit firm"]}`

const entitySchema = `{
  "type": "object",
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "type": {"type": "string"}
        },
        "required": ["name", "type"],
        "additionalProperties": false
      }
    }
  },
  "required": ["entities"],
  "additionalProperties": false
}`

const entityPromptTemplate = `Extract the named entities from the given text and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Start your response directly with the
opening brace { and end with the closing brace }. Your output must exactly follow this schema:

%s

Rules:
- Use the entity's name exactly as written in the text.
- Type must be exactly one of: %s.
- Include only entities that are explicitly mentioned. Do not hallucinate.
- If no entities can be identified, return {"entities": []}.

Example:
Input: "Did Acme Corp's 2023 filing mention the Springfield plant?"
Output:
{"entities": [{"name":"Acme Corp","type":"organization"},{"name":"Springfield","type":"location"}]}`

const relevancePrompt = `You grade search results. Given a query and a passage, rate how well the passage
helps answer the query on a scale from 1 (unrelated) to 10 (directly answers it).

Reply with a single integer between 1 and 10 and nothing else.`

// notRelevantMarker is the reply the extraction prompt asks for when nothing in
// the passage bears on the query.
const notRelevantMarker = "NOT_RELEVANT"

const extractionPrompt = `Given a query and a passage, copy out only the sentences from the passage that
help answer the query. Copy sentences verbatim; do not summarize, reorder or add anything.

If no sentence is relevant, reply with exactly NOT_RELEVANT.`

func buildExpansionPrompt(n int) string {
	return fmt.Sprintf(expansionPromptTemplate, n)
}

func buildEntityPrompt() string {
	return fmt.Sprintf(entityPromptTemplate, entitySchema, strings.Join(core.EntityTypeNames(), ", "))
}

func buildQueryPassageMessage(query, passage string) string {
	return "Query: " + query + "\n\nPassage:\n" + passage
}
