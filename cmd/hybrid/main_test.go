package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/hybrid/ai"
	"github.com/poiesic/hybrid/ai/mock"
	"github.com/poiesic/hybrid/core"
	"github.com/poiesic/hybrid/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const fixture = `{"id":"c1","parent_id":"p1","document_id":"annual_report","page":22,"text":"Acme revenue grew twelve percent in 2023","entities":[{"name":"Acme","type":"organization"}]}
{"id":"c2","parent_id":"p1","document_id":"annual_report","page":67,"text":"Acme revenue outlook for the coming year"}
{"id":"c3","parent_id":"p2","document_id":"press","text":"Jane Doe named chief executive of Acme"}
`

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func findFlag[F cli.Flag](t *testing.T, cmd *cli.Command, name string) F {
	t.Helper()
	for _, flag := range cmd.Flags {
		if f, ok := flag.(F); ok && flag.Names()[0] == name {
			return f
		}
	}
	t.Fatalf("flag %q not found on %s", name, cmd.Name)
	var zero F
	return zero
}

func useMockProvider(t *testing.T) {
	t.Helper()
	orig := newProvider
	newProvider = func(*ai.Config) (ai.AIProvider, error) {
		return mock.NewMockProvider(), nil
	}
	t.Cleanup(func() { newProvider = orig })
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"hybrid"}, args...))
	return out.String(), err
}

func TestLoadCommandFlags(t *testing.T) {
	cmd := findCommand(t, newApp(), "load")

	t.Run("db and file are required", func(t *testing.T) {
		_, err := runApp(t, "load", "--db", "/tmp/test")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "file")

		_, err = runApp(t, "load", "--file", "passages.jsonl")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})

	t.Run("defaults", func(t *testing.T) {
		assert.Equal(t, "http://localhost:11434/v1", findFlag[*cli.StringFlag](t, cmd, "embedding-host").Value)
		assert.Equal(t, "embeddinggemma", findFlag[*cli.StringFlag](t, cmd, "embedding-model").Value)
		assert.Equal(t, 100, findFlag[*cli.IntFlag](t, cmd, "batch-size").Value)
		assert.Equal(t, 100, findFlag[*cli.IntFlag](t, cmd, "report-interval").Value)
		assert.Equal(t, 3, findFlag[*cli.IntFlag](t, cmd, "max-retries").Value)
		assert.Equal(t, time.Second, findFlag[*cli.DurationFlag](t, cmd, "retry-delay").Value)
	})

	t.Run("hosts have no EnvVars", func(t *testing.T) {
		assert.Empty(t, findFlag[*cli.StringFlag](t, cmd, "embedding-host").EnvVars)
		assert.Empty(t, findFlag[*cli.StringFlag](t, cmd, "embedding-model").EnvVars)
	})
}

func TestLoadCommandValidation(t *testing.T) {
	useMockProvider(t)
	dbPath := filepath.Join(t.TempDir(), "db")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero batch size", []string{"--batch-size", "0"}, "batch-size must be greater than 0"},
		{"negative report interval", []string{"--report-interval", "-1"}, "report-interval must be greater than 0"},
		{"zero retries", []string{"--max-retries", "0"}, "invalid retry settings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"load", "--db", dbPath, "--file", "missing.jsonl"}, tt.args...)
			_, err := runApp(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := runApp(t, "load", "--db", dbPath, "--file", filepath.Join(t.TempDir(), "missing.jsonl"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load failed")
	})
}

func TestRetrieveCommandFlags(t *testing.T) {
	cmd := findCommand(t, newApp(), "retrieve")
	defaults := retrieval.DefaultConfig()

	t.Run("db is required", func(t *testing.T) {
		_, err := runApp(t, "retrieve", "revenue")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})

	t.Run("defaults", func(t *testing.T) {
		assert.Equal(t, 5, findFlag[*cli.IntFlag](t, cmd, "top-k").Value)
		assert.Equal(t, 3, findFlag[*cli.IntFlag](t, cmd, "expansions").Value)
		assert.Equal(t, defaults.SourceTimeout, findFlag[*cli.DurationFlag](t, cmd, "source-timeout").Value)
		assert.Equal(t, defaults.RRFK, findFlag[*cli.IntFlag](t, cmd, "rrf-k").Value)
		assert.Equal(t, defaults.BoostIncrement, findFlag[*cli.Float64Flag](t, cmd, "boost").Value)
		assert.Equal(t, defaults.RerankWindow, findFlag[*cli.IntFlag](t, cmd, "rerank-window").Value)
		assert.Zero(t, findFlag[*cli.Float64Flag](t, cmd, "rate-limit").Value)
		assert.False(t, findFlag[*cli.BoolFlag](t, cmd, "no-graph").Value)
		assert.False(t, findFlag[*cli.BoolFlag](t, cmd, "compress").Value)
	})

	t.Run("query is required", func(t *testing.T) {
		_, err := runApp(t, "retrieve", "--db", filepath.Join(t.TempDir(), "db"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query is required")
	})

	t.Run("invalid pipeline settings", func(t *testing.T) {
		useMockProvider(t)
		_, err := runApp(t, "retrieve", "--db", filepath.Join(t.TempDir(), "db"), "--rerank-window", "0", "revenue")
		require.Error(t, err)
		assert.ErrorIs(t, err, retrieval.ErrInvalidConfig)
	})
}

func TestLoadAndRetrieve(t *testing.T) {
	useMockProvider(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db")
	file := filepath.Join(dir, "passages.jsonl")
	require.NoError(t, os.WriteFile(file, []byte(fixture), 0644))

	out, err := runApp(t, "load", "--db", dbPath, "--file", file, "--batch-size", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 3 passages (0 already present)")

	t.Run("reload resumes from checkpoint", func(t *testing.T) {
		out, err := runApp(t, "load", "--db", dbPath, "--file", file)
		require.NoError(t, err)
		assert.Contains(t, out, "Loaded 0 passages (3 already present)")
	})

	t.Run("text output", func(t *testing.T) {
		out, err := runApp(t, "retrieve", "--db", dbPath, "--top-k", "2", "Acme", "revenue")
		require.NoError(t, err)
		assert.Contains(t, out, "Found 2 results")
		assert.Contains(t, out, "1. ")
		assert.Contains(t, out, "2. ")
		assert.NotContains(t, out, "\n3. ")
	})

	t.Run("json output", func(t *testing.T) {
		out, err := runApp(t, "retrieve", "--db", dbPath, "--json", "Acme", "revenue")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "{"))
		assert.Contains(t, out, `"results"`)
		assert.Contains(t, out, `"failed_sources"`)
		assert.Contains(t, out, `"match_kind":"direct"`)
		assert.Contains(t, out, `"source_tags"`)
		assert.NotContains(t, out, `"MatchKind"`)
	})

	t.Run("canceled context stops retrieval", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		app := newApp()
		app.Writer = &bytes.Buffer{}
		app.ErrWriter = &bytes.Buffer{}
		err := app.RunContext(ctx, []string{"hybrid", "retrieve", "--db", dbPath, "revenue"})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, err, retrieval.ErrRequiredSourceFailed)
	})
}

func TestPrintJSON(t *testing.T) {
	relevance := 7
	resp := &retrieval.Response{
		RetrievalID: "r1",
		Complexity:  core.ComplexityComplex,
		Variants:    []string{"acme revenue"},
		Results: []retrieval.Result{
			{
				ID:             "c3",
				ParentID:       "p2",
				DocumentID:     "press",
				Text:           "Jane Doe named chief executive of Acme",
				RelevanceScore: &relevance,
				FusedScore:     0.1164,
				SourceTags:     []core.Source{core.SourceDense, core.SourceGraph},
				GraphEvidence: &core.GraphEvidence{
					MatchedEntity:       "Jane Doe",
					EntityType:          core.EntityTypePerson,
					MatchKind:           core.MatchIndirect,
					RelatedTo:           "Acme",
					SharedDocumentCount: 2,
				},
			},
		},
		FailedSources: []core.Source{core.SourceSparse},
		SkippedStages: []retrieval.Stage{retrieval.StageCompress},
	}

	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, resp))

	assert.JSONEq(t, `{
		"retrieval_id": "r1",
		"results": [{
			"id": "c3",
			"parent_id": "p2",
			"document_id": "press",
			"page": null,
			"text": "Jane Doe named chief executive of Acme",
			"relevance_score": 7,
			"fused_score": 0.1164,
			"source_tags": ["dense", "graph"],
			"graph_evidence": {
				"matched_entity": "Jane Doe",
				"entity_type": "person",
				"match_kind": "indirect",
				"related_to": "Acme",
				"shared_document_count": 2
			}
		}],
		"failed_sources": ["sparse"],
		"skipped_stages": ["compress"],
		"complexity": "complex",
		"variants": ["acme revenue"]
	}`, buf.String())
}

func TestPrintResponse(t *testing.T) {
	relevance := 8
	compressed := "Acme revenue grew"
	resp := &retrieval.Response{
		Complexity: core.ComplexityMedium,
		Variants:   []string{"acme revenue", "acme sales"},
		Results: []retrieval.Result{
			{
				ID:             "c1",
				DocumentID:     "annual_report",
				Page:           core.PageOf(22),
				Text:           "Acme revenue grew twelve percent in 2023",
				CompressedText: &compressed,
				RelevanceScore: &relevance,
				FusedScore:     0.1325,
				SourceTags:     []core.Source{core.SourceDense, core.SourceGraph},
				GraphEvidence: &core.GraphEvidence{
					MatchedEntity: "Acme",
					EntityType:    core.EntityTypeOrganization,
					MatchKind:     core.MatchDirect,
				},
			},
			{
				ID:         "c3",
				DocumentID: "press",
				Text:       "Jane Doe named chief executive of Acme",
				FusedScore: 0.0161,
				SourceTags: []core.Source{core.SourceSparse},
				GraphEvidence: &core.GraphEvidence{
					MatchedEntity:       "Jane Doe",
					EntityType:          core.EntityTypePerson,
					MatchKind:           core.MatchIndirect,
					RelatedTo:           "Acme",
					SharedDocumentCount: 2,
				},
			},
		},
		FailedSources: []core.Source{core.SourceSparse},
		SkippedStages: []retrieval.Stage{retrieval.StageRerank},
	}

	var buf bytes.Buffer
	printResponse(&buf, resp)
	out := buf.String()

	assert.Contains(t, out, "Found 2 results (complexity: medium, variants: 2)")
	assert.Contains(t, out, "1. c1  document=annual_report page=22  fused=0.1325 relevance=8  sources=dense,graph")
	assert.Contains(t, out, "graph: Acme (organization, direct)")
	assert.Contains(t, out, "   Acme revenue grew\n")
	assert.Contains(t, out, "2. c3  document=press  fused=0.0161  sources=sparse")
	assert.Contains(t, out, "graph: Jane Doe (person, indirect) via Acme, 2 shared documents")
	assert.Contains(t, out, "failed_sources: sparse")
	assert.Contains(t, out, "skipped_stages: rerank")
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"WARN", false},
		{"error", false},
		{"verbose", true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			_, err := runApp(t, "--log-level", tt.level, "retrieve")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid log level")
				return
			}
			// The logger accepted the level; the command itself fails on missing flags.
			require.Error(t, err)
			assert.NotContains(t, err.Error(), "invalid log level")
		})
	}
}
