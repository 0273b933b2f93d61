package vector

import (
	"context"
	"errors"
	"testing"

	"cskg-agent-be/internal/pkg/logger"
	"cskg-agent-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct{ mock.Mock }

func (m *mockRunner) Run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	args := m.Called(ctx, cypher, params)
	rows, _ := args.Get(0).([]map[string]any)
	return rows, args.Error(1)
}

type mockExtractor struct{ mock.Mock }

func (m *mockExtractor) ExtractEntities(ctx context.Context, question string) ([]string, error) {
	args := m.Called(ctx, question)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

type mockEmbedder struct{ mock.Mock }

func (m *mockEmbedder) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	args := m.Called(ctx, text, taskType)
	resp, _ := args.Get(0).(*embedding.EmbeddingResponse)
	return resp, args.Error(1)
}

type mockIndex struct{ mock.Mock }

func (m *mockIndex) Search(ctx context.Context, vec []float32, k int) ([]string, error) {
	args := m.Called(ctx, vec, k)
	out, _ := args.Get(0).([]string)
	return out, args.Error(1)
}

func vec() *embedding.EmbeddingResponse {
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0}}}
}

func TestFullTextQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Brute Force", "Brute~2 AND Force~2"},
		{"T1110.001: Password-Guessing!", "T1110.001~2 AND Password~2 AND Guessing~2"},
		{"mimikatz", "mimikatz~2"},
		{"  (*) ", ""},
		{"Command AND Control", "Command~2 AND Control~2"},
		{"Command and Control", "Command~2 AND and~2 AND Control~2"},
		{"NOT Petya OR WannaCry", "Petya~2 AND WannaCry~2"},
		{"AT&T | Verizon", "AT~2 AND T~2 AND Verizon~2"},
		{"AND", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FullTextQuery(tt.in), tt.in)
	}
}

func TestQueryCombinesStructuredAndUnstructured(t *testing.T) {
	runner, ext, emb, idx := new(mockRunner), new(mockExtractor), new(mockEmbedder), new(mockIndex)

	ext.On("ExtractEntities", mock.Anything, "how does phishing work").Return([]string{"Phishing"}, nil)
	runner.On("Run", mock.Anything, neighbourhoodQuery, map[string]any{"index": "entity", "query": "Phishing~2"}).
		Return([]map[string]any{
			{"output": "Phishing - ns0__accomplishesTactic -> Initial Access"},
			{"output": "Phishing - ns0__accomplishesTactic -> Initial Access"},
			{"output": "APT28 - ns0__usesTechnique -> Phishing"},
		}, nil)
	emb.On("Generate", mock.Anything, "how does phishing work", embedding.TaskTypeRetrievalQuery).Return(vec(), nil)
	idx.On("Search", mock.Anything, []float32{1, 0}, 4).Return([]string{"Phishing is...", "Spearphishing..."}, nil)

	a := NewAdapter(runner, ext, emb, idx, "", 0, logger.NewNopLogger())
	res, err := a.Query(context.Background(), "how does phishing work")

	require.NoError(t, err)
	assert.Equal(t, "Phishing - ns0__accomplishesTactic -> Initial Access\nAPT28 - ns0__usesTechnique -> Phishing", res.StructuredFacts)
	assert.Equal(t, []string{"Phishing is...", "Spearphishing..."}, res.UnstructuredSnippets)
}

func TestQueryKeepsWorkingHalf(t *testing.T) {
	runner, ext, emb, idx := new(mockRunner), new(mockExtractor), new(mockEmbedder), new(mockIndex)

	ext.On("ExtractEntities", mock.Anything, mock.Anything).Return(nil, errors.New("bad json"))
	emb.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(vec(), nil)
	idx.On("Search", mock.Anything, mock.Anything, 3).Return([]string{"snippet"}, nil)

	a := NewAdapter(runner, ext, emb, idx, "entity", 3, logger.NewNopLogger())
	res, err := a.Query(context.Background(), "q")

	require.NoError(t, err)
	assert.Empty(t, res.StructuredFacts)
	assert.Equal(t, []string{"snippet"}, res.UnstructuredSnippets)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestQueryFailsWhenBothHalvesFail(t *testing.T) {
	runner, ext, emb, idx := new(mockRunner), new(mockExtractor), new(mockEmbedder), new(mockIndex)

	ext.On("ExtractEntities", mock.Anything, mock.Anything).Return([]string{"daryl"}, nil)
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("index missing"))
	emb.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("ollama down"))

	a := NewAdapter(runner, ext, emb, idx, "entity", 3, logger.NewNopLogger())
	res, err := a.Query(context.Background(), "daryl login failures")

	require.Error(t, err)
	assert.True(t, res.Empty())
	assert.Contains(t, err.Error(), "index missing")
	assert.Contains(t, err.Error(), "ollama down")
}

func TestParseWeaviateContents(t *testing.T) {
	data := map[string]interface{}{
		"Get": map[string]interface{}{
			"Resource": []interface{}{
				map[string]interface{}{"content": "first"},
				map[string]interface{}{"content": ""},
				map[string]interface{}{"other": "x"},
				map[string]interface{}{"content": "second"},
			},
		},
	}
	assert.Equal(t, []string{"first", "second"}, parseContents(data, "Resource"))
	assert.Nil(t, parseContents(map[string]interface{}{}, "Resource"))
}
