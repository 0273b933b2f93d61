package vector

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
)

const weaviateContentField = "content"

// WeaviateIndex searches a weaviate class whose objects carry the resource
// text in a "content" property.
type WeaviateIndex struct {
	client    *weaviate.Client
	className string
}

var _ SimilarityIndex = &WeaviateIndex{}

func NewWeaviateIndex(host, scheme, className string) (*WeaviateIndex, error) {
	if scheme == "" {
		scheme = "http"
	}
	client, err := weaviate.NewClient(weaviate.Config{Host: host, Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return &WeaviateIndex{client: client, className: className}, nil
}

func (w *WeaviateIndex) Search(ctx context.Context, vec []float32, k int) ([]string, error) {
	nearVector := w.client.GraphQL().NearVectorArgBuilder().WithVector(vec)

	result, err := w.client.GraphQL().Get().
		WithClassName(w.className).
		WithFields(graphql.Field{Name: weaviateContentField}).
		WithNearVector(nearVector).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate near vector: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate search error: %s", result.Errors[0].Message)
	}

	return parseContents(result.Data, w.className), nil
}

func parseContents(data map[string]interface{}, className string) []string {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	objects, ok := get[className].([]interface{})
	if !ok {
		return nil
	}

	contents := make([]string, 0, len(objects))
	for _, obj := range objects {
		props, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}
		if text, ok := props[weaviateContentField].(string); ok && text != "" {
			contents = append(contents, text)
		}
	}
	return contents
}
