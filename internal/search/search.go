// Package search indexes and queries products in Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/mongsom/shop/internal/models"
)

type Document struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Contents  string `json:"contents"`
	Price     int64  `json:"price"`
	Premium   bool   `json:"premium"`
}

type Results struct {
	Total int64
	IDs   []uint
}

type Index struct {
	es    *elasticsearch.Client
	index string
}

func NewIndex(addr, user, password, index string) (*Index, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{addr},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info: %s", res.Status())
	}

	return &Index{es: client, index: index}, nil
}

func DocumentOf(p *models.Product) Document {
	return Document{
		ProductID: p.ProductID,
		Name:      p.Name,
		Contents:  p.Contents,
		Price:     p.SalePrice(),
		Premium:   p.Premium,
	}
}

func (i *Index) IndexProduct(ctx context.Context, p *models.Product) error {
	body, err := json.Marshal(DocumentOf(p))
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: strconv.FormatUint(uint64(p.ProductID), 10),
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("index product: %s: %s", res.Status(), strings.TrimSpace(string(msg)))
	}
	return nil
}

func Query(q string, from, size int) map[string]any {
	return map[string]any{
		"from": from,
		"size": size,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"name^2", "contents"},
				"fuzziness": "AUTO",
			},
		},
		"_source": []string{"product_id"},
	}
}

func (i *Index) Search(ctx context.Context, q string, from, size int) (Results, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(Query(q, from, size)); err != nil {
		return Results{}, fmt.Errorf("encode query: %w", err)
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(&buf),
		i.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return Results{}, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return Results{}, fmt.Errorf("search: %s", res.Status())
	}

	var body struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return Results{}, fmt.Errorf("decode search response: %w", err)
	}

	out := Results{Total: body.Hits.Total.Value, IDs: make([]uint, 0, len(body.Hits.Hits))}
	for _, h := range body.Hits.Hits {
		out.IDs = append(out.IDs, h.Source.ProductID)
	}
	return out, nil
}
