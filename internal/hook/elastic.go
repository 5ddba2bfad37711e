// Package hook contains integrations notified about finished session runs.
package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

// ElasticSearchHook fetches the target's filter-decision log entries for a
// finished session, correlated by the session's guv, and reports the hit
// count back through the async hook callback.
type ElasticSearchHook struct {
	client *elasticsearch.Client
	index  string

	log *slog.Logger
}

func NewElasticSearchHook(addresses []string, index string, log *slog.Logger) (*ElasticSearchHook, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}

	return &ElasticSearchHook{client: client, index: index, log: log}, nil
}

func (h *ElasticSearchHook) Name() string {
	return "elastic-search"
}

func (h *ElasticSearchHook) Init() error {
	return nil
}

const filterDecisionsKey = "elastic-search.filterDecisions"

func (h *ElasticSearchHook) SessionFinishedAsync(session model.TestSession, callback func(context map[string]any)) {
	hits, err := h.fetchFilterDecisions(context.Background(), session.GUV)
	if err != nil {
		h.log.Error("unable to fetch filter decision logs", "guv", session.GUV, "error", err)
		return
	}

	callback(map[string]any{filterDecisionsKey: hits})
}

func (h *ElasticSearchHook) fetchFilterDecisions(ctx context.Context, guv string) (int, error) {
	var buf bytes.Buffer

	query := map[string]any{
		"query": map[string]any{
			"match": map[string]any{
				"guv": guv,
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return 0, fmt.Errorf("encoding query: %w", err)
	}

	es := h.client

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(h.index),
		es.Search.WithBody(&buf),
		es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return 0, fmt.Errorf("querying filter decision logs: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("querying filter decision logs: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, fmt.Errorf("parsing search response: %w", err)
	}

	return r.Hits.Total.Value, nil
}
