package sink

import (
	"bytes"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// ElasticsearchSink POSTs each record to <base>/_doc. Only 201 Created is
// logged as success; any other status logs the response body (§4.7).
type ElasticsearchSink struct {
	*boundedQueue
	client *elasticsearch.Client
	logger *zap.SugaredLogger
}

// NewElasticsearch builds a sink against a single static base URL, using
// the client's Transport directly rather than its node-pool discovery —
// there is one configured endpoint here, not a cluster to sniff.
func NewElasticsearch(base string, capacity int, logger *zap.SugaredLogger) (*ElasticsearchSink, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{base}})
	if err != nil {
		return nil, err
	}
	return &ElasticsearchSink{
		boundedQueue: newBoundedQueue("elasticsearch", capacity, logger),
		client:       client,
		logger:       logger,
	}, nil
}

func (s *ElasticsearchSink) Run() {
	for rec := range s.ch {
		req, err := http.NewRequest(http.MethodPost, "/_doc", bytes.NewReader(rec.JSON))
		if err != nil {
			s.logger.Errorw("elasticsearch request build failed", "error", err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Perform(req)
		if err != nil {
			s.logger.Errorw("elasticsearch post failed", "error", err)
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			s.logger.Errorw("elasticsearch post rejected", "status", resp.StatusCode, "body", string(body))
			continue
		}
		s.logger.Debugw("elasticsearch post accepted")
	}
}
