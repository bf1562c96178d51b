package opensearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	"github.com/opensearch-project/opensearch-go/v4/opensearchutil"
	requestsigner "github.com/opensearch-project/opensearch-go/v4/signer/awsv2"

	"dining-concierge/internal/domain"
)

const (
	defaultIndex   = "restaurants"
	signingService = "es"
	categoryField  = "Cuisine"
)

// searchAPI is the subset of *opensearchapi.Client used by Client.
type searchAPI interface {
	Search(ctx context.Context, req *opensearchapi.SearchReq) (*opensearchapi.SearchResp, error)
}

// hitSource is the part of an indexed restaurant document the worker reads.
type hitSource struct {
	RestaurantID string `json:"RestaurantID"`
}

// Client queries the restaurant index of an OpenSearch domain.
type Client struct {
	api   searchAPI
	index string
}

type options struct {
	index  string
	awsCfg *aws.Config
}

type Option func(*options)

func WithIndex(index string) Option {
	return func(o *options) {
		if index = strings.TrimSpace(index); index != "" {
			o.index = index
		}
	}
}

// WithAWSConfig signs every request with SigV4 using cfg's credentials and
// region, as required by a domain with an IAM access policy.
func WithAWSConfig(cfg aws.Config) Option {
	return func(o *options) {
		o.awsCfg = &cfg
	}
}

// NewClient creates a Client for the domain at endpoint.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("opensearch: endpoint must not be empty")
	}
	o := options{index: defaultIndex}
	for _, opt := range opts {
		opt(&o)
	}

	conf := opensearch.Config{Addresses: []string{endpoint}}
	if o.awsCfg != nil {
		if o.awsCfg.Credentials == nil {
			return nil, errors.New("opensearch: credentials must not be nil when signing")
		}
		if strings.TrimSpace(o.awsCfg.Region) == "" {
			return nil, errors.New("opensearch: region must not be empty when signing")
		}
		signer, err := requestsigner.NewSignerWithService(*o.awsCfg, signingService)
		if err != nil {
			return nil, fmt.Errorf("opensearch: create signer: %w", err)
		}
		conf.Signer = signer
	}

	api, err := opensearchapi.NewClient(opensearchapi.Config{Client: conf})
	if err != nil {
		return nil, fmt.Errorf("opensearch: create client: %w", err)
	}
	return &Client{api: api, index: o.index}, nil
}

// Search returns up to limit candidates whose cuisine matches category. An
// empty slice means no match.
func (c *Client) Search(ctx context.Context, category string, limit int) ([]domain.Candidate, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, errors.New("opensearch: category must not be empty")
	}
	if limit <= 0 {
		return nil, errors.New("opensearch: limit must be positive")
	}

	query := map[string]any{
		"size": limit,
		"query": map[string]any{
			"match": map[string]string{categoryField: category},
		},
	}
	resp, err := c.api.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{c.index},
		Body:    opensearchutil.NewJSONReader(query),
	})
	if err != nil {
		return nil, fmt.Errorf("opensearch: search %s: %w", c.index, err)
	}
	if resp == nil {
		return nil, nil
	}

	candidates := make([]domain.Candidate, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var src hitSource
		if len(hit.Source) == 0 || json.Unmarshal(hit.Source, &src) != nil || src.RestaurantID == "" {
			continue
		}
		candidates = append(candidates, domain.Candidate{RestaurantID: src.RestaurantID})
	}
	return candidates, nil
}
