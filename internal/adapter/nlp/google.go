// Package nlp provides entity extractors: Google Cloud Natural Language and a
// capitalization pattern fallback.
package nlp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	language "cloud.google.com/go/language/apiv2"
	"cloud.google.com/go/language/apiv2/languagepb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"github.com/insightatlas/insight-atlas/internal/domain"
)

// entityAnalyzer is the subset of *language.Client the extractor uses.
type entityAnalyzer interface {
	AnalyzeEntities(ctx context.Context, req *languagepb.AnalyzeEntitiesRequest, opts ...gax.CallOption) (*languagepb.AnalyzeEntitiesResponse, error)
}

// GoogleExtractor implements domain.EntityExtractor with the Cloud Natural
// Language API. The client is created on first use and reused afterwards.
type GoogleExtractor struct {
	logger    *slog.Logger
	newClient func(ctx context.Context) (entityAnalyzer, func() error, error)

	mu      sync.Mutex
	client  entityAnalyzer
	closeFn func() error
}

// NewGoogleExtractor creates an extractor from base64-encoded service account
// JSON. The credentials are decoded immediately; the API client is not.
func NewGoogleExtractor(encodedCreds string, logger *slog.Logger) (*GoogleExtractor, error) {
	if encodedCreds == "" {
		return nil, errors.New("natural language credentials are empty")
	}
	creds, err := base64.StdEncoding.DecodeString(encodedCreds)
	if err != nil {
		return nil, fmt.Errorf("decode natural language credentials: %w", err)
	}
	return &GoogleExtractor{
		logger: logger,
		newClient: func(ctx context.Context) (entityAnalyzer, func() error, error) {
			client, err := language.NewClient(ctx, option.WithCredentialsJSON(creds))
			if err != nil {
				return nil, nil, err
			}
			return client, client.Close, nil
		},
	}, nil
}

// init creates the API client on first success. The client outlives any
// single request, so it is built with a background context, and a failed
// attempt is retried on the next call.
func (g *GoogleExtractor) init() (entityAnalyzer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	client, closeFn, err := g.newClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("create natural language client: %w", err)
	}
	g.client, g.closeFn = client, closeFn
	g.logger.Info("natural language client initialized")
	return client, nil
}

// Extract sends text to AnalyzeEntities. LOCATION and ADDRESS entities become
// locations; ORGANIZATION entities become organizations.
func (g *GoogleExtractor) Extract(ctx context.Context, text string) (domain.Entities, error) {
	client, err := g.init()
	if err != nil {
		return domain.Entities{}, err
	}

	resp, err := client.AnalyzeEntities(ctx, &languagepb.AnalyzeEntitiesRequest{
		Document: &languagepb.Document{
			Source: &languagepb.Document_Content{
				Content: text,
			},
			Type: languagepb.Document_PLAIN_TEXT,
		},
		EncodingType: languagepb.EncodingType_UTF8,
	})
	if err != nil {
		return domain.Entities{}, fmt.Errorf("analyze entities: %w", err)
	}

	var b entityBuilder
	for _, e := range resp.GetEntities() {
		switch e.GetType() {
		case languagepb.Entity_LOCATION, languagepb.Entity_ADDRESS:
			b.addLocation(e.GetName(), e.GetType().String())
		case languagepb.Entity_ORGANIZATION:
			b.addOrganization(e.GetName(), e.GetType().String())
		default:
			b.addOther(e.GetName(), e.GetType().String())
		}
	}
	return b.result(), nil
}

// Close releases the API client if one was created.
func (g *GoogleExtractor) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closeFn == nil {
		return nil
	}
	return g.closeFn()
}

// entityBuilder accumulates first-seen, deduplicated entity lists.
type entityBuilder struct {
	locations     []string
	organizations []string
	entities      []domain.Entity
	seenLoc       map[string]struct{}
	seenOrg       map[string]struct{}
}

func (b *entityBuilder) addLocation(name, label string) {
	if name == "" {
		return
	}
	b.entities = append(b.entities, domain.Entity{Text: name, Label: label})
	if b.seenLoc == nil {
		b.seenLoc = make(map[string]struct{})
	}
	if _, ok := b.seenLoc[name]; ok {
		return
	}
	b.seenLoc[name] = struct{}{}
	b.locations = append(b.locations, name)
}

func (b *entityBuilder) addOrganization(name, label string) {
	if name == "" {
		return
	}
	b.entities = append(b.entities, domain.Entity{Text: name, Label: label})
	if b.seenOrg == nil {
		b.seenOrg = make(map[string]struct{})
	}
	if _, ok := b.seenOrg[name]; ok {
		return
	}
	b.seenOrg[name] = struct{}{}
	b.organizations = append(b.organizations, name)
}

func (b *entityBuilder) addOther(name, label string) {
	if name == "" {
		return
	}
	b.entities = append(b.entities, domain.Entity{Text: name, Label: label})
}

func (b *entityBuilder) result() domain.Entities {
	out := domain.Entities{
		Locations:     b.locations,
		Organizations: b.organizations,
		Entities:      b.entities,
	}
	if out.Locations == nil {
		out.Locations = []string{}
	}
	if out.Organizations == nil {
		out.Organizations = []string{}
	}
	if out.Entities == nil {
		out.Entities = []domain.Entity{}
	}
	return out
}
