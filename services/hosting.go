package services

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"stayfinder/models"
	"stayfinder/utils"
)

//go:embed schemas/listing.json
var listingSchemaJSON []byte

const listingSchemaURL = "listing.json"

// Defaults applied to host submissions that leave the fields out.
const (
	defaultRentUnit     = "month"
	defaultPropertyType = "Room"
)

// ListingPublisher stores a new listing upstream.
type ListingPublisher interface {
	Publish(ctx context.Context, raw *models.RawListing) error
}

// HostService accepts listings submitted by hosts.
type HostService struct {
	schema    *jsonschema.Schema
	cleaner   *Cleaner
	catalog   *Catalog
	publisher ListingPublisher
	logger    *utils.Logger
	now       func() time.Time
}

// NewHostService compiles the submission schema. publisher may be nil, in
// which case submissions are only added to the local catalog.
func NewHostService(cleaner *Cleaner, catalog *Catalog, publisher ListingPublisher, logger *utils.Logger) (*HostService, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(listingSchemaURL, bytes.NewReader(listingSchemaJSON)); err != nil {
		return nil, fmt.Errorf("hosting: add schema: %w", err)
	}
	schema, err := compiler.Compile(listingSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("hosting: compile schema: %w", err)
	}

	return &HostService{
		schema:    schema,
		cleaner:   cleaner,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Validate checks body against the submission schema.
func (s *HostService) Validate(body []byte) error {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("%w: body is not valid JSON: %v", ErrInvalidListing, err)
	}
	if err := s.schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidListing, err)
	}
	return nil
}

// Submit validates and stores a host submission and returns the listing as
// it will be served.
func (s *HostService) Submit(ctx context.Context, body []byte) (*models.Listing, error) {
	if err := s.Validate(body); err != nil {
		return nil, err
	}

	var raw models.RawListing
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidListing, err)
	}
	s.applyDefaults(&raw)

	listing := s.cleaner.CleanOne(&raw)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, &raw); err != nil {
			return nil, fmt.Errorf("hosting: publish %s: %w", raw.ID, err)
		}
	}
	s.catalog.AddLocal(listing)
	s.logger.Info("[hosting] New listing %s: %q", listing.ID, listing.Name)

	if s.publisher != nil {
		if err := s.catalog.Refresh(ctx); err != nil {
			s.logger.Warn("[hosting] Catalog refresh after submit failed: %v", err)
		}
	}
	return listing, nil
}

func (s *HostService) applyDefaults(raw *models.RawListing) {
	raw.ID = models.ListingID(uuid.NewString())
	if raw.RentUnit == "" {
		raw.RentUnit = defaultRentUnit
	}
	if raw.PropertyType == "" {
		raw.PropertyType = defaultPropertyType
	} else {
		raw.PropertyType = models.Text(cases.Title(language.English).String(string(raw.PropertyType)))
	}
	if raw.AvailableFrom == "" {
		raw.AvailableFrom = models.Text(s.now().Format(dateLayout))
	}
}
