package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"stayfinder/models"
)

var csvHeader = []string{
	"id", "name", "address", "price", "rent_unit", "property_type",
	"bedrooms", "bathrooms", "rating", "available_from", "features", "favorite",
}

// CSVWriter writes listings as CSV rows to any io.Writer.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	writer *csv.Writer
	header bool
}

// NewCSVWriter wraps w. The header row is written with the first batch.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{writer: csv.NewWriter(w)}
}

// WriteListings appends one row per listing and flushes.
func (c *CSVWriter) WriteListings(listings []*models.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.header {
		if err := c.writer.Write(csvHeader); err != nil {
			return fmt.Errorf("csv: write header: %w", err)
		}
		c.header = true
	}

	for _, l := range listings {
		if err := c.writer.Write(listingRow(l)); err != nil {
			return fmt.Errorf("csv: write row %s: %w", l.ID, err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

func listingRow(l *models.Listing) []string {
	rating := ""
	if l.Rating != nil {
		rating = strconv.FormatFloat(*l.Rating, 'f', -1, 64)
	}
	return []string{
		l.ID.String(),
		l.Name,
		l.Address,
		strconv.FormatFloat(l.Price, 'f', -1, 64),
		l.RentUnit,
		l.PropertyType,
		strconv.Itoa(l.Bedrooms),
		strconv.Itoa(l.Bathrooms),
		rating,
		l.AvailableFrom,
		strings.Join(l.Features, "; "),
		strconv.FormatBool(l.IsFavorite),
	}
}
