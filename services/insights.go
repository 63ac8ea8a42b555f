package services

import (
	"sort"

	"stayfinder/models"
	"stayfinder/utils"
)

const topRatedCount = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(listings []*models.Listing) *models.InsightReport {
	report := &models.InsightReport{
		TopRated:               []*models.Listing{},
		ListingsByPropertyType: make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	var priceListings []*models.Listing
	var ratedListings []*models.Listing

	for _, l := range listings {
		if l == nil {
			continue
		}
		report.TotalListings++
		if l.Price > 0 {
			priceListings = append(priceListings, l)
		}
		if l.Rating != nil && *l.Rating > 0 {
			ratedListings = append(ratedListings, l)
		}
		if l.PropertyType != "" {
			report.ListingsByPropertyType[l.PropertyType]++
		}
	}

	report.PricedListings = len(priceListings)
	report.RatedListings = len(ratedListings)

	// Price stats (only listings with price > 0)
	if len(priceListings) > 0 {
		report.MinPrice = priceListings[0].Price
		report.MaxPrice = priceListings[0].Price
		report.MostExpensive = priceListings[0]
		var total float64
		for _, l := range priceListings {
			total += l.Price
			if l.Price < report.MinPrice {
				report.MinPrice = l.Price
			}
			if l.Price > report.MaxPrice {
				report.MaxPrice = l.Price
				report.MostExpensive = l
			}
		}
		report.AveragePrice = round2(total / float64(len(priceListings)))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}

	if len(ratedListings) > 0 {
		var total float64
		for _, l := range ratedListings {
			total += *l.Rating
		}
		report.AverageRating = round2(total / float64(len(ratedListings)))
	}

	// Top 5 by rating, ties keep catalog order
	sort.SliceStable(ratedListings, func(i, j int) bool {
		return *ratedListings[i].Rating > *ratedListings[j].Rating
	})
	if len(ratedListings) > topRatedCount {
		ratedListings = ratedListings[:topRatedCount]
	}
	report.TopRated = append(report.TopRated, ratedListings...)

	s.logger.Debug("[insights] %d listings, %d priced, %d rated",
		report.TotalListings, report.PricedListings, report.RatedListings)

	return report
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
