package service

import (
	"context"
	"errors"

	"github.com/alanyoungcy/perpfeed/internal/adapter"
	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/metrics"
	"github.com/alanyoungcy/perpfeed/internal/schema"
)

// JupiterTradesPage mirrors the Jupiter envelope with normalized records.
type JupiterTradesPage struct {
	DataList []domain.NormalizedTrade `json:"dataList"`
	Count    int                      `json:"count"`
}

// RawService exposes exchange payloads directly: validated raw pages, and
// per-exchange normalized pages in the exchange's own envelope.
type RawService struct {
	flashSrc   adapter.FlashSource
	jupiterSrc adapter.JupiterSource
	flash      *adapter.Flash
	jupiter    *adapter.Jupiter
}

// NewRawService creates a RawService.
func NewRawService(flashSrc adapter.FlashSource, jupiterSrc adapter.JupiterSource, flash *adapter.Flash, jupiter *adapter.Jupiter) *RawService {
	return &RawService{flashSrc: flashSrc, jupiterSrc: jupiterSrc, flash: flash, jupiter: jupiter}
}

// FlashTrades returns a validated raw Flash page. page and take select the
// paged endpoint only when both are positive.
func (s *RawService) FlashTrades(ctx context.Context, address string, page, take int) ([]schema.FlashTrade, error) {
	body, err := s.flashSrc.Trades(ctx, address, page, take)
	if err != nil {
		return nil, err
	}
	trades, err := schema.ValidateFlashPage(body)
	if err != nil {
		countValidation(err)
		return nil, err
	}
	return trades, nil
}

// JupiterTrades returns a validated raw Jupiter page for [start, end).
func (s *RawService) JupiterTrades(ctx context.Context, address string, start, end int) (schema.JupiterPage, error) {
	body, err := s.jupiterSrc.Trades(ctx, address, start, end)
	if err != nil {
		return schema.JupiterPage{}, err
	}
	page, err := schema.ValidateJupiterPage(body)
	if err != nil {
		countValidation(err)
		return schema.JupiterPage{}, err
	}
	return page, nil
}

// FlashNormalized returns the Flash page as normalized trades.
func (s *RawService) FlashNormalized(ctx context.Context, address string, page, take int) ([]domain.NormalizedTrade, error) {
	raw, err := s.FlashTrades(ctx, address, page, take)
	if err != nil {
		return nil, err
	}
	out := make([]domain.NormalizedTrade, 0, len(raw))
	for _, t := range raw {
		out = append(out, s.flash.Normalize(t))
	}
	return out, nil
}

// JupiterNormalized returns the Jupiter page with normalized records and the
// upstream total.
func (s *RawService) JupiterNormalized(ctx context.Context, address string, start, end int) (JupiterTradesPage, error) {
	raw, err := s.JupiterTrades(ctx, address, start, end)
	if err != nil {
		return JupiterTradesPage{}, err
	}
	out := JupiterTradesPage{DataList: make([]domain.NormalizedTrade, 0, len(raw.DataList)), Count: raw.Count}
	for _, t := range raw.DataList {
		out.DataList = append(out.DataList, s.jupiter.Normalize(t))
	}
	return out, nil
}

func countValidation(err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		metrics.ValidationFailures.WithLabelValues(string(ve.Exchange)).Inc()
	}
}
