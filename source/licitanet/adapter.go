// Package licitanet adapts a commercial aggregation portal that publishes
// its listing as server-rendered HTML, one page per state. It is the
// lowest-trust source and loses every dedup tie-break.
package licitanet

import (
	"bytes"
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/editais/core"
	"github.com/poiesic/editais/source"
)

const (
	listPath   = "/licitacoes"
	dateLayout = "02/01/2006"

	regionBatchSize = 9
	interBatchDelay = 2 * time.Second
)

// allStates is the full set of Brazilian state codes, fetched when the
// request does not restrict regions.
var allStates = []string{
	"AC", "AL", "AM", "AP", "BA", "CE", "DF", "ES", "GO",
	"MA", "MG", "MS", "MT", "PA", "PB", "PE", "PI", "PR",
	"RJ", "RN", "RO", "RR", "RS", "SC", "SE", "SP", "TO",
}

// Adapter implements source.Adapter for the Licitanet HTML portal.
type Adapter struct {
	client *source.Client
	runner *source.BatchRunner
	meta   core.SourceMetadata
	logger *slog.Logger
}

var _ source.Adapter = (*Adapter)(nil)

// New creates a Licitanet adapter. The pool bounds the per-region
// sub-fetches and is shared with the other adapters so the global
// in-flight cap holds.
func New(client *source.Client, pool *ants.Pool, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	runner, err := source.NewBatchRunner(pool, regionBatchSize, interBatchDelay)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		client: client,
		runner: runner,
		logger: logger,
		meta: core.SourceMetadata{
			Name:               "Licitanet",
			Code:               core.SourceLicitanet,
			BaseURL:            "https://licitanet.com.br",
			Capabilities:       core.CapStateFilter,
			RateLimitPerSecond: 2,
			Priority:           3,
		},
	}, nil
}

// Metadata returns the static portal configuration.
func (a *Adapter) Metadata() core.SourceMetadata {
	return a.meta
}

// HealthCheck runs a canary against the listing page.
func (a *Adapter) HealthCheck(ctx context.Context) source.Health {
	if a.client.Breaker().State() == source.BreakerOpen {
		return source.HealthUnavailable
	}
	return a.client.Ping(ctx, listPath)
}

// Fetch scrapes one listing page per state in batches. A failed state is
// logged and skipped; the terminal error fires only when every state
// failed.
func (a *Adapter) Fetch(ctx context.Context, req source.FetchRequest) (<-chan core.Record, <-chan error) {
	records := make(chan core.Record)
	errs := make(chan error, 1)

	states := req.States
	if len(states) == 0 {
		states = allStates
	}

	go func() {
		defer close(records)
		defer close(errs)

		var succeeded atomic.Int32
		err := a.runner.Run(ctx, states, func(ctx context.Context, state string) error {
			fetched, err := a.fetchState(ctx, state, req)
			if err != nil {
				return err
			}
			for _, rec := range fetched {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case records <- rec:
				}
			}
			succeeded.Add(1)
			return nil
		}, func(p source.BatchProgress) {
			a.logger.Debug("licitanet batch done",
				"batch", p.BatchIndex+1, "totalBatches", p.TotalBatches, "regions", len(p.Regions))
		})

		if err != nil && succeeded.Load() == 0 {
			errs <- err
		}
	}()

	return records, errs
}

func (a *Adapter) fetchState(ctx context.Context, state string, req source.FetchRequest) ([]core.Record, error) {
	body, err := a.client.Get(ctx, listPath, map[string]string{
		"uf":     state,
		"inicio": req.DateFrom.Format(dateLayout),
		"fim":    req.DateTo.Format(dateLayout),
	})
	if err != nil {
		return nil, err
	}
	return a.parseListing(body, state)
}

// parseListing extracts notice cards from a listing page.
func (a *Adapter) parseListing(body []byte, state string) ([]core.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var records []core.Record
	doc.Find("div.licitacao-card").Each(func(_ int, card *goquery.Selection) {
		rec, err := normalizeCard(card, state)
		if err != nil {
			a.logger.Warn("skipping unparseable licitanet card", "state", state, "err", err)
			return
		}
		records = append(records, rec)
	})

	return records, nil
}

func normalizeCard(card *goquery.Selection, state string) (core.Record, error) {
	id, ok := card.Attr("data-id")
	if !ok || id == "" {
		return core.Record{}, &source.ParseError{
			Source: core.SourceLicitanet,
			Reason: "card has no data-id",
		}
	}

	html, _ := goquery.OuterHtml(card)
	rec := core.Record{
		SourceID:      id,
		Source:        core.SourceLicitanet,
		Object:        text(card, ".objeto"),
		AgencyName:    text(card, ".orgao"),
		AgencyTaxID:   core.NormalizeTaxID(text(card, ".cnpj")),
		StateCode:     core.NormalizeStateCode(state),
		Municipality:  text(card, ".municipio"),
		NoticeNumber:  text(card, ".numero-edital"),
		Modality:      text(card, ".modalidade"),
		SituationText: text(card, ".situacao"),
		Raw:           []byte(html),
	}

	if href, ok := card.Find("a.edital-link").Attr("href"); ok {
		rec.NoticeURL = href
	}
	if year, err := strconv.Atoi(text(card, ".ano")); err == nil {
		rec.Year = year
	}
	if value := parseMoney(text(card, ".valor-estimado")); value > 0 {
		rec.EstimatedValue = value
	}
	rec.PublishedAt = parseDate(text(card, ".data-publicacao"))
	rec.ProposalClosesAt = parseDate(text(card, ".data-encerramento"))

	return rec, nil
}

func text(card *goquery.Selection, selector string) string {
	return strings.TrimSpace(card.Find(selector).First().Text())
}

// parseMoney parses "R$ 1.234.567,89" into 1234567.89.
func parseMoney(s string) float64 {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return &t
	}
	return nil
}
