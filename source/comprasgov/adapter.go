// Package comprasgov adapts the federal purchasing portal
// (compras.gov.br legacy consultation API).
package comprasgov

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/poiesic/editais/core"
	"github.com/poiesic/editais/source"
)

const (
	dateLayout  = "2006-01-02"
	consultPath = "/modulo-legado/1_consultarLicitacao"
	pageSize    = 100
	maxPages    = 100
)

// licitacaoResponse is the page envelope of the consultation API.
type licitacaoResponse struct {
	Count   int         `json:"count"`
	Results []licitacao `json:"_embedded"`
}

// licitacao is one raw notice as the portal reports it.
type licitacao struct {
	Identificador        string  `json:"identificador"`
	Objeto               string  `json:"objeto"`
	ValorEstimado        float64 `json:"valor_estimado_total"`
	ValorHomologado      float64 `json:"valor_homologado_total"`
	NomeOrgao            string  `json:"nome_orgao"`
	CNPJOrgao            string  `json:"cnpj_orgao"`
	UF                   string  `json:"uf"`
	Municipio            string  `json:"municipio"`
	NumeroAviso          string  `json:"numero_aviso"`
	Ano                  int     `json:"ano"`
	Modalidade           string  `json:"modalidade_licitacao"`
	Situacao             string  `json:"situacao_aviso"`
	DataPublicacao       string  `json:"data_publicacao"`
	DataAberturaProposta string  `json:"data_abertura_proposta"`
	DataEntregaProposta  string  `json:"data_entrega_proposta"`
	URLAviso             string  `json:"url_aviso"`
}

// Adapter implements source.Adapter for compras.gov.br.
type Adapter struct {
	client *source.Client
	meta   core.SourceMetadata
	logger *slog.Logger
}

var _ source.Adapter = (*Adapter)(nil)

// New creates a compras.gov.br adapter over the given resilient client.
func New(client *source.Client, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		client: client,
		logger: logger,
		meta: core.SourceMetadata{
			Name:               "Compras.gov.br",
			Code:               core.SourceComprasGov,
			BaseURL:            "https://compras.dados.gov.br",
			Capabilities:       core.CapDateRange | core.CapPagination | core.CapStateFilter,
			RateLimitPerSecond: 5,
			Priority:           2,
		},
	}
}

// Metadata returns the static portal configuration.
func (a *Adapter) Metadata() core.SourceMetadata {
	return a.meta
}

// HealthCheck runs a canary request against the consultation endpoint.
func (a *Adapter) HealthCheck(ctx context.Context) source.Health {
	if a.client.Breaker().State() == source.BreakerOpen {
		return source.HealthUnavailable
	}
	return a.client.Ping(ctx, consultPath)
}

// Fetch streams notices page by page, in order.
func (a *Adapter) Fetch(ctx context.Context, req source.FetchRequest) (<-chan core.Record, <-chan error) {
	records := make(chan core.Record)
	errs := make(chan error, 1)

	go func() {
		defer close(records)
		defer close(errs)

		for page := 0; page < maxPages; page++ {
			query := map[string]string{
				"data_publicacao_min": req.DateFrom.Format(dateLayout),
				"data_publicacao_max": req.DateTo.Format(dateLayout),
				"offset":              strconv.Itoa(page * pageSize),
				"quantidade":          strconv.Itoa(pageSize),
			}
			if req.Modality != "" {
				query["modalidade"] = req.Modality
			}
			if len(req.States) == 1 {
				query["uf"] = req.States[0]
			}

			body, err := a.client.Get(ctx, consultPath, query)
			if err != nil {
				errs <- err
				return
			}

			var resp licitacaoResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				errs <- fmt.Errorf("decoding comprasgov page %d: %w", page, err)
				return
			}

			for i := range resp.Results {
				rec, err := normalize(&resp.Results[i])
				if err != nil {
					a.logger.Warn("skipping unparseable comprasgov record", "err", err)
					continue
				}
				select {
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				case records <- rec:
				}
			}

			if len(resp.Results) < pageSize {
				return
			}
		}
	}()

	return records, errs
}

func normalize(raw *licitacao) (core.Record, error) {
	if raw.Identificador == "" {
		return core.Record{}, &source.ParseError{
			Source: core.SourceComprasGov,
			Reason: "missing identificador",
		}
	}

	payload, _ := json.Marshal(raw)
	rec := core.Record{
		SourceID:       raw.Identificador,
		Source:         core.SourceComprasGov,
		Object:         raw.Objeto,
		EstimatedValue: raw.ValorEstimado,
		AgencyName:     raw.NomeOrgao,
		AgencyTaxID:    core.NormalizeTaxID(raw.CNPJOrgao),
		StateCode:      core.NormalizeStateCode(raw.UF),
		Municipality:   raw.Municipio,
		NoticeNumber:   raw.NumeroAviso,
		Year:           raw.Ano,
		Modality:       raw.Modalidade,
		SituationText:  raw.Situacao,
		Sphere:         core.SphereFederal,
		NoticeURL:      raw.URLAviso,
		Raw:            payload,
	}

	if raw.ValorHomologado > 0 {
		v := raw.ValorHomologado
		rec.HomologatedValue = &v
	}
	if rec.EstimatedValue < 0 {
		rec.EstimatedValue = 0
	}

	rec.PublishedAt = parseTime(raw.DataPublicacao)
	rec.ProposalOpensAt = parseTime(raw.DataAberturaProposta)
	rec.ProposalClosesAt = parseTime(raw.DataEntregaProposta)

	return rec, nil
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
