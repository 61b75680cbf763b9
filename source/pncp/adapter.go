// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package pncp adapts the official federal procurement portal (PNCP).
// It is the highest-trust source and wins every dedup tie-break.
package pncp

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/poiesic/editais/core"
	"github.com/poiesic/editais/source"
	"github.com/tidwall/gjson"
)

const (
	dateLayout  = "20060102"
	consultPath = "/api/consulta/v1/contratacoes/publicacao"
	pingPath    = "/api/consulta/v1/contratacoes/publicacao"
	pageSize    = 50
	maxPages    = 200 // hard stop against runaway pagination
)

// Adapter implements source.Adapter for PNCP.
type Adapter struct {
	client *source.Client
	meta   core.SourceMetadata
	logger *slog.Logger
}

var _ source.Adapter = (*Adapter)(nil)

// New creates a PNCP adapter over the given resilient client.
func New(client *source.Client, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		client: client,
		logger: logger,
		meta: core.SourceMetadata{
			Name:               "Portal Nacional de Contratações Públicas",
			Code:               core.SourcePNCP,
			BaseURL:            "https://pncp.gov.br",
			Capabilities:       core.CapDateRange | core.CapPagination | core.CapStateFilter,
			RateLimitPerSecond: 10,
			Priority:           1,
		},
	}
}

// Metadata returns the static PNCP configuration.
func (a *Adapter) Metadata() core.SourceMetadata {
	return a.meta
}

// HealthCheck runs a cheap canary against the consultation endpoint. An
// open circuit breaker reports unavailable without touching the portal.
func (a *Adapter) HealthCheck(ctx context.Context) source.Health {
	if a.client.Breaker().State() == source.BreakerOpen {
		return source.HealthUnavailable
	}
	return a.client.Ping(ctx, pingPath)
}

// Fetch streams the publication feed page by page. Page N+1 is requested
// only after page N completes, respecting the portal's pagination cursor.
func (a *Adapter) Fetch(ctx context.Context, req source.FetchRequest) (<-chan core.Record, <-chan error) {
	records := make(chan core.Record)
	errs := make(chan error, 1)

	go func() {
		defer close(records)
		defer close(errs)

		for page := 1; page <= maxPages; page++ {
			query := map[string]string{
				"dataInicial":   req.DateFrom.Format(dateLayout),
				"dataFinal":     req.DateTo.Format(dateLayout),
				"pagina":        strconv.Itoa(page),
				"tamanhoPagina": strconv.Itoa(pageSize),
			}
			if req.Modality != "" {
				query["codigoModalidade"] = req.Modality
			}
			if len(req.States) == 1 {
				query["uf"] = req.States[0]
			}

			body, err := a.client.Get(ctx, consultPath, query)
			if err != nil {
				errs <- err
				return
			}

			parsed := gjson.ParseBytes(body)
			for _, item := range parsed.Get("data").Array() {
				rec, err := normalize(item)
				if err != nil {
					a.logger.Warn("skipping unparseable pncp record", "err", err)
					continue
				}
				select {
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				case records <- rec:
				}
			}

			totalPages := parsed.Get("totalPaginas").Int()
			if totalPages == 0 || int64(page) >= totalPages {
				return
			}
		}
	}()

	return records, errs
}

// normalize maps one loose PNCP JSON item to the canonical record. The
// portal's schema drifts between API revisions, so fields are read
// defensively by path rather than into a fixed struct.
func normalize(item gjson.Result) (core.Record, error) {
	sourceID := item.Get("numeroControlePNCP").String()
	if sourceID == "" {
		return core.Record{}, &source.ParseError{
			Source: core.SourcePNCP,
			Reason: "missing numeroControlePNCP",
		}
	}

	rec := core.Record{
		SourceID:       sourceID,
		Source:         core.SourcePNCP,
		Object:         item.Get("objetoCompra").String(),
		EstimatedValue: item.Get("valorTotalEstimado").Float(),
		AgencyName:     item.Get("orgaoEntidade.razaoSocial").String(),
		AgencyTaxID:    core.NormalizeTaxID(item.Get("orgaoEntidade.cnpj").String()),
		StateCode:      core.NormalizeStateCode(item.Get("unidadeOrgao.ufSigla").String()),
		Municipality:   item.Get("unidadeOrgao.municipioNome").String(),
		NoticeNumber:   item.Get("numeroCompra").String(),
		Year:           int(item.Get("anoCompra").Int()),
		Modality:       item.Get("modalidadeNome").String(),
		SituationText:  item.Get("situacaoCompraNome").String(),
		Sphere:         sphereFrom(item.Get("orgaoEntidade.esferaId").String()),
		NoticeURL:      item.Get("linkSistemaOrigem").String(),
		PortalURL:      "https://pncp.gov.br/app/editais/" + sourceID,
		Raw:            []byte(item.Raw),
	}

	if homologated := item.Get("valorTotalHomologado"); homologated.Exists() && homologated.Float() > 0 {
		v := homologated.Float()
		rec.HomologatedValue = &v
	}
	if rec.EstimatedValue < 0 {
		rec.EstimatedValue = 0
	}

	rec.PublishedAt = parseTime(item.Get("dataPublicacaoPncp").String())
	rec.ProposalOpensAt = parseTime(item.Get("dataAberturaProposta").String())
	rec.ProposalClosesAt = parseTime(item.Get("dataEncerramentoProposta").String())

	return rec, nil
}

func sphereFrom(id string) core.Sphere {
	switch id {
	case "F":
		return core.SphereFederal
	case "E":
		return core.SphereState
	case "M":
		return core.SphereMunicipal
	default:
		return core.SphereUnknown
	}
}

// parseTime accepts the timestamp forms PNCP emits, with and without zone.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
