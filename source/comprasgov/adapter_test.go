package comprasgov

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/poiesic/editais/core"
	"github.com/poiesic/editais/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	raw := &licitacao{
		Identificador:       "153178-05-80001-2026",
		Objeto:              "Contratação de serviços de limpeza",
		ValorEstimado:       420000,
		ValorHomologado:     398500.75,
		NomeOrgao:           "Ministério de Teste",
		CNPJOrgao:           "00.394.460/0001-41",
		UF:                  "df",
		Municipio:           "Brasília",
		NumeroAviso:         "80001",
		Ano:                 2026,
		Modalidade:          "Pregão",
		Situacao:            "Publicado",
		DataPublicacao:      "2026-02-01",
		DataEntregaProposta: "2026-02-20T14:00:00",
		URLAviso:            "https://compras.dados.gov.br/licitacoes/id/80001",
	}

	rec, err := normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "153178-05-80001-2026", rec.SourceID)
	assert.Equal(t, core.SourceComprasGov, rec.Source)
	assert.Equal(t, "00394460000141", rec.AgencyTaxID)
	assert.Equal(t, "DF", rec.StateCode)
	assert.Equal(t, core.SphereFederal, rec.Sphere, "the legacy portal only carries federal notices")
	require.NotNil(t, rec.HomologatedValue)
	assert.Equal(t, 398500.75, *rec.HomologatedValue)
	require.NotNil(t, rec.ProposalClosesAt)
	assert.Equal(t, 20, rec.ProposalClosesAt.Day())
	require.NoError(t, core.ValidateRecord(&rec))
}

func TestNormalize_MissingIdentityFails(t *testing.T) {
	_, err := normalize(&licitacao{Objeto: "sem identificador"})

	var parseErr *source.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, core.SourceComprasGov, parseErr.Source)
}

func TestFetch_StopsOnShortPage(t *testing.T) {
	var offsetsSeen []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		offsetsSeen = append(offsetsSeen, offset)

		// One full page, then a short page ending the feed.
		count := pageSize
		if offset > 0 {
			count = 3
		}
		results := make([]licitacao, count)
		for i := range results {
			results[i] = licitacao{Identificador: fmt.Sprintf("id-%d-%d", offset, i)}
		}
		json.NewEncoder(w).Encode(licitacaoResponse{Results: results})
	}))
	defer server.Close()

	client := source.NewClient(core.SourceComprasGov, source.ClientConfig{
		BaseURL: server.URL,
		Timeout: time.Second,
	})
	adapter := New(client, nil)

	records, errs := adapter.Fetch(context.Background(), source.FetchRequest{
		DateFrom: time.Now().AddDate(0, 0, -7),
		DateTo:   time.Now(),
	})
	fetched, err := source.Drain(records, errs)

	require.NoError(t, err)
	assert.Len(t, fetched, pageSize+3)
	assert.Equal(t, []int{0, pageSize}, offsetsSeen, "a short page ends pagination")
}

func TestFetch_SourceErrorSurfacesOnErrorChannel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := source.NewClient(core.SourceComprasGov, source.ClientConfig{BaseURL: server.URL})
	adapter := New(client, nil)

	records, errs := adapter.Fetch(context.Background(), source.FetchRequest{
		DateFrom: time.Now().AddDate(0, 0, -1),
		DateTo:   time.Now(),
	})
	fetched, err := source.Drain(records, errs)

	assert.Empty(t, fetched)
	var apiErr *source.SourceAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
