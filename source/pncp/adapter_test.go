package pncp

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
	"github.com/tidwall/gjson"
)

const sampleItem = `{
	"numeroControlePNCP": "12345678000190-1-000101/2026",
	"objetoCompra": "Aquisição de merenda escolar",
	"valorTotalEstimado": 150000.50,
	"valorTotalHomologado": null,
	"orgaoEntidade": {"cnpj": "12.345.678/0001-90", "razaoSocial": "Prefeitura de Teste", "esferaId": "M"},
	"unidadeOrgao": {"ufSigla": "sp", "municipioNome": "Campinas"},
	"numeroCompra": "101",
	"anoCompra": 2026,
	"modalidadeNome": "Pregão Eletrônico",
	"situacaoCompraNome": "Divulgada no PNCP",
	"dataPublicacaoPncp": "2026-01-10T08:00:00",
	"dataAberturaProposta": "2026-01-15T08:00:00",
	"dataEncerramentoProposta": "2026-01-30T18:00:00"
}`

func TestNormalize(t *testing.T) {
	rec, err := normalize(gjson.Parse(sampleItem))
	require.NoError(t, err)

	assert.Equal(t, "12345678000190-1-000101/2026", rec.SourceID)
	assert.Equal(t, core.SourcePNCP, rec.Source)
	assert.Equal(t, "12345678000190", rec.AgencyTaxID, "tax id is digits-only")
	assert.Equal(t, "SP", rec.StateCode, "state code is upper-cased")
	assert.Equal(t, 150000.50, rec.EstimatedValue)
	assert.Nil(t, rec.HomologatedValue)
	assert.Equal(t, core.SphereMunicipal, rec.Sphere)
	assert.Equal(t, "101", rec.NoticeNumber)
	assert.Equal(t, 2026, rec.Year)
	require.NotNil(t, rec.ProposalClosesAt)
	assert.Equal(t, 30, rec.ProposalClosesAt.Day())
	assert.NotEmpty(t, rec.Raw, "the raw payload side-channel is retained")
	require.NoError(t, core.ValidateRecord(&rec))
}

func TestNormalize_MissingIdentityFails(t *testing.T) {
	_, err := normalize(gjson.Parse(`{"objetoCompra": "sem identidade"}`))

	var parseErr *source.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, core.SourcePNCP, parseErr.Source)
}

func TestFetch_PaginatesSequentially(t *testing.T) {
	var pagesSeen []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("pagina"))
		pagesSeen = append(pagesSeen, page)

		item := map[string]any{
			"numeroControlePNCP": fmt.Sprintf("ctrl-%d", page),
			"objetoCompra":       "objeto",
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data":         []any{item},
			"totalPaginas": 3,
		})
	}))
	defer server.Close()

	client := source.NewClient(core.SourcePNCP, source.ClientConfig{
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
	assert.Len(t, fetched, 3)
	assert.Equal(t, []int{1, 2, 3}, pagesSeen, "page N+1 is requested only after page N")
}

func TestFetch_SourceErrorSurfacesOnErrorChannel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := source.NewClient(core.SourcePNCP, source.ClientConfig{BaseURL: server.URL})
	adapter := New(client, nil)

	records, errs := adapter.Fetch(context.Background(), source.FetchRequest{
		DateFrom: time.Now().AddDate(0, 0, -1),
		DateTo:   time.Now(),
	})
	fetched, err := source.Drain(records, errs)

	assert.Empty(t, fetched)
	var apiErr *source.SourceAPIError
	require.ErrorAs(t, err, &apiErr)
}
