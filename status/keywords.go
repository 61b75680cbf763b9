package status

// Situation-text keyword tables, matched against the normalized situation
// string. All entries must already be diacritics-folded and lowercase.

// proposalsClosedPhrases mark the submission window as over without implying
// the process itself ended.
var proposalsClosedPhrases = []string{
	"propostas encerradas",
	"recebimento de propostas encerrado",
	"prazo de propostas encerrado",
}

// terminalKeywords mark the process as finished, successfully or not.
var terminalKeywords = []string{
	"homologad",
	"adjudicad",
	"anulad",
	"revogad",
	"fracassad",
	"desert",
	"suspens",
	"cancelad",
	"encerrad",
}

// judgmentKeywords mark the evaluation phase.
var judgmentKeywords = []string{
	"em julgamento",
	"julgamento",
	"em analise",
	"analise de propostas",
	"habilitacao",
	"em disputa",
}

// openKeywords mark an open submission window.
var openKeywords = []string{
	"recebendo propostas",
	"aberto",
	"aberta",
	"publicad",
	"divulgad",
	"agendad",
}
