package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/calendar"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/database"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/logger"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/processors"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")

	dir, err := os.MkdirTemp("", "procesador-test")
	if err != nil {
		panic(err)
	}
	database.InitDB(filepath.Join(dir, "test.db"))

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

const sampleCSV = `order_id,symbol,instrument,cfi_code,side,option_type,strike,quantity,price,venue,transact_time,event_type,status
o1,GFGC47343O,GFGC47343O,OCASPS,BUY,CALL,4734.3,10,120.5,CI,2025-10-31 11:00:00,Execution_Report,Filled
o2,S31O5,S31O5,DYXTXR,SELL,CALL,1,61,130.70,CI,2025-10-31 11:05:00,Execution_Report,Filled
o3,S31O5,S31O5,DYXTXR,BUY,CALL,1,61,130.91,24hs,2025-10-31 11:06:00,Execution_Report,Filled
c1,CAUCION,CAUCION $ 3D,RPXXXX,SELL,CALL,1,100000,30,CI,2025-10-31 11:10:00,Execution_Report,Filled
`

func newTestPipeline(t *testing.T) PipelineService {
	t.Helper()
	_, err := database.DB.Exec("DELETE FROM operations")
	require.NoError(t, err)
	reportCache := cache.New(time.Minute, time.Minute)
	return NewPipelineService(NewSymbolConfigService(), processors.DefaultFeeConfig(), calendar.NewArgentina(), reportCache, "GFG")
}

func arbitrageResult(t *testing.T, report *models.ArbitrageReport, instrumento string, patron models.Patron) models.ResultadoPatron {
	t.Helper()
	for _, r := range report.Resultados {
		if r.Instrumento == instrumento && r.Patron == patron {
			return r
		}
	}
	t.Fatalf("no result for %s %s", instrumento, patron)
	return models.ResultadoPatron{}
}

func TestProcessUploadEndToEnd(t *testing.T) {
	svc := newTestPipeline(t)

	outcome, err := svc.ProcessUpload(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.NotEmpty(t, outcome.RunID)

	// Display pipeline: only the GFG option row is in scope.
	report := outcome.Report
	assert.Equal(t, 4, report.Summary.RawRows)
	assert.Equal(t, 1, report.Summary.ValidRows)
	require.Len(t, report.Calls.Operations, 1)
	assert.InDelta(t, 10.0, report.Calls.Operations[0].TotalQuantity, 1e-9)
	assert.Equal(t, 3, report.Summary.Exclusions[processors.ExclOutOfScope])
	require.Len(t, report.Groups, 1)
	assert.Equal(t, "GFG", report.Groups[0].Symbol)

	// Arbitrage pipeline: the letra pair matches over the weekend term.
	arb := outcome.Arbitrage
	assert.InDelta(t, 30.0, arb.AvgTNA, 1e-9)
	require.Len(t, arb.Cauciones, 1)
	assert.Equal(t, models.CaucionTomadora, arb.Cauciones[0].Tipo)

	r := arbitrageResult(t, arb, "S31O5", models.PatronVentaCICompra24h)
	assert.Equal(t, 3, r.Plazo)
	assert.InDelta(t, 61.0, r.MatchedQty, 1e-9)
	assert.Equal(t, models.EstadoCompleto, r.Estado)
	assert.Negative(t, r.PnlTrade)
	assert.Positive(t, r.PnlCaucion)

	mirror := arbitrageResult(t, arb, "S31O5", models.PatronCompraCIVenta24h)
	assert.Equal(t, models.EstadoSinContraparte, mirror.Estado)
}

func TestProcessUploadIsDeterministic(t *testing.T) {
	svc := newTestPipeline(t)

	first, err := svc.ProcessUpload(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	second, err := svc.ProcessUpload(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Report.Views, second.Report.Views)
	assert.Equal(t, first.Report.Operations, second.Report.Operations)
	assert.Equal(t, first.Report.Groups, second.Report.Groups)
	assert.Equal(t, first.Arbitrage.Resultados, second.Arbitrage.Resultados)
}

func TestProcessUploadStructuralError(t *testing.T) {
	svc := newTestPipeline(t)

	_, err := svc.ProcessUpload(strings.NewReader("order_id,symbol\no1,GFG\n"))

	require.ErrorIs(t, err, ErrStructural)
	assert.Contains(t, err.Error(), "price")
}

func TestProcessUploadUnreadableHeader(t *testing.T) {
	svc := newTestPipeline(t)

	_, err := svc.ProcessUpload(strings.NewReader(""))

	require.ErrorIs(t, err, ErrParsingFailed)
}

func TestGetLatestReportRebuildsFromDatabase(t *testing.T) {
	svc := newTestPipeline(t)

	uploaded, err := svc.ProcessUpload(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	// A fresh service shares the database but not the cache.
	rebuilt := NewPipelineService(NewSymbolConfigService(), processors.DefaultFeeConfig(), calendar.NewArgentina(), cache.New(time.Minute, time.Minute), "GFG")
	report, err := rebuilt.GetLatestReport()
	require.NoError(t, err)
	assert.Equal(t, uploaded.Report.Calls, report.Calls)
	assert.Equal(t, uploaded.Report.Views.Averaged, report.Views.Averaged)
}

func TestClearOperations(t *testing.T) {
	svc := newTestPipeline(t)

	_, err := svc.ProcessUpload(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, svc.ClearOperations())

	_, err = svc.GetLatestReport()
	assert.ErrorIs(t, err, ErrNoReport)
	_, err = svc.GetLatestArbitrage()
	assert.ErrorIs(t, err, ErrNoReport)
}
