package services

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/calendar"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/database"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/enrich"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/logger"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/parsers"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/processors"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/utils"
)

const (
	ckLatestReport    = "agg_latest_report"
	ckLatestArbitrage = "agg_latest_arbitrage"
)

type pipelineServiceImpl struct {
	csvParser    *parsers.CSVParser
	symbols      SymbolConfigService
	feeConfig    processors.FeeConfig
	cal          *calendar.Calendar
	consolidator processors.Consolidator
	aggregator   processors.Aggregator
	pnlEngine    processors.PnLEngine
	reportCache  *cache.Cache
	activeSymbol string
}

// NewPipelineService wires both pipelines over the shared stores. Fee
// calculators and resolvers are built per run so their dedup-warning state
// never leaks across uploads.
func NewPipelineService(
	symbols SymbolConfigService,
	feeConfig processors.FeeConfig,
	cal *calendar.Calendar,
	reportCache *cache.Cache,
	activeSymbol string,
) PipelineService {
	return &pipelineServiceImpl{
		csvParser:    parsers.NewCSVParser(),
		symbols:      symbols,
		feeConfig:    feeConfig,
		cal:          cal,
		consolidator: processors.NewConsolidator(),
		aggregator:   processors.NewAggregator(cal),
		pnlEngine:    processors.NewPnLEngine(),
		reportCache:  reportCache,
		activeSymbol: activeSymbol,
	}
}

func (s *pipelineServiceImpl) ProcessUpload(fileReader io.Reader) (*UploadOutcome, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger.L.Info("ProcessUpload START", "runID", runID)

	parsed, err := s.csvParser.Parse(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	configs, err := s.symbols.List()
	if err != nil {
		logger.L.Warn("Could not load symbol configurations, enriching without them", "error", err)
		configs = nil
	}
	var activeCfg *models.SymbolConfig
	for i := range configs {
		if configs[i].Symbol == strings.ToUpper(s.activeSymbol) {
			activeCfg = &configs[i]
			break
		}
	}

	validator := processors.NewRowValidator(s.activeSymbol, activeCfg)
	valid, exclusions, err := validator.ValidateAndFilter(parsed.Headers, parsed.Rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStructural, err)
	}

	enriched := s.enrichRows(valid, configs)
	report := s.buildReport(len(parsed.Rows), parsed.Warnings, exclusions, enriched, start)

	arbitrage := s.runArbitragePipeline(parsed.Rows, start)

	if err := s.persistOperations(runID, enriched); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}

	s.reportCache.Set(ckLatestReport, report, cache.DefaultExpiration)
	s.reportCache.Set(ckLatestArbitrage, arbitrage, cache.DefaultExpiration)

	logger.L.Info("ProcessUpload END", "runID", runID,
		"rawRows", len(parsed.Rows), "validRows", len(valid),
		"resultados", len(arbitrage.Resultados), "duration", time.Since(start))
	return &UploadOutcome{RunID: runID, Report: report, Arbitrage: arbitrage}, nil
}

// enrichRows resolves symbol/strike/expiration for every valid row and
// prices its fee. IDs are derived from the row order so identical inputs
// yield identical output.
func (s *pipelineServiceImpl) enrichRows(valid []models.RawRow, configs []models.SymbolConfig) []models.EnrichedOperation {
	resolver := enrich.NewResolver(configs)
	feeCalc := processors.NewFeeCalculator(s.feeConfig)

	enriched := make([]models.EnrichedOperation, 0, len(valid))
	for i, row := range valid {
		op := resolver.EnrichRow(row)
		op.ID = fmt.Sprintf("enr-%s-%d", op.OrderID, i)
		op.Quantity, _ = utils.ParseDecimal(row["quantity"])
		op.Price, _ = utils.ParseDecimal(row["price"])

		category := feeCalc.ResolveCfiCategory(strings.ToUpper(strings.TrimSpace(row["cfi_code"])))
		op.Fee, _ = feeCalc.CalculateFee(utils.AbsFloat(op.Quantity*op.Price), category)

		enriched = append(enriched, op)
	}
	return enriched
}

func (s *pipelineServiceImpl) buildReport(rawRows int, warnings []string, exclusions models.Exclusions, enriched []models.EnrichedOperation, processedAt time.Time) *models.Report {
	raw := s.consolidator.Consolidate(enriched, false)
	averaged := s.consolidator.Consolidate(enriched, true)

	summaryExclusions := make(models.Exclusions, len(exclusions)+len(averaged.Exclusions))
	for reason, n := range exclusions {
		summaryExclusions[reason] += n
	}
	for reason, n := range averaged.Exclusions {
		summaryExclusions[reason] += n
	}

	return &models.Report{
		Summary: models.ReportSummary{
			RawRows:     rawRows,
			ValidRows:   len(enriched),
			CallsRows:   len(averaged.Calls),
			PutsRows:    len(averaged.Puts),
			TotalRows:   len(averaged.Calls) + len(averaged.Puts),
			Exclusions:  summaryExclusions,
			Warnings:    warnings,
			ProcessedAt: processedAt,
		},
		Calls:      models.ReportSide{Operations: averaged.Calls},
		Puts:       models.ReportSide{Operations: averaged.Puts},
		Views:      models.ReportViews{Raw: raw, Averaged: averaged},
		Groups:     groupSummaries(enriched),
		Operations: enriched,
	}
}

// runArbitragePipeline works over the full row set: the term-arbitrage legs
// (letras, bonds, cauciones) are exactly the rows the options validator
// scopes out.
func (s *pipelineServiceImpl) runArbitragePipeline(rows []models.RawRow, processedAt time.Time) *models.ArbitrageReport {
	opParser := parsers.NewOperacionParser(processors.NewFeeCalculator(s.feeConfig))
	operaciones, cauciones, exclusions := opParser.Parse(rows)

	jornada := processedAt
	for _, op := range operaciones {
		if !op.FechaHora.IsZero() && op.FechaHora.Before(jornada) {
			jornada = op.FechaHora
		}
	}

	grupos := s.aggregator.AggregateByInstrumentoPlazo(operaciones, cauciones, jornada)
	resultados := s.pnlEngine.Compute(grupos)

	avgTNA := 0.0
	for _, r := range resultados {
		if r.AvgTNA > 0 {
			avgTNA = r.AvgTNA
			break
		}
	}

	return &models.ArbitrageReport{
		Jornada:     jornada,
		AvgTNA:      avgTNA,
		Grupos:      len(grupos),
		Operaciones: len(operaciones),
		Cauciones:   cauciones,
		Exclusions:  exclusions,
		Resultados:  resultados,
		ProcessedAt: processedAt,
	}
}

// groupSummaries counts calls and puts per (symbol, expiration) in first-seen
// order.
func groupSummaries(enriched []models.EnrichedOperation) []models.GroupSummary {
	index := make(map[string]int)
	var groups []models.GroupSummary
	for _, op := range enriched {
		id := op.Symbol + "-" + op.Expiration
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, models.GroupSummary{ID: id, Symbol: op.Symbol, Expiration: op.Expiration})
		}
		switch op.OptionType {
		case models.TypeCall:
			groups[i].Calls++
		case models.TypePut:
			groups[i].Puts++
		}
		groups[i].Total++
	}
	return groups
}

// persistOperations replaces the stored operations with the latest run's, so
// the report survives a restart without re-upload.
func (s *pipelineServiceImpl) persistOperations(runID string, enriched []models.EnrichedOperation) error {
	dbTx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec("DELETE FROM operations"); err != nil {
		return fmt.Errorf("error clearing previous operations: %w", err)
	}

	stmt, err := dbTx.Prepare(`INSERT INTO operations (id, run_id, order_id, symbol, expiration, strike, option_type, quantity, price, side, fee) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, op := range enriched {
		var strike interface{}
		if op.Strike != nil {
			strike = *op.Strike
		}
		if _, err := stmt.Exec(op.ID, runID, op.OrderID, op.Symbol, op.Expiration, strike, op.OptionType, op.Quantity, op.Price, op.Side, op.Fee); err != nil {
			return fmt.Errorf("error inserting operation %s: %w", op.ID, err)
		}
	}

	return dbTx.Commit()
}

func (s *pipelineServiceImpl) GetLatestReport() (*models.Report, error) {
	if cached, found := s.reportCache.Get(ckLatestReport); found {
		logger.L.Debug("Cache hit for latest report")
		return cached.(*models.Report), nil
	}

	logger.L.Info("Cache miss for latest report, rebuilding from database")
	enriched, err := fetchStoredOperations()
	if err != nil {
		return nil, err
	}
	if len(enriched) == 0 {
		return nil, ErrNoReport
	}

	report := s.buildReport(len(enriched), nil, models.Exclusions{}, enriched, time.Now())
	s.reportCache.Set(ckLatestReport, report, cache.DefaultExpiration)
	return report, nil
}

func (s *pipelineServiceImpl) GetLatestArbitrage() (*models.ArbitrageReport, error) {
	if cached, found := s.reportCache.Get(ckLatestArbitrage); found {
		return cached.(*models.ArbitrageReport), nil
	}
	// Arbitrage results are derived per upload and not persisted.
	return nil, ErrNoReport
}

func (s *pipelineServiceImpl) ClearOperations() error {
	if _, err := database.DB.Exec("DELETE FROM operations"); err != nil {
		return fmt.Errorf("error clearing operations: %w", err)
	}
	s.reportCache.Delete(ckLatestReport)
	s.reportCache.Delete(ckLatestArbitrage)
	logger.L.Info("Cleared persisted operations and caches")
	return nil
}

func fetchStoredOperations() ([]models.EnrichedOperation, error) {
	rows, err := database.DB.Query(`SELECT id, order_id, symbol, expiration, strike, option_type, quantity, price, side, fee FROM operations ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("error querying stored operations: %w", err)
	}
	defer rows.Close()

	var enriched []models.EnrichedOperation
	for rows.Next() {
		var op models.EnrichedOperation
		var strike *float64
		if err := rows.Scan(&op.ID, &op.OrderID, &op.Symbol, &op.Expiration, &strike, &op.OptionType, &op.Quantity, &op.Price, &op.Side, &op.Fee); err != nil {
			return nil, fmt.Errorf("error scanning stored operation: %w", err)
		}
		op.Strike = strike
		enriched = append(enriched, op)
	}
	return enriched, rows.Err()
}

// IsNotFound reports whether err is one of the "nothing stored yet" errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoReport) || errors.Is(err, ErrSymbolNotFound)
}
