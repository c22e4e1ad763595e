package services

import (
	"errors"
	"io"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
)

// Sentinel errors the handlers map to HTTP statuses.
var (
	ErrParsingFailed    = errors.New("csv parsing failed")
	ErrStructural       = errors.New("csv structure invalid")
	ErrProcessingFailed = errors.New("operation processing failed")
	ErrSymbolNotFound   = errors.New("symbol configuration not found")
	ErrNoReport         = errors.New("no report available, upload a file first")
)

// UploadOutcome bundles the two pipeline outputs of one processed file.
type UploadOutcome struct {
	RunID     string                  `json:"run_id"`
	Report    *models.Report          `json:"report"`
	Arbitrage *models.ArbitrageReport `json:"arbitrage"`
}

// PipelineService runs the display and arbitrage pipelines over uploaded CSV
// exports and serves the latest results.
type PipelineService interface {
	ProcessUpload(fileReader io.Reader) (*UploadOutcome, error)
	GetLatestReport() (*models.Report, error)
	GetLatestArbitrage() (*models.ArbitrageReport, error)
	ClearOperations() error
}

// SymbolConfigService is the symbol-configuration store, last write wins.
type SymbolConfigService interface {
	Get(symbol string) (*models.SymbolConfig, error)
	List() ([]models.SymbolConfig, error)
	Save(cfg models.SymbolConfig) error
	Delete(symbol string) error
}
