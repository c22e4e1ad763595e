package services

import (
	"database/sql"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/database"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/logger"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type symbolConfigServiceImpl struct{}

// NewSymbolConfigService creates the sqlite-backed symbol configuration
// store.
func NewSymbolConfigService() SymbolConfigService {
	return &symbolConfigServiceImpl{}
}

func (s *symbolConfigServiceImpl) Get(symbol string) (*models.SymbolConfig, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	var raw string
	err := database.DB.QueryRow("SELECT config FROM symbol_configs WHERE symbol = ?", symbol).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrSymbolNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying symbol config %q: %w", symbol, err)
	}

	var cfg models.SymbolConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("error decoding stored config for %q: %w", symbol, err)
	}
	cfg.Symbol = symbol
	return &cfg, nil
}

func (s *symbolConfigServiceImpl) List() ([]models.SymbolConfig, error) {
	rows, err := database.DB.Query("SELECT symbol, config FROM symbol_configs ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("error listing symbol configs: %w", err)
	}
	defer rows.Close()

	var configs []models.SymbolConfig
	for rows.Next() {
		var symbol, raw string
		if err := rows.Scan(&symbol, &raw); err != nil {
			return nil, fmt.Errorf("error scanning symbol config row: %w", err)
		}
		var cfg models.SymbolConfig
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			logger.L.Warn("Skipping undecodable symbol config", "symbol", symbol, "error", err)
			continue
		}
		cfg.Symbol = symbol
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

func (s *symbolConfigServiceImpl) Save(cfg models.SymbolConfig) error {
	symbol := strings.ToUpper(strings.TrimSpace(cfg.Symbol))
	if symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrProcessingFailed)
	}
	cfg.Symbol = symbol

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error encoding config for %q: %w", symbol, err)
	}

	_, err = database.DB.Exec(`INSERT INTO symbol_configs (symbol, config, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(symbol) DO UPDATE SET config = excluded.config, updated_at = CURRENT_TIMESTAMP`, symbol, string(raw))
	if err != nil {
		return fmt.Errorf("error saving symbol config %q: %w", symbol, err)
	}
	logger.L.Info("Symbol config saved", "symbol", symbol)
	return nil
}

func (s *symbolConfigServiceImpl) Delete(symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	result, err := database.DB.Exec("DELETE FROM symbol_configs WHERE symbol = ?", symbol)
	if err != nil {
		return fmt.Errorf("error deleting symbol config %q: %w", symbol, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrSymbolNotFound
	}
	logger.L.Info("Symbol config deleted", "symbol", symbol)
	return nil
}
