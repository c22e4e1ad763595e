package handlers

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/logger"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/services"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type SymbolHandler struct {
	symbolService services.SymbolConfigService
}

func NewSymbolHandler(service services.SymbolConfigService) *SymbolHandler {
	return &SymbolHandler{
		symbolService: service,
	}
}

func (h *SymbolHandler) HandleListSymbols(w http.ResponseWriter, r *http.Request) {
	configs, err := h.symbolService.List()
	if err != nil {
		logger.L.Error("Error listing symbol configs", "error", err)
		utils.SendJSONError(w, "Error listing symbol configurations", http.StatusInternalServerError)
		return
	}
	if configs == nil {
		configs = []models.SymbolConfig{}
	}
	utils.SendJSON(w, configs, http.StatusOK)
}

func (h *SymbolHandler) HandleGetSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	cfg, err := h.symbolService.Get(symbol)
	if err != nil {
		if errors.Is(err, services.ErrSymbolNotFound) {
			utils.SendJSONError(w, "Symbol configuration not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving symbol config", "symbol", symbol, "error", err)
		utils.SendJSONError(w, "Error retrieving symbol configuration", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, cfg, http.StatusOK)
}

func (h *SymbolHandler) HandlePutSymbol(w http.ResponseWriter, r *http.Request) {
	var cfg models.SymbolConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		utils.SendJSONError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	// The path segment is authoritative over whatever the body claims.
	cfg.Symbol = r.PathValue("symbol")

	if err := h.symbolService.Save(cfg); err != nil {
		if errors.Is(err, services.ErrProcessingFailed) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.L.Error("Error saving symbol config", "symbol", cfg.Symbol, "error", err)
		utils.SendJSONError(w, "Error saving symbol configuration", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, cfg, http.StatusOK)
}

func (h *SymbolHandler) HandleDeleteSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if err := h.symbolService.Delete(symbol); err != nil {
		if errors.Is(err, services.ErrSymbolNotFound) {
			utils.SendJSONError(w, "Symbol configuration not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Error deleting symbol config", "symbol", symbol, "error", err)
		utils.SendJSONError(w, "Error deleting symbol configuration", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]string{"message": "Symbol configuration deleted."}, http.StatusOK)
}
