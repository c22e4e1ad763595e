package handlers

import (
	"net/http"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/logger"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/services"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/utils"
)

type ReportHandler struct {
	pipelineService services.PipelineService
}

func NewReportHandler(service services.PipelineService) *ReportHandler {
	return &ReportHandler{
		pipelineService: service,
	}
}

func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.pipelineService.GetLatestReport()
	if err != nil {
		if services.IsNotFound(err) {
			utils.SendJSONError(w, "No report available. Upload a CSV file first.", http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving latest report", "error", err)
		utils.SendJSONError(w, "Error retrieving report", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, report, http.StatusOK)
}

func (h *ReportHandler) HandleGetArbitrage(w http.ResponseWriter, r *http.Request) {
	arbitrage, err := h.pipelineService.GetLatestArbitrage()
	if err != nil {
		if services.IsNotFound(err) {
			utils.SendJSONError(w, "No arbitrage report available. Upload a CSV file first.", http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving arbitrage report", "error", err)
		utils.SendJSONError(w, "Error retrieving arbitrage report", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, arbitrage, http.StatusOK)
}

func (h *ReportHandler) HandleDeleteOperations(w http.ResponseWriter, r *http.Request) {
	if err := h.pipelineService.ClearOperations(); err != nil {
		logger.L.Error("Error clearing operations", "error", err)
		utils.SendJSONError(w, "Error clearing operations", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]string{"message": "All stored operations deleted."}, http.StatusOK)
}
