package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/config"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/logger"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/services"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/utils"
)

type UploadHandler struct {
	pipelineService services.PipelineService
}

func NewUploadHandler(service services.PipelineService) *UploadHandler {
	return &UploadHandler{
		pipelineService: service,
	}
}

func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	logger.L.Info("Processing upload request", "filename", fileHeader.Filename)
	outcome, err := h.pipelineService.ProcessUpload(file)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStructural):
			logger.L.Warn("Upload rejected, CSV structure invalid", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("CSV structure invalid: %v", err), http.StatusUnprocessableEntity)
		case errors.Is(err, services.ErrParsingFailed):
			logger.L.Warn("Upload rejected, CSV unreadable", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error parsing CSV file: %v", err), http.StatusBadRequest)
		case errors.Is(err, services.ErrProcessingFailed):
			logger.L.Warn("Upload processing failed", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error processing operations in file: %v", err), http.StatusBadRequest)
		default:
			logger.L.Error("Internal error processing upload", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, outcome, http.StatusOK)
}
