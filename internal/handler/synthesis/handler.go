package synthesis

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/voiceify/internal/metrics"
	speechmodel "github.com/zhouzirui/voiceify/internal/model/speech"
	"github.com/zhouzirui/voiceify/internal/service/speech"
	synthsvc "github.com/zhouzirui/voiceify/internal/service/synthesis"
	"github.com/zhouzirui/voiceify/pkg/utils"
)

const maxBodyBytes = 64 << 10

// Synthesizer 抽象合成服务，便于测试
type Synthesizer interface {
	Synthesize(ctx context.Context, req speechmodel.Request) (string, error)
	BackendName() string
}

// AudioFiles 按名称定位音频文件
type AudioFiles interface {
	Path(name string) (string, error)
}

// Handler 合成网关的 HTTP 处理器
type Handler struct {
	svc     Synthesizer
	files   AudioFiles
	metrics *metrics.Metrics
}

// New 创建处理器
func New(svc Synthesizer, files AudioFiles, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, files: files, metrics: m}
}

// RegisterRoutes 注册合成与音频下载路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/synthesize", h.handleSynthesize)
	r.Get("/api/health", h.handleHealth)
	r.Get("/audio/{name}", h.handleAudio)
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req speechmodel.Request
	if err := utils.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		h.metrics.ObserveRequest(metrics.OutcomeInvalid)
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	text, err := speech.Validate(req.Text)
	if err != nil {
		h.metrics.ObserveRequest(metrics.OutcomeInvalid)
		switch {
		case errors.Is(err, speech.ErrTooLong):
			utils.RespondError(w, http.StatusBadRequest, "text is too long")
		default:
			utils.RespondError(w, http.StatusBadRequest, "text is required")
		}
		return
	}
	req.Text = text

	url, err := h.svc.Synthesize(r.Context(), req)
	if err != nil {
		log.Printf("[synthesis] %s error: %v", h.svc.BackendName(), err)
		if errors.Is(err, synthsvc.ErrBackend) {
			h.metrics.ObserveRequest(metrics.OutcomeBackendError)
			utils.RespondError(w, http.StatusBadGateway, "speech synthesis failed")
		} else {
			h.metrics.ObserveRequest(metrics.OutcomeStoreError)
			utils.RespondError(w, http.StatusInternalServerError, "failed to store audio")
		}
		return
	}

	h.metrics.ObserveRequest(metrics.OutcomeSuccess)
	utils.RespondJSON(w, http.StatusOK, speechmodel.Response{AudioURL: url})
}

func (h *Handler) handleAudio(w http.ResponseWriter, r *http.Request) {
	path, err := h.files.Path(chi.URLParam(r, "name"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "audio not found")
		return
	}
	http.ServeFile(w, r, path)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "synthesis",
		"backend": h.svc.BackendName(),
	})
}
