package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"horse.fit/csvtrans/internal/db"
	"horse.fit/csvtrans/internal/discovery"
	"horse.fit/csvtrans/internal/orchestrator"
	"horse.fit/csvtrans/internal/table"
	"horse.fit/csvtrans/internal/translation"
)

const (
	headerRows        = "X-Csvtrans-Rows"
	headerFailedCells = "X-Csvtrans-Failed-Cells"
)

type backendInfo struct {
	Kind    string   `json:"kind"`
	Default bool     `json:"default"`
	Models  []string `json:"models,omitempty"`
}

type catalogResponse struct {
	Address string   `json:"address"`
	Items   []string `json:"items"`
	Error   string   `json:"error,omitempty"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (s *Server) handleHealth(c echo.Context) error {
	ledger := "disabled"
	if s.ledger != nil {
		ledger = "enabled"
		if p, ok := s.ledger.(pinger); ok {
			if err := p.Ping(c.Request().Context()); err != nil {
				s.logger.Warn().Err(err).Msg("ledger ping failed")
				ledger = "unreachable"
			}
		}
	}
	return success(c, map[string]any{
		"service": "csvtrans",
		"ledger":  ledger,
		"time":    time.Now().UTC(),
	})
}

func (s *Server) handleBackends(c echo.Context) error {
	defaultKind, _ := translation.ParseKind(s.cfg.Backend)
	kinds := translation.DefaultRegistry.Kinds()
	items := make([]backendInfo, 0, len(kinds))
	for _, kind := range kinds {
		info := backendInfo{Kind: kind, Default: translation.Kind(kind) == defaultKind}
		if translation.Kind(kind) == translation.KindCloudChat {
			info.Models = discovery.CloudModels()
		}
		items = append(items, info)
	}
	return success(c, map[string]any{"items": items})
}

func (s *Server) handleModels(c echo.Context) error {
	address := strings.TrimSpace(c.QueryParam("address"))
	if address == "" {
		address = s.cfg.OllamaAddress
	}
	if address == "" {
		address = translation.DefaultLocalAddress
	}

	models, err := s.discovery.ListModels(c.Request().Context(), address)
	resp := catalogResponse{Address: address, Items: models}
	if err != nil {
		resp.Error = err.Error()
	}
	return success(c, resp)
}

func (s *Server) handleLanguages(c echo.Context) error {
	address := strings.TrimSpace(c.QueryParam("address"))
	if address == "" {
		address = s.cfg.LibreTranslateAddress
	}
	if address == "" {
		address = translation.DefaultDedicatedAddress
	}
	rawPolicy := c.QueryParam("fallback")
	if strings.TrimSpace(rawPolicy) == "" {
		rawPolicy = s.cfg.LibreTranslateFallback
	}
	policy, err := translation.ParseFallbackPolicy(rawPolicy)
	if err != nil {
		return failValidation(c, map[string]string{"fallback": err.Error()})
	}

	languages, err := s.discovery.ListLanguages(c.Request().Context(), address, policy)
	resp := catalogResponse{Address: address, Items: languages}
	if err != nil {
		resp.Error = err.Error()
	}
	return success(c, resp)
}

func (s *Server) handleTranslate(c echo.Context) error {
	fieldErrors := map[string]string{}

	rawKind := strings.TrimSpace(c.FormValue("backend"))
	if rawKind == "" {
		rawKind = s.cfg.Backend
	}
	kind, err := translation.ParseKind(rawKind)
	if err != nil {
		fieldErrors["backend"] = err.Error()
	}

	raw, err := s.readUpload(c)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		fieldErrors["file"] = err.Error()
	}
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	input, err := table.Parse(raw)
	if err != nil {
		return failValidation(c, map[string]string{"file": err.Error()})
	}

	params := s.cfg.BackendParams(kind).Merge(translation.Params{
		Model:        c.FormValue("model"),
		APIKey:       c.FormValue("api_key"),
		Address:      c.FormValue("address"),
		Source:       c.FormValue("source"),
		Target:       c.FormValue("target"),
		Fallback:     c.FormValue("fallback"),
		DetectSource: formBool(c.FormValue("detect_source")),
	})
	backendCfg, err := translation.BuildConfig(kind, params)
	if err != nil {
		return failValidation(c, map[string]string{"fallback": err.Error()})
	}
	if err := orchestrator.Preflight(backendCfg); err != nil {
		return fail(c, http.StatusBadRequest, err.Error(), nil)
	}

	backend, err := s.newBackend(backendCfg)
	if err != nil {
		s.logger.Error().Err(err).Str("backend", string(kind)).Msg("build backend failed")
		return internalError(c, "Failed to initialize backend")
	}

	prompt := c.FormValue("prompt")
	if strings.TrimSpace(prompt) == "" {
		prompt = s.cfg.Prompt
	}
	result := orchestrator.New(backend, s.logger).TranslateTable(c.Request().Context(), input, orchestrator.Options{
		Prompt: prompt,
	})

	out, err := table.Serialize(result.Table)
	if err != nil {
		s.logger.Error().Err(err).Msg("serialize table failed")
		return internalError(c, "Failed to encode translated table")
	}

	s.recordRun(c, db.DetailsFor("http", backendCfg), result)

	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", table.OutputFileName))
	header.Set(headerRows, strconv.Itoa(result.Stats.Rows))
	header.Set(headerFailedCells, strconv.Itoa(result.Stats.Failed))
	return c.Blob(http.StatusOK, table.ContentType, out)
}

func (s *Server) readUpload(c echo.Context) ([]byte, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("file is required")
	}
	limit := s.cfg.MaxUploadBytes
	if limit > 0 && fileHeader.Size > limit {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", limit))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return raw, nil
}

func (s *Server) recordRun(c echo.Context, details db.RunDetails, result orchestrator.RunResult) {
	if s.ledger == nil {
		return
	}
	run := db.NewTranslationRun(details, result)
	if err := s.ledger.RecordRun(c.Request().Context(), run); err != nil {
		s.logger.Error().Err(err).Str("run_uuid", run.RunUUID).Msg("record translation run failed")
	}
}

func (s *Server) handleRuns(c echo.Context) error {
	if s.ledger == nil {
		return failNotFound(c, "Run ledger is not configured")
	}
	limit, err := parsePositiveInt(c.QueryParam("limit"), db.DefaultRunListLimit, 1, db.MaxRunListLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	runs, err := s.ledger.ListRuns(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list translation runs failed")
		return internalError(c, "Failed to load runs")
	}
	return success(c, map[string]any{"items": runs})
}

func formBool(raw string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && value
}
