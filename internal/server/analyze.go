package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/KaramelBytes/datasage-cli/internal/analysis"
	"github.com/KaramelBytes/datasage-cli/internal/dataset"
	"github.com/KaramelBytes/datasage-cli/internal/insight"
	"github.com/KaramelBytes/datasage-cli/internal/strategy"
)

type analyzeForm struct {
	File        *multipart.FileHeader `form:"file" binding:"required"`
	Target      string                `form:"target"`
	Insights    bool                  `form:"insights"`
	ParseDates  string                `form:"parse_dates"`
	Categorical string                `form:"categorical"`
	Delimiter   string                `form:"delimiter" binding:"omitempty,oneof=comma semicolon tab"`
}

// DatasetInfo describes the uploaded dataset.
type DatasetInfo struct {
	Name       string `json:"name"`
	Rows       int    `json:"rows"`
	SourceRows int    `json:"source_rows"`
	Columns    int    `json:"columns"`
	Truncated  bool   `json:"truncated"`
}

// AnalyzeResponse is the body of a successful POST /v1/analyze.
type AnalyzeResponse struct {
	RequestID   string             `json:"request_id"`
	Dataset     DatasetInfo        `json:"dataset"`
	Summary     *analysis.Summary  `json:"summary"`
	Strategy    *strategy.Report   `json:"strategy"`
	Warnings    []string           `json:"warnings,omitempty"`
	Insights    *insight.Narration `json:"insights,omitempty"`
	Explanation *insight.Narration `json:"explanation,omitempty"`
}

var delimiters = map[string]rune{"comma": ',', "semicolon": ';', "tab": '\t'}

// handleAnalyze handles POST /v1/analyze.
//
// The multipart form carries the dataset in "file". Optional fields: target,
// insights, parse_dates and categorical (comma separated), delimiter.
func (s *Server) handleAnalyze(c *gin.Context) {
	start := time.Now()
	requestID := getOrCreateRequestID(c)
	logger := s.logger.With("request_id", requestID, "handler", "analyze")
	defer func() { analyzeDuration.Observe(time.Since(start).Seconds()) }()

	fail := func(status int, code string, err error) {
		if status >= 500 {
			logger.Error("analyze failed", "code", code, "error", err)
		} else {
			logger.Warn("analyze rejected", "code", code, "error", err)
		}
		c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
	}

	if c.Request.ContentLength > s.cfg.MaxUploadBytes {
		fail(http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", fmt.Errorf("upload exceeds %d bytes", s.cfg.MaxUploadBytes))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	var form analyzeForm
	if err := c.ShouldBind(&form); err != nil {
		var tooBig *http.MaxBytesError
		var verrs validator.ValidationErrors
		switch {
		case errors.As(err, &tooBig):
			fail(http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", fmt.Errorf("upload exceeds %d bytes", s.cfg.MaxUploadBytes))
		case errors.As(err, &verrs) && failedField(verrs, "File"):
			fail(http.StatusBadRequest, "MISSING_FILE", errors.New("multipart field \"file\" is required"))
		default:
			fail(http.StatusBadRequest, "INVALID_REQUEST", err)
		}
		return
	}

	opt := dataset.DefaultOptions()
	opt.MaxRows = s.cfg.MaxRows
	opt.Delimiter = delimiters[form.Delimiter]
	opt.ParseDates = splitList(form.ParseDates)
	opt.Categorical = splitList(form.Categorical)

	f, err := form.File.Open()
	if err != nil {
		fail(http.StatusBadRequest, "INVALID_REQUEST", fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	ds, err := dataset.Read(form.File.Filename, f, opt)
	if err != nil {
		switch {
		case errors.Is(err, dataset.ErrUnsupported):
			fail(http.StatusBadRequest, "UNSUPPORTED_FORMAT", err)
		case errors.Is(err, dataset.ErrUnknownColumn):
			fail(http.StatusBadRequest, "UNKNOWN_COLUMN", err)
		default:
			fail(http.StatusInternalServerError, "LOAD_FAILED", err)
		}
		return
	}

	// A dataset without rows still gets a strategy report; only the summary
	// and the narration that depends on it are skipped.
	var warnings []string
	summary, err := analysis.Summarize(ds.Name, ds, analysis.DefaultOptions())
	if err != nil {
		logger.Warn("summary unavailable", "dataset", ds.Name, "error", err)
		warnings = append(warnings, fmt.Sprintf("summary unavailable: %v", err))
	}

	report := strategy.Recommend(ds)
	if form.Target != "" {
		report, err = strategy.ConfirmTarget(ds, report, form.Target)
		if err != nil {
			fail(http.StatusBadRequest, "UNKNOWN_COLUMN", err)
			return
		}
	}
	datasetsAnalyzed.WithLabelValues(string(report.ProblemType)).Inc()

	resp := AnalyzeResponse{
		RequestID: requestID,
		Dataset: DatasetInfo{
			Name:       ds.Name,
			Rows:       ds.Rows(),
			SourceRows: ds.SourceRows,
			Columns:    ds.Cols(),
			Truncated:  ds.Truncated(),
		},
		Summary:  summary,
		Strategy: report,
		Warnings: warnings,
	}
	if form.Insights && summary != nil {
		ctx := c.Request.Context()
		ins := s.cfg.Narrator.Insights(ctx, summary)
		exp := s.cfg.Narrator.Explain(ctx, ins.Text)
		for task, n := range map[insight.Task]insight.Narration{insight.TaskInsights: ins, insight.TaskExplain: exp} {
			if n.FellBack() {
				narrationFallbacks.WithLabelValues(string(task)).Inc()
			}
		}
		resp.Insights, resp.Explanation = &ins, &exp
	}

	logger.Info("dataset analyzed",
		"dataset", ds.Name,
		"rows", ds.Rows(),
		"columns", ds.Cols(),
		"problem_type", report.ProblemType)
	c.JSON(http.StatusOK, resp)
}

func failedField(verrs validator.ValidationErrors, field string) bool {
	for _, fe := range verrs {
		if fe.Field() == field {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
