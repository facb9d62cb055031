package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"finalyze/internal/amqp"
	"finalyze/internal/core"
	"finalyze/internal/email"
	"finalyze/internal/log"
	"finalyze/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)
	fail := func(name, msg string) {
		checks[name] = msg
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if s.templates == nil {
		fail("templates", "failed: templates not loaded")
	} else {
		checks["templates"] = "ok"
	}

	if s.reports == nil {
		fail("report_source", "not_configured")
	} else {
		checks["report_source"] = "ok"
	}

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			fail("outbox", fmt.Sprintf("failed: %v", err))
		} else {
			checks["outbox"] = "ok"
		}
	} else {
		checks["outbox"] = "not_configured"
	}

	if s.outbox.Enabled() {
		checks["publisher"] = "ok"
	} else {
		checks["publisher"] = "disabled"
	}

	checks["render_cache"] = s.renderCache.Stats()

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	cacheStats := s.renderCache.Stats()

	w.Header().Set("Content-Type", contentTypeText)
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_request_duration_avg_seconds", "gauge", "Average HTTP request duration", traceMetrics.AverageResponseTime().Seconds())
	metric("render_cache_hits_total", "counter", "Total render cache hits", cacheStats.Hits)
	metric("render_cache_misses_total", "counter", "Total render cache misses", cacheStats.Misses)
	metric("render_cache_entries", "gauge", "Current render cache entries", cacheStats.Size)
	metric("rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("blocked_requests_total", "counter", "Total requests rejected by method", securityMetrics.BlockedRequests)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.startedAt).Seconds()))
}

type previewLink struct {
	Type    email.EmailType
	Subject string
}

func (s *Server) handlePreviewIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		InternalServerError("templates not loaded").Write(w)
		return
	}

	var links []previewLink
	for _, t := range []email.EmailType{email.MonthlyReport, email.BudgetAlert} {
		req := email.Fallback(t)
		links = append(links, previewLink{Type: t, Subject: email.Render(&req).Subject()})
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	if err := s.templates.ExecuteTemplate(w, "preview_index.html", map[string]any{"Previews": links}); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Preview index template execution failed", log.FieldError, err)
	}
}

// handlePreview renders the preview data for a type. Unknown types get the
// monthly-report preview, as an incomplete request would.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	format, err := ParseFormat(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	msg := email.ComposePreview(email.EmailType(r.PathValue("type")))
	NewResponse().Email(msg, format).Write(w)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	format, err := ParseFormat(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	body, err := ReadBody(w, r)
	if err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			PayloadTooLargeError(fmt.Sprintf("request body exceeds %d bytes", MaxBodyBytes)).Write(w)
			return
		}
		BadRequestError("failed to read request body").Write(w)
		return
	}

	msg, hit, err := s.renderCache.GetOrCompute(renderKey(body), func() (email.Message, error) {
		req, err := DecodeRenderRequest(body)
		if err != nil {
			return email.Message{}, err
		}
		msg := email.Compose(req)
		log.NewStructuredLogger(logger).LogEmailRendered(ctx, string(msg.Type), msg.Subject, msg.Fallback, len(msg.HTML))
		return msg, nil
	})
	if err != nil {
		logger.WarnContext(ctx, "Invalid render request", log.FieldError, err, log.FieldOperation, log.OpParse)
		BadRequestError(err.Error()).Write(w)
		return
	}

	cacheStatus := "MISS"
	if hit {
		cacheStatus = "HIT"
	}
	NewResponse().Header("X-Cache", cacheStatus).Email(msg, format).Write(w)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		ServiceUnavailableError("report source not configured").Write(w)
		return
	}
	q := r.URL.Query()
	format, err := ParseFormat(q)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	params, err := ParseMonthParams(q, s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	income, err := ParseAmountParam(q, "income")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	req, err := s.reports.MonthlyReport(r.Context(), sanitizeInput(q.Get("user")), params.Year, params.Month, income)
	if err != nil {
		s.writeReportError(w, r, err)
		return
	}
	NewResponse().Email(email.Compose(req), format).Write(w)
}

func (s *Server) handleBudgetAlert(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		ServiceUnavailableError("report source not configured").Write(w)
		return
	}
	q := r.URL.Query()
	format, err := ParseFormat(q)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	params, err := ParseMonthParams(q, s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	budget, err := ParseAmountParam(q, "budget")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if budget.Paise == 0 {
		BadRequestError("budget is required").Write(w)
		return
	}

	req, fire, err := s.reports.MonthlyBudgetAlert(r.Context(), sanitizeInput(q.Get("user")), params.Year, params.Month, budget)
	if err != nil {
		s.writeReportError(w, r, err)
		return
	}
	NewResponse().
		Header("X-Alert-Triggered", fmt.Sprint(fire)).
		Email(email.Compose(req), format).
		Write(w)
}

func (s *Server) writeReportError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrMissingUser),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidAmount):
		BadRequestError(err.Error()).Write(w)
	default:
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Report source read failed", err, log.ComponentReport, log.OpRead, nil)
		BadGatewayError("report source unavailable").Write(w)
	}
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !s.outbox.Enabled() {
		ServiceUnavailableError("outbox publisher not configured").Write(w)
		return
	}

	body, err := ReadBody(w, r)
	if err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			PayloadTooLargeError(fmt.Sprintf("request body exceeds %d bytes", MaxBodyBytes)).Write(w)
			return
		}
		BadRequestError("failed to read request body").Write(w)
		return
	}
	in, err := DecodeOutboxRequest(body)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	id, err := s.outbox.Enqueue(ctx, in.Recipient, in.Request)
	switch {
	case err == nil:
		NewResponse().Status(http.StatusAccepted).JSON(map[string]string{"id": id, "status": "queued"}).Write(w)
	case errors.Is(err, services.ErrNoPublisher), errors.Is(err, amqp.ErrCircuitOpen):
		ServiceUnavailableError("outbox publisher unavailable").Write(w)
	case errors.Is(err, amqp.ErrMissingRecipient):
		BadRequestError(err.Error()).Write(w)
	default:
		log.NewStructuredLogger(log.FromContext(ctx)).
			LogError(ctx, "Failed to enqueue render request", err, log.ComponentAMQP, log.OpPublish, nil)
		BadGatewayError("failed to enqueue render request").Write(w)
	}
}
