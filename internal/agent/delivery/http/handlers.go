package http

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"ci-integration-agent/internal/agent"
	"ci-integration-agent/internal/analysis/repository"
	"ci-integration-agent/pkg/response"
)

// CircleCIWebhook godoc
// @Summary     Receive a CircleCI webhook
// @Description Verifies the HMAC signature, parses the event and queues it for the agent's handlers.
// @Tags        Webhook
// @Accept      json
// @Produce     json
// @Param       X-Signature header string false "sha256=<hex hmac of the body>"
// @Success     200 {object} webhook.Result "Queued"
// @Failure     400 {object} webhook.Result "Malformed payload"
// @Failure     401 {object} webhook.Result "Signature missing or invalid"
// @Failure     403 {object} response.Resp  "Source IP not allowed"
// @Failure     429 {object} response.Resp  "Rate limited"
// @Failure     503 {object} webhook.Result "Agent not running or queue full"
// @Router      /webhook/circleci [POST]
func (h *handler) CircleCIWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		h.l.Errorf(ctx, "webhook: failed to read body: %v", err)
		response.Error(c, err, nil)
		return
	}

	res := h.agent.ProcessWebhook(ctx, c.Request.Header, body)
	c.JSON(webhookStatus(res), res)
}

// Status godoc
// @Summary     Integration status
// @Tags        Integration
// @Produce     json
// @Success     200 {object} response.Resp{data=agent.Status}
// @Router      /api/v1/integration/status [GET]
func (h *handler) Status(c *gin.Context) {
	response.OK(c, h.agent.IntegrationStatus())
}

// Metrics godoc
// @Summary     Integration metrics
// @Tags        Integration
// @Produce     json
// @Success     200 {object} response.Resp{data=agent.Metrics}
// @Router      /api/v1/integration/metrics [GET]
func (h *handler) Metrics(c *gin.Context) {
	response.OK(c, h.agent.Metrics())
}

// Health godoc
// @Summary     Integration health
// @Tags        Integration
// @Produce     json
// @Success     200 {object} response.Resp{data=agent.Health}
// @Failure     503 {object} response.Resp{data=agent.Health}
// @Router      /api/v1/integration/health [GET]
func (h *handler) Health(c *gin.Context) {
	health := h.agent.HealthCheck()
	if !health.Healthy {
		response.ServiceUnavailable(c, health)
		return
	}
	response.OK(c, health)
}

// Tasks godoc
// @Summary     List running analysis tasks
// @Tags        Tasks
// @Produce     json
// @Success     200 {object} response.Resp{data=tasksResp}
// @Router      /api/v1/integration/tasks [GET]
func (h *handler) Tasks(c *gin.Context) {
	response.OK(c, newTasksResp(h.agent.ActiveTasks()))
}

// CancelTask godoc
// @Summary     Cancel a running analysis task
// @Tags        Tasks
// @Produce     json
// @Param       id path string true "Task ID"
// @Success     200 {object} response.Resp{data=cancelResp}
// @Failure     404 {object} response.Resp "Not Found"
// @Router      /api/v1/integration/tasks/{id} [DELETE]
func (h *handler) CancelTask(c *gin.Context) {
	id := c.Param("id")
	if !h.agent.CancelTask(id) {
		response.NotFound(c, agent.ErrTaskNotFound.Error())
		return
	}
	response.OK(c, cancelResp{ID: id, Cancelled: true})
}

// Events godoc
// @Summary     Recent webhook events
// @Tags        Integration
// @Produce     json
// @Success     200 {object} response.Resp{data=eventsResp}
// @Router      /api/v1/integration/events [GET]
func (h *handler) Events(c *gin.Context) {
	p := h.agent.Processor()
	response.OK(c, eventsResp{Events: p.RecentEvents(), Queue: p.QueueInfo()})
}

// Handlers godoc
// @Summary     Registered event handlers
// @Tags        Integration
// @Produce     json
// @Success     200 {object} response.Resp{data=handlersResp}
// @Router      /api/v1/integration/handlers [GET]
func (h *handler) Handlers(c *gin.Context) {
	response.OK(c, handlersResp{Handlers: h.agent.Processor().Handlers()})
}

// Analyses godoc
// @Summary     Recent failure analyses
// @Tags        Integration
// @Produce     json
// @Param       project query string false "Project slug, e.g. gh/acme/api"
// @Param       limit   query int    false "Max results (default: 20)"
// @Success     200 {object} response.Resp{data=analysesResp}
// @Failure     400 {object} response.Resp "Bad Request"
// @Failure     500 {object} response.Resp "Internal Server Error"
// @Router      /api/v1/integration/analyses [GET]
func (h *handler) Analyses(c *gin.Context) {
	ctx := c.Request.Context()

	opt := repository.ListOptions{ProjectSlug: c.Query("project")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			response.Error(c, errInvalidLimit, nil)
			return
		}
		opt.Limit = limit
	}

	analyses, err := h.agent.RecentAnalyses(ctx, opt)
	if err != nil {
		h.l.Errorf(ctx, "agent.RecentAnalyses: %v", err)
		response.InternalError(c, err)
		return
	}
	response.OK(c, newAnalysesResp(analyses))
}
