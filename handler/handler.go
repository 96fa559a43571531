package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"support-agent/internal/domain"
	"support-agent/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// ChatUseCase is the chat service consumed by the handler.
type ChatUseCase interface {
	Start(ctx context.Context) (usecase.StartOutput, error)
	Send(ctx context.Context, in usecase.SendInput) (usecase.SendOutput, error)
}

// Handler adapts API Gateway proxy events to the chat use case. It keeps no
// conversation data: the client echoes the returned state on its next
// message.
type Handler struct {
	uc     ChatUseCase
	logger *slog.Logger
}

type messageRequest struct {
	CustomerKey string                   `json:"customerKey"`
	Message     string                   `json:"message"`
	State       domain.ConversationState `json:"state"`
}

type chatResponse struct {
	Reply string                   `json:"reply"`
	State domain.ConversationState `json:"state"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func NewHandler(uc ChatUseCase) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	return &Handler{uc: uc, logger: slog.Default()}, nil
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger := h.logger.With("correlation_id", correlationID, "path", req.Path)

	path := strings.TrimRight(req.Path, "/")
	switch {
	case strings.HasSuffix(path, "/chat/start"):
		if req.HTTPMethod != http.MethodPost {
			return h.fail(logger, correlationID, http.StatusMethodNotAllowed, usecase.ErrorInvalidInput, "method_not_allowed"), nil
		}
		return h.start(ctx, logger, correlationID), nil
	case strings.HasSuffix(path, "/chat/message"):
		if req.HTTPMethod != http.MethodPost {
			return h.fail(logger, correlationID, http.StatusMethodNotAllowed, usecase.ErrorInvalidInput, "method_not_allowed"), nil
		}
		return h.message(ctx, logger, correlationID, req.Body), nil
	}
	return h.fail(logger, correlationID, http.StatusNotFound, usecase.ErrorNotFound, "route_not_found"), nil
}

func (h *Handler) start(ctx context.Context, logger *slog.Logger, correlationID string) events.APIGatewayProxyResponse {
	out, err := h.uc.Start(ctx)
	if err != nil {
		return h.failWith(logger, correlationID, err)
	}
	logger.Info("conversation started", "conversation_id", out.State.ID)
	return respond(http.StatusOK, correlationID, chatResponse{Reply: out.Reply, State: out.State})
}

func (h *Handler) message(ctx context.Context, logger *slog.Logger, correlationID, body string) events.APIGatewayProxyResponse {
	var req messageRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		logger.Warn("invalid request body", "err", err)
		return h.fail(logger, correlationID, http.StatusBadRequest, usecase.ErrorInvalidInput, "invalid_body")
	}

	out, err := h.uc.Send(ctx, usecase.SendInput{
		CustomerKey: req.CustomerKey,
		Message:     req.Message,
		State:       req.State,
	})
	if err != nil {
		return h.failWith(logger, correlationID, err)
	}
	logger.Info("message answered",
		"conversation_id", out.State.ID,
		"pending_slot", string(out.State.PendingSlot),
		"active_intent", string(out.State.ActiveIntent),
	)
	return respond(http.StatusOK, correlationID, chatResponse{Reply: out.Reply, State: out.State})
}

func (h *Handler) failWith(logger *slog.Logger, correlationID string, err error) events.APIGatewayProxyResponse {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		logger.Error("unexpected error", "err", err)
		return respond(http.StatusInternalServerError, correlationID, errorResponse{Error: string(usecase.ErrorInternal)})
	}
	status := statusFor(ucErr.Code)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", ucErr.Code, "reason", ucErr.Reason, "err", ucErr.Err)
	} else {
		logger.Info("request rejected", "code", ucErr.Code, "reason", ucErr.Reason)
	}
	return respond(status, correlationID, errorResponse{Error: string(ucErr.Code), Reason: ucErr.Reason})
}

func (h *Handler) fail(logger *slog.Logger, correlationID string, status int, code usecase.ErrorCode, reason string) events.APIGatewayProxyResponse {
	logger.Info("request rejected", "code", code, "reason", reason)
	return respond(status, correlationID, errorResponse{Error: string(code), Reason: reason})
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorNotFound:
		return http.StatusNotFound
	case usecase.ErrorCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respond(status int, correlationID string, body any) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		raw = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(raw),
	}
}

// headerValue looks up a header case-insensitively. API Gateway passes
// headers through with whatever casing the client used.
func headerValue(headers map[string]string, key string) string {
	if v, ok := headers[key]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
