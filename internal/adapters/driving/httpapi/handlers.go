package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/custodia-labs/hybridrag/internal/adapters/wire"
	"github.com/custodia-labs/hybridrag/internal/core/domain"
	"github.com/custodia-labs/hybridrag/internal/logger"
)

func (s *Server) registerRoutes() {
	s.app.Get(wire.PathHealth, s.handleHealth)
	s.app.Get(wire.PathModelInfo, s.handleModelInfo)
	s.app.Post(wire.PathEmbed, s.handleEmbed)
	s.app.Post(wire.PathEmbedBatch, s.handleEmbedBatch)
	s.app.Post(wire.PathEmbedChunks, s.handleEmbedChunks)
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	status := s.service.Health()
	if !status.Ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	return c.JSON(status)
}

func (s *Server) handleModelInfo(c fiber.Ctx) error {
	info, err := s.service.ModelInfo()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(info)
}

func (s *Server) handleEmbed(c fiber.Ctx) error {
	var body wire.EmbedRequest
	if err := c.Bind().JSON(&body); err != nil {
		return writeBindError(c, err)
	}

	vec, err := s.service.EmbedOne(c.Context(), body.Text)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(wire.EmbedResponse{Text: body.Text, Embedding: vec})
}

func (s *Server) handleEmbedBatch(c fiber.Ctx) error {
	var body wire.EmbedBatchRequest
	if err := c.Bind().JSON(&body); err != nil {
		return writeBindError(c, err)
	}

	vecs, err := s.service.EmbedBatch(c.Context(), body.Texts)
	if err != nil {
		return writeError(c, err)
	}

	resp := wire.EmbedBatchResponse{Embeddings: make([]wire.EmbedResponse, len(vecs))}
	for i, v := range vecs {
		resp.Embeddings[i] = wire.EmbedResponse{Text: body.Texts[i], Embedding: v}
	}
	return c.JSON(resp)
}

func (s *Server) handleEmbedChunks(c fiber.Ctx) error {
	var body wire.EmbedChunksRequest
	if err := c.Bind().JSON(&body); err != nil {
		return writeBindError(c, err)
	}

	chunks, err := s.service.EmbedChunks(c.Context(), body.Chunks)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(wire.EmbedChunksResponse{Chunks: chunks})
}

// writeError maps a service error onto a status code and error body.
func writeError(c fiber.Ctx, err error) error {
	status, code := fiber.StatusInternalServerError, wire.CodeInternal
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, wire.CodeInvalidInput
	case errors.Is(err, domain.ErrNotReady):
		status, code = fiber.StatusServiceUnavailable, wire.CodeNotReady
	default:
		logger.Error("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(wire.ErrorResponse{Error: err.Error(), Code: code})
}

func writeBindError(c fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(wire.ErrorResponse{
		Error: "invalid request body: " + err.Error(),
		Code:  wire.CodeInvalidInput,
	})
}

// errorHandler renders framework errors (unknown route, oversized body,
// recovered panic) in the same shape as handler errors.
func errorHandler(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := wire.CodeInternal
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		if status >= 400 && status < 500 {
			code = wire.CodeInvalidInput
		}
	}
	return c.Status(status).JSON(wire.ErrorResponse{Error: err.Error(), Code: code})
}
