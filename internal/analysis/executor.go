// Package analysis runs a job's sub-tasks against the inference backend:
// per-sub-task validation, one backend call per identify type, reply
// parsing, and the bounded concurrent batch runner.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/suiyueran97/vision-engine/internal/domain"
	"github.com/suiyueran97/vision-engine/internal/imageutil"
	"github.com/suiyueran97/vision-engine/internal/inference"
)

// Recognized image extensions, matched case-insensitively.
var validImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
}

// Common errors
var (
	ErrNilClient = errors.New("inference client cannot be nil")
	ErrNilLogger = errors.New("logger cannot be nil")
)

// Executor runs one sub-task: it validates the request, encodes the image
// once, and makes one inference call per identify type. Failures of any
// flavor become a failed SubTaskResult, never an error to the caller.
type Executor struct {
	client  inference.Client
	prompts map[string]string
	logger  *slog.Logger
}

// NewExecutor creates an Executor. If prompts is nil, DefaultPrompts is
// used.
func NewExecutor(client inference.Client, prompts map[string]string, logger *slog.Logger) (*Executor, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if prompts == nil {
		prompts = DefaultPrompts
	}

	return &Executor{
		client:  client,
		prompts: prompts,
		logger:  logger.With("component", "analysis_executor"),
	}, nil
}

// Run processes a single sub-task and returns its result. Validation
// violations fail immediately with a descriptive message and never reach
// the network; execution and parse errors fail the sub-task at the first
// affected identify type.
func (e *Executor) Run(ctx context.Context, req domain.SubTaskRequest) domain.SubTaskResult {
	logger := e.logger.With("image", req.FTPPath)

	if err := e.validate(req); err != nil {
		logger.Warn("sub-task rejected before inference", "error", err)
		return failedResult(req, err)
	}

	imageDataURL, err := imageutil.EncodeDataURL(
		req.FTPPath,
		imageutil.DefaultMaxWidth,
		imageutil.DefaultMaxHeight,
		imageutil.DefaultQuality,
	)
	if err != nil {
		logger.Error("image preparation failed", "error", err)
		return failedResult(req, fmt.Errorf("%w: prepare image: %v", domain.ErrValidation, err))
	}

	judgments := make([]domain.JudgmentInfo, 0, len(req.IdentifyType))
	for _, identifyType := range req.IdentifyType {
		logger.Info("running identify type", "identify_type", identifyType)

		reply, err := e.client.Complete(ctx, e.prompts[identifyType], imageDataURL)
		if err != nil {
			logger.Error("inference call failed",
				"identify_type", identifyType, "error", err)
			return failedResult(req, err)
		}

		judgment, err := ParseReply(identifyType, reply)
		if err != nil {
			logger.Error("reply parse failed",
				"identify_type", identifyType, "error", err)
			return failedResult(req, err)
		}

		judgments = append(judgments, judgment)
	}

	return domain.SubTaskResult{
		FTPPath:      req.FTPPath,
		JudgmentInfo: judgments,
		Status:       domain.SubTaskStatusSuccess,
	}
}

// validate enforces the pre-network contract: non-empty recognized
// identify types and an existing regular image file.
func (e *Executor) validate(req domain.SubTaskRequest) error {
	if len(req.IdentifyType) == 0 {
		return fmt.Errorf("%w: identifyType must be a non-empty list", domain.ErrValidation)
	}

	var unknown []string
	for _, identifyType := range req.IdentifyType {
		if _, ok := e.prompts[identifyType]; !ok {
			unknown = append(unknown, identifyType)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: no instruction template for identify types: %s",
			domain.ErrValidation, strings.Join(unknown, ", "))
	}

	if req.FTPPath == "" {
		return fmt.Errorf("%w: ftp_path is required", domain.ErrValidation)
	}

	info, err := os.Stat(req.FTPPath)
	if err != nil {
		return fmt.Errorf("%w: image path does not exist: %s", domain.ErrValidation, req.FTPPath)
	}
	if info.IsDir() || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: image path is not a regular file: %s", domain.ErrValidation, req.FTPPath)
	}

	if !validImageExts[strings.ToLower(filepath.Ext(req.FTPPath))] {
		return fmt.Errorf("%w: unsupported image extension: %s", domain.ErrValidation, req.FTPPath)
	}

	return nil
}

func failedResult(req domain.SubTaskRequest, err error) domain.SubTaskResult {
	return domain.SubTaskResult{
		FTPPath:      req.FTPPath,
		JudgmentInfo: []domain.JudgmentInfo{},
		Status:       domain.SubTaskStatusFailed,
		ErrorMsg:     err.Error(),
	}
}
