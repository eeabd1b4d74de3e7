// Package generate orchestrates dataset synthesis: prompt assembly from the
// user schema plus reference context, a single model invocation, response
// parsing and persistence.
package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dataforge/dataforge/internal/core"
	apperrors "github.com/dataforge/dataforge/internal/errors"
	"github.com/dataforge/dataforge/internal/llm"
	"github.com/dataforge/dataforge/internal/refctx"
)

// Request bounds for validation.
const (
	MaxColumns  = 50
	MaxRowCount = 1000
)

// Request describes one generation job.
type Request struct {
	Topic       string           `json:"topic"`
	Description string           `json:"description,omitempty"`
	Columns     []core.ColumnDef `json:"columns"`
	RowCount    int              `json:"rowCount"`
}

// Result is what the caller gets back.
type Result struct {
	ID            string               `json:"id"`
	Rows          []map[string]any     `json:"rows"`
	ReferenceUsed bool                 `json:"referenceUsed"`
	Sources       []core.SourceSummary `json:"sources,omitempty"`
}

// DatasetStore persists generation results.
type DatasetStore interface {
	InsertDataset(ctx context.Context, dataset *core.Dataset) error
}

// ContextBuilder assembles reference context; satisfied by refctx.Builder.
type ContextBuilder interface {
	Build(ctx context.Context, topic, description string) core.ReferenceContext
}

// Service is the generation orchestrator.
type Service struct {
	Driver  llm.Driver
	Builder ContextBuilder
	Store   DatasetStore
	Logger  *zap.Logger
	Clock   func() time.Time
}

// NewService wires an orchestrator.
func NewService(driver llm.Driver, builder ContextBuilder, store DatasetStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Driver:  driver,
		Builder: builder,
		Store:   store,
		Logger:  logger,
		Clock:   time.Now,
	}
}

// Generate runs the full pipeline for one request. Reference-context
// failures are invisible here beyond a missing reference block; model-output
// parse failures surface as GENERATION_FAILED and nothing is persisted.
// The model is invoked exactly once per request.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	if s == nil || s.Driver == nil {
		return nil, apperrors.WrapInternal(nil, "generation service is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	var (
		refContext core.ReferenceContext
		refBlock   string
	)
	if s.Builder != nil {
		refContext = s.Builder.Build(ctx, req.Topic, req.Description)
		refBlock = refctx.Format(refContext)
	}

	prompt := BuildPrompt(req, refBlock)

	response, err := s.Driver.Complete(ctx, &llm.Request{Prompt: prompt})
	if err != nil {
		return nil, apperrors.WrapGeneration(err, "model invocation failed")
	}

	rows, err := parseRows(response.Text)
	if err != nil {
		return nil, apperrors.WrapGeneration(err, "model output could not be parsed")
	}

	if len(rows) != req.RowCount {
		s.Logger.Warn("generated row count differs from request",
			zap.Int("requested", req.RowCount),
			zap.Int("returned", len(rows)),
			zap.String("topic", req.Topic))
	}

	dataset := &core.Dataset{
		ID:          uuid.New().String(),
		Topic:       req.Topic,
		Description: req.Description,
		Columns:     req.Columns,
		RowCount:    req.RowCount,
		Rows:        rows,
		Sources:     refContext.ReferenceSources,
		CreatedAt:   s.now(),
	}

	if s.Store != nil {
		if err := s.Store.InsertDataset(ctx, dataset); err != nil {
			return nil, apperrors.WrapDatabase(err, "persist generated dataset")
		}
	}

	return &Result{
		ID:            dataset.ID,
		Rows:          rows,
		ReferenceUsed: !refContext.Empty(),
		Sources:       refContext.ReferenceSources,
	}, nil
}

// ValidateRequest enforces the request contract shared by HTTP and CLI.
func ValidateRequest(req Request) error {
	if strings.TrimSpace(req.Topic) == "" {
		return apperrors.NewInvalidInput("topic is required")
	}
	if len(req.Columns) == 0 {
		return apperrors.NewInvalidInput("at least one column is required")
	}
	if len(req.Columns) > MaxColumns {
		return apperrors.NewInvalidInput(fmt.Sprintf("at most %d columns are supported", MaxColumns))
	}
	if req.RowCount < 1 || req.RowCount > MaxRowCount {
		return apperrors.NewInvalidInput(fmt.Sprintf("rowCount must be between 1 and %d", MaxRowCount))
	}

	seen := make(map[string]struct{}, len(req.Columns))
	for _, column := range req.Columns {
		name := strings.TrimSpace(column.Name)
		if name == "" {
			return apperrors.NewInvalidInput("column names must not be empty")
		}
		if _, dup := seen[strings.ToLower(name)]; dup {
			return apperrors.NewInvalidInput(fmt.Sprintf("duplicate column name %q", name))
		}
		seen[strings.ToLower(name)] = struct{}{}
		if !core.ValidColumnType(column.Datatype) {
			return apperrors.NewInvalidInput(fmt.Sprintf("unknown datatype %q for column %q", column.Datatype, name))
		}
	}
	return nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}
