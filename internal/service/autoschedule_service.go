package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/camp-autoscheduler/internal/dto"
	"github.com/noah-isme/camp-autoscheduler/internal/models"
	"github.com/noah-isme/camp-autoscheduler/pkg/autoschedule"
	"github.com/noah-isme/camp-autoscheduler/pkg/broker"
	appErrors "github.com/noah-isme/camp-autoscheduler/pkg/errors"
	"github.com/noah-isme/camp-autoscheduler/pkg/export"
	"github.com/noah-isme/camp-autoscheduler/pkg/jobs"
)

// JobTypeCalculate tags queued calculate requests.
const JobTypeCalculate = "autoschedule.calculate"

type autoScheduleStore interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.AutoSchedule) error
	FindByID(ctx context.Context, id string) (*models.AutoSchedule, error)
	FindLatest(ctx context.Context, campID string) (*models.AutoSchedule, error)
	ListByCamp(ctx context.Context, campID string) ([]models.AutoSchedule, error)
	UpdateMatrix(ctx context.Context, exec sqlx.ExtContext, schedule *models.AutoSchedule) error
	MarkApplied(ctx context.Context, exec sqlx.ExtContext, id string, appliedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type programSnapshotReader interface {
	Snapshot(ctx context.Context, campID string, eventTypes []string) (*models.ProgramSnapshot, error)
}

type eventSlotWriter interface {
	DeleteAutoscheduled(ctx context.Context, exec sqlx.ExtContext, campID string, eventTypes []string) (int64, error)
	BulkCreateAutoscheduled(ctx context.Context, exec sqlx.ExtContext, slots []models.EventSlot) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type diffCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

type schedulePublisher interface {
	Publish(ctx context.Context, queue string, payload interface{}) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type solverMetrics interface {
	ObserveSolverRun(solver, objective string, optimal bool, nodes int, scheduled, unscheduled int, duration time.Duration)
	RecordApply(placements int)
}

// AutoScheduleConfig governs solver budgets and slot generation.
type AutoScheduleConfig struct {
	TimeslotMinutes int
	SolverTimeout   time.Duration
	NodeLimit       int
	// GreedyAbove switches requests without an explicit solver to the greedy
	// heuristic once the event count exceeds it. Zero disables the switch.
	GreedyAbove  int
	DiffCacheTTL time.Duration
}

// AutoScheduleService computes, versions, compares and applies camp schedules.
type AutoScheduleService struct {
	store     autoScheduleStore
	program   programSnapshotReader
	placement eventSlotWriter
	tx        txProvider
	cache     diffCache
	publisher schedulePublisher
	metrics   solverMetrics
	queue     jobEnqueuer
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AutoScheduleConfig
	now       func() time.Time
}

// NewAutoScheduleService wires the autoscheduler dependencies. cache,
// publisher and metrics are optional.
func NewAutoScheduleService(
	store autoScheduleStore,
	program programSnapshotReader,
	placement eventSlotWriter,
	tx txProvider,
	cache diffCache,
	publisher schedulePublisher,
	metrics solverMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AutoScheduleConfig,
) *AutoScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TimeslotMinutes <= 0 {
		cfg.TimeslotMinutes = 30
	}
	if cfg.SolverTimeout <= 0 {
		cfg.SolverTimeout = 20 * time.Second
	}
	if cfg.DiffCacheTTL <= 0 {
		cfg.DiffCacheTTL = time.Hour
	}
	return &AutoScheduleService{
		store:     store,
		program:   program,
		placement: placement,
		tx:        tx,
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// AttachQueue enables Enqueue. The queue's handler is expected to be HandleJob.
func (s *AutoScheduleService) AttachQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Calculate schedules every autoscheduled event of the requested types from
// scratch and stores the result as a new draft version.
func (s *AutoScheduleService) Calculate(ctx context.Context, req dto.CalculateAutoScheduleRequest) (*dto.AutoScheduleRunResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid autoschedule payload")
	}
	eventTypes := normalizeEventTypes(req.EventTypes)
	if len(eventTypes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "eventTypes must contain at least one non-empty entry")
	}

	events, slots, err := s.loadProgram(ctx, req.CampID, eventTypes)
	if err != nil {
		return nil, err
	}

	solverName, result, elapsed, err := s.solve(ctx, req.Solver, events, slots, autoschedule.MaximizeScheduled())
	if err != nil {
		return nil, err
	}

	record := &models.AutoSchedule{
		CampID:    req.CampID,
		Status:    models.AutoScheduleStatusDraft,
		CreatedBy: optionalString(req.RequestedBy),
	}
	if record.EventTypes, err = marshalJSONText(eventTypes); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode event types")
	}
	meta := storedMeta{Solver: solverName, Tick: s.cfg.TimeslotMinutes, ElapsedMs: elapsed.Milliseconds()}
	if err := fillVersion(record, events, slots, result, meta); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule")
	}
	if err := s.createVersion(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("autoschedule calculated",
		zap.String("camp_id", req.CampID),
		zap.String("schedule_id", record.ID),
		zap.Int("version", record.Version),
		zap.String("solver", solverName),
		zap.Int("events", len(events)),
		zap.Int("slots", len(slots)),
		zap.Int("scheduled", len(result.Schedule)),
		zap.Bool("optimal", result.Optimal),
	)
	s.publish(ctx, broker.QueueScheduleCalculated, map[string]interface{}{
		"id":          record.ID,
		"campId":      record.CampID,
		"version":     record.Version,
		"scheduled":   len(result.Schedule),
		"unscheduled": len(result.Unscheduled),
	})

	resp := runResponse(record, solverName, events, slots, result)
	resp.Message = calculateMessage(len(result.Schedule), len(events))
	return resp, nil
}

// Recalculate re-solves against the current program while staying as close
// as possible to a base version (the latest one unless BaseID is set).
func (s *AutoScheduleService) Recalculate(ctx context.Context, req dto.RecalculateAutoScheduleRequest) (*dto.AutoScheduleRunResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid autoschedule payload")
	}

	base, err := s.loadBase(ctx, req.CampID, req.BaseID)
	if err != nil {
		return nil, err
	}
	if req.InPlace {
		if err := base.record.CanMutate(); err != nil {
			return nil, err
		}
	}
	if len(base.eventTypes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "base schedule does not record its event types")
	}

	events, slots, err := s.loadProgram(ctx, req.CampID, base.eventTypes)
	if err != nil {
		return nil, err
	}

	from := base.universe()
	to := autoschedule.UniverseOf(events, slots)
	original, err := autoschedule.Reconcile(base.matrix, from, to)
	if err != nil {
		return nil, err
	}

	solverName, result, elapsed, err := s.solve(ctx, req.Solver, events, slots, autoschedule.MinimizeChanges(original))
	if err != nil {
		return nil, err
	}

	record := &models.AutoSchedule{
		CampID:     req.CampID,
		Status:     models.AutoScheduleStatusDraft,
		EventTypes: base.record.EventTypes,
		CreatedBy:  optionalString(req.RequestedBy),
	}
	if req.InPlace {
		record = base.record
	}
	meta := storedMeta{Solver: solverName, Tick: s.cfg.TimeslotMinutes, BaseID: base.record.ID, ElapsedMs: elapsed.Milliseconds()}
	if err := fillVersion(record, events, slots, result, meta); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule")
	}

	if req.InPlace {
		if err := s.store.UpdateMatrix(ctx, nil, record); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrReadOnly, "schedule version "+record.ID+" was applied while recalculating")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule version")
		}
		s.invalidateDiffs(ctx, record.ID)
	} else if err := s.createVersion(ctx, record); err != nil {
		return nil, err
	}

	delta := deltaView(from.Delta(to))
	message := recalculateMessage(delta, len(result.Unscheduled))
	s.logger.Info("autoschedule recalculated",
		zap.String("camp_id", req.CampID),
		zap.String("schedule_id", record.ID),
		zap.String("base_id", base.record.ID),
		zap.Bool("in_place", req.InPlace),
		zap.String("summary", message),
	)
	s.publish(ctx, broker.QueueScheduleCalculated, map[string]interface{}{
		"id":          record.ID,
		"campId":      record.CampID,
		"version":     record.Version,
		"baseId":      base.record.ID,
		"scheduled":   len(result.Schedule),
		"unscheduled": len(result.Unscheduled),
	})

	resp := runResponse(record, solverName, events, slots, result)
	resp.BaseID = base.record.ID
	resp.Delta = delta
	resp.Message = message
	resp.SlotChanges = slotChangeViews(autoschedule.SlotDiff(base.schedule, result.Schedule))
	resp.EventChanges = eventChangeViews(autoschedule.EventDiff(base.schedule, result.Schedule))
	return resp, nil
}

// Diff compares two stored versions of the same camp.
func (s *AutoScheduleService) Diff(ctx context.Context, fromID, toID string) (*dto.AutoScheduleDiffResponse, error) {
	key := diffCacheKey(fromID, toID)
	if s.cache != nil {
		var cached dto.AutoScheduleDiffResponse
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	from, err := s.loadVersion(ctx, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.loadVersion(ctx, toID)
	if err != nil {
		return nil, err
	}
	if from.record.CampID != to.record.CampID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule versions belong to different camps")
	}

	resp := &dto.AutoScheduleDiffResponse{
		FromID: fromID,
		ToID:   toID,
		Slots:  slotChangeViews(autoschedule.SlotDiff(from.schedule, to.schedule)),
		Events: eventChangeViews(autoschedule.EventDiff(from.schedule, to.schedule)),
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, s.cfg.DiffCacheTTL); err != nil {
			s.logger.Warn("failed to cache schedule diff", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, nil
}

// Apply replaces the camp's autoscheduled placements of the version's event
// types with the version's placements. A version can be applied once. The
// placements are checked against the current program, so manual items,
// speaker changes or removed events since the calculation reject the apply.
func (s *AutoScheduleService) Apply(ctx context.Context, id string) (*dto.ApplyAutoScheduleResponse, error) {
	version, err := s.loadVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := version.record.CanMutate(); err != nil {
		return nil, err
	}
	events, slots, err := s.loadProgram(ctx, version.record.CampID, version.eventTypes)
	if err != nil {
		return nil, err
	}
	if err := autoschedule.CheckSchedule(version.schedule, events, slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
			"schedule version "+version.record.ID+" no longer fits the camp program, recalculate before applying")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider not configured")
	}

	appliedAt := s.now().UTC()
	rows := make([]models.EventSlot, 0, len(version.schedule))
	for _, p := range version.schedule.Sorted() {
		scheduleID := version.record.ID
		rows = append(rows, models.EventSlot{
			CampID:         version.record.CampID,
			EventID:        string(p.Event.ID),
			EventType:      p.Event.Type,
			Venue:          p.Slot.Venue,
			StartsAt:       p.Slot.StartsAt,
			EndsAt:         p.Slot.EndsAt(),
			AutoScheduleID: &scheduleID,
		})
	}

	var removed int64
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		var txErr error
		removed, txErr = s.placement.DeleteAutoscheduled(ctx, tx, version.record.CampID, version.eventTypes)
		if txErr != nil {
			return appErrors.Wrap(txErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear previous placements")
		}
		if txErr = s.placement.BulkCreateAutoscheduled(ctx, tx, rows); txErr != nil {
			return appErrors.Wrap(txErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write placements")
		}
		if txErr = s.store.MarkApplied(ctx, tx, version.record.ID, appliedAt); txErr != nil {
			if errors.Is(txErr, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrReadOnly, "schedule version "+version.record.ID+" has already been applied")
			}
			return appErrors.Wrap(txErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark schedule applied")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := version.record.MarkApplied(appliedAt); err != nil {
		s.logger.Warn("applied schedule record out of sync", zap.String("schedule_id", version.record.ID), zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.RecordApply(len(rows))
	}
	s.logger.Info("autoschedule applied",
		zap.String("camp_id", version.record.CampID),
		zap.String("schedule_id", version.record.ID),
		zap.Int64("removed", removed),
		zap.Int("placements", len(rows)),
	)
	s.publish(ctx, broker.QueueScheduleApplied, map[string]interface{}{
		"id":         version.record.ID,
		"campId":     version.record.CampID,
		"version":    version.record.Version,
		"appliedAt":  appliedAt,
		"placements": len(rows),
	})

	return &dto.ApplyAutoScheduleResponse{ID: version.record.ID, AppliedAt: appliedAt, Removed: removed, Placements: len(rows)}, nil
}

// Get returns a stored version decoded into placements.
func (s *AutoScheduleService) Get(ctx context.Context, id string) (*dto.AutoScheduleDetailResponse, error) {
	version, err := s.loadVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	return detailResponse(version), nil
}

// List returns version summaries for a camp, newest first.
func (s *AutoScheduleService) List(ctx context.Context, campID string) ([]models.AutoScheduleMeta, error) {
	if strings.TrimSpace(campID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "campId is required")
	}
	records, err := s.store.ListByCamp(ctx, campID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule versions")
	}
	items := make([]models.AutoScheduleMeta, 0, len(records))
	for i := range records {
		record := records[i]
		var meta storedMeta
		if len(record.Meta) > 0 {
			if err := record.Meta.Unmarshal(&meta); err != nil {
				s.logger.Warn("skipping undecodable schedule meta", zap.String("schedule_id", record.ID), zap.Error(err))
			}
		}
		items = append(items, models.AutoScheduleMeta{
			ID:          record.ID,
			Version:     record.Version,
			Status:      record.Status,
			Objective:   record.Objective,
			Scheduled:   meta.Scheduled,
			Unscheduled: meta.Unscheduled,
			Optimal:     meta.Optimal,
			AppliedAt:   record.AppliedAt,
			CreatedAt:   record.CreatedAt,
		})
	}
	return items, nil
}

// Delete removes a draft version.
func (s *AutoScheduleService) Delete(ctx context.Context, id string) error {
	record, err := s.findRecord(ctx, id)
	if err != nil {
		return err
	}
	if err := record.CanMutate(); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			current, findErr := s.findRecord(ctx, id)
			if findErr != nil {
				return findErr
			}
			if err := current.CanMutate(); err != nil {
				return err
			}
			return appErrors.Clone(appErrors.ErrConflict, "schedule version "+id+" changed while deleting, retry")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule version")
	}
	s.invalidateDiffs(ctx, id)
	return nil
}

// Export renders a stored version as CSV (default) or PDF.
func (s *AutoScheduleService) Export(ctx context.Context, id string, query dto.AutoScheduleExportQuery) (*dto.AutoScheduleExport, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}
	version, err := s.loadVersion(ctx, id)
	if err != nil {
		return nil, err
	}

	rows := make([]export.ScheduleRow, len(version.schedule))
	for i, p := range version.schedule {
		rows[i] = export.ScheduleRow{
			EventID:   string(p.Event.ID),
			EventType: p.Event.Type,
			Venue:     p.Slot.Venue,
			Session:   p.Slot.Session,
			StartsAt:  p.Slot.StartsAt,
			EndsAt:    p.Slot.EndsAt(),
		}
	}
	dataset := export.ScheduleDataset(rows, time.UTC)
	base := fmt.Sprintf("camp-%s-schedule-v%d", version.record.CampID, version.record.Version)

	if strings.EqualFold(query.Format, "pdf") {
		unscheduled := export.UnscheduledDataset(version.meta.UnscheduledEvents)
		content, err := s.pdf.RenderWithOptions(dataset, export.PDFOptions{
			Title:         fmt.Sprintf("Camp schedule v%d (%s)", version.record.Version, version.record.Status),
			Landscape:     true,
			Appendix:      &unscheduled,
			AppendixTitle: "Unscheduled events",
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule pdf")
		}
		return &dto.AutoScheduleExport{Filename: base + ".pdf", ContentType: "application/pdf", Content: content}, nil
	}

	content, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule csv")
	}
	return &dto.AutoScheduleExport{Filename: base + ".csv", ContentType: "text/csv", Content: content}, nil
}

// Enqueue validates req and hands it to the background queue.
func (s *AutoScheduleService) Enqueue(ctx context.Context, req dto.CalculateAutoScheduleRequest) (*dto.AutoScheduleJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid autoschedule payload")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "background scheduling is not enabled")
	}
	job := jobs.Job{ID: uuid.NewString(), Type: JobTypeCalculate, Payload: req, Enqueued: s.now().UTC()}
	if err := s.queue.Enqueue(job); err != nil {
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "too many schedule calculations queued, retry later")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue calculation")
	}
	s.logger.Info("autoschedule calculation queued", zap.String("job_id", job.ID), zap.String("camp_id", req.CampID))
	return &dto.AutoScheduleJobResponse{JobID: job.ID, CampID: req.CampID, Queued: true, Enqueued: job.Enqueued}, nil
}

// HandleJob runs a queued calculation.
func (s *AutoScheduleService) HandleJob(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.CalculateAutoScheduleRequest)
	if !ok {
		return jobs.Permanent(fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload))
	}
	resp, err := s.Calculate(ctx, req)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Status < 500 {
			return jobs.Permanent(err)
		}
		return err
	}
	s.logger.Info("queued autoschedule finished", zap.String("job_id", job.ID), zap.String("schedule_id", resp.ID), zap.String("summary", resp.Message))
	return nil
}

func (s *AutoScheduleService) loadProgram(ctx context.Context, campID string, eventTypes []string) ([]autoschedule.Event, []autoschedule.Slot, error) {
	snapshot, err := s.program.Snapshot(ctx, campID, eventTypes)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load camp program")
	}
	events, slots, err := programInput(snapshot, s.cfg.TimeslotMinutes)
	if err != nil {
		return nil, nil, err
	}
	return events, slots, nil
}

func (s *AutoScheduleService) solve(ctx context.Context, requested string, events []autoschedule.Event, slots []autoschedule.Slot, objective autoschedule.Objective) (string, *autoschedule.Result, time.Duration, error) {
	name := requested
	if name == "" {
		name = dto.SolverExact
		if s.cfg.GreedyAbove > 0 && len(events) > s.cfg.GreedyAbove {
			name = dto.SolverGreedy
		}
	}
	var solver autoschedule.Solver
	if name == dto.SolverGreedy {
		solver = autoschedule.NewGreedy()
	} else {
		solver = autoschedule.NewBranchAndBound(s.cfg.NodeLimit)
	}

	solveCtx, cancel := context.WithTimeout(ctx, s.cfg.SolverTimeout)
	defer cancel()

	start := time.Now()
	result, err := solver.Solve(solveCtx, autoschedule.Problem{Events: events, Slots: slots, Objective: objective})
	elapsed := time.Since(start)
	if err != nil {
		return "", nil, elapsed, err
	}
	if ctx.Err() != nil {
		return "", nil, elapsed, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "schedule calculation cancelled")
	}
	if !result.Optimal {
		s.logger.Warn("solver budget exhausted, keeping best schedule found",
			zap.String("solver", name),
			zap.Int("nodes", result.Nodes),
			zap.Duration("elapsed", elapsed),
		)
	}
	if s.metrics != nil {
		s.metrics.ObserveSolverRun(name, result.Objective, result.Optimal, result.Nodes, len(result.Schedule), len(result.Unscheduled), elapsed)
	}
	return name, result, elapsed, nil
}

func (s *AutoScheduleService) createVersion(ctx context.Context, record *models.AutoSchedule) error {
	if s.tx == nil {
		if err := s.store.CreateVersioned(ctx, nil, record); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule version")
		}
		return nil
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.store.CreateVersioned(ctx, tx, record); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule version")
		}
		return nil
	})
}

func (s *AutoScheduleService) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transaction")
	}
	return nil
}

func (s *AutoScheduleService) findRecord(ctx context.Context, id string) (*models.AutoSchedule, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule id is required")
	}
	record, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule version not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule version")
	}
	return record, nil
}

func (s *AutoScheduleService) loadVersion(ctx context.Context, id string) (*decodedVersion, error) {
	record, err := s.findRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return decodeVersion(record)
}

func (s *AutoScheduleService) loadBase(ctx context.Context, campID, baseID string) (*decodedVersion, error) {
	if baseID != "" {
		version, err := s.loadVersion(ctx, baseID)
		if err != nil {
			return nil, err
		}
		if version.record.CampID != campID {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule version not found for this camp")
		}
		return version, nil
	}
	record, err := s.store.FindLatest(ctx, campID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no schedule to recalculate, run calculate first")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest schedule version")
	}
	return decodeVersion(record)
}

func (s *AutoScheduleService) publish(ctx context.Context, queue string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, queue, payload); err != nil {
		s.logger.Warn("failed to publish schedule message", zap.String("queue", queue), zap.Error(err))
	}
}

func (s *AutoScheduleService) invalidateDiffs(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	for _, pattern := range []string{diffCacheKey(id, "*"), diffCacheKey("*", id)} {
		if err := s.cache.Invalidate(ctx, pattern); err != nil {
			s.logger.Warn("failed to invalidate diff cache", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

func diffCacheKey(fromID, toID string) string {
	return "autoschedule:diff:" + fromID + ":" + toID
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func runResponse(record *models.AutoSchedule, solverName string, events []autoschedule.Event, slots []autoschedule.Slot, result *autoschedule.Result) *dto.AutoScheduleRunResponse {
	return &dto.AutoScheduleRunResponse{
		ID:                record.ID,
		Version:           record.Version,
		Status:            string(record.Status),
		Objective:         result.Objective,
		Solver:            solverName,
		Events:            len(events),
		Slots:             len(slots),
		Scheduled:         len(result.Schedule),
		Unscheduled:       len(result.Unscheduled),
		UnscheduledEvents: eventIDs(result.Unscheduled),
		Score:             result.Score,
		Optimal:           result.Optimal,
		Nodes:             result.Nodes,
	}
}

func detailResponse(version *decodedVersion) *dto.AutoScheduleDetailResponse {
	unscheduled := version.meta.UnscheduledEvents
	if unscheduled == nil {
		unscheduled = []string{}
	}
	return &dto.AutoScheduleDetailResponse{
		ID:                version.record.ID,
		CampID:            version.record.CampID,
		Version:           version.record.Version,
		Status:            string(version.record.Status),
		Objective:         version.record.Objective,
		EventTypes:        version.eventTypes,
		Placements:        placementViews(version.schedule),
		UnscheduledEvents: unscheduled,
		AppliedAt:         version.record.AppliedAt,
		CreatedAt:         version.record.CreatedAt,
	}
}
