package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"
	"golang.org/x/sync/errgroup"

	"nryli/internal/dashboard"
	"nryli/internal/dto"
	"nryli/internal/mailer"
	"nryli/internal/metrics"
	"nryli/internal/model"
	"nryli/internal/registration"
	"nryli/internal/repo"
	"nryli/pkg/validator"
)

const (
	maxInsertAttempts = 3
	defaultTimeout    = 10 * time.Second
)

// RefreshViews is what a client must reload after a status change.
var RefreshViews = []string{"registrations", "stats"}

type Service interface {
	Register(ctx *ginext.Context)
	Health(ctx *ginext.Context)
	ListRegistrations(ctx *ginext.Context)
	Stats(ctx *ginext.Context)
	UpdateStatus(ctx *ginext.Context)
	ExportCSV(ctx *ginext.Context)
	Dashboard(ctx *ginext.Context)
	Notify(ctx *ginext.Context)
}

// Options carries the optional collaborators of the service. Zero fields get
// working defaults.
type Options struct {
	IDs       *registration.IDGenerator
	Hook      PostCommitHook
	Notifier  Notifier
	Exporter  *dashboard.Exporter
	Metrics   *metrics.Metrics
	Timeout   time.Duration
	EventName string
	Now       func() time.Time
}

type service struct {
	repo      repo.Repository
	log       *zerolog.Logger
	ids       *registration.IDGenerator
	hook      PostCommitHook
	notifier  Notifier
	exporter  *dashboard.Exporter
	metrics   *metrics.Metrics
	timeout   time.Duration
	eventName string
	now       func() time.Time
}

func NewService(repo repo.Repository, logger *zerolog.Logger, opts Options) Service {
	s := &service{
		repo:      repo,
		log:       logger,
		ids:       opts.IDs,
		hook:      opts.Hook,
		notifier:  opts.Notifier,
		exporter:  opts.Exporter,
		metrics:   opts.Metrics,
		timeout:   opts.Timeout,
		eventName: opts.EventName,
		now:       opts.Now,
	}
	if s.log == nil {
		nop := zerolog.Nop()
		s.log = &nop
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.ids == nil {
		s.ids = registration.NewIDGenerator(registration.DefaultPrefix, s.now)
	}
	if s.hook == nil {
		s.hook = NoopHook()
	}
	if s.notifier == nil {
		s.notifier = mailer.NewNotifier(nil, "", mailer.Event{Name: s.eventName}, 0, s.log)
	}
	if s.exporter == nil {
		s.exporter = dashboard.NewExporter(time.UTC)
	}
	if s.metrics == nil {
		s.metrics = metrics.New(prometheus.NewRegistry())
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	return s
}

func (s *service) storeContext(ctx *ginext.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), s.timeout)
}

func (s *service) Register(ctx *ginext.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse registration request")
		s.metrics.IncRegistration(metrics.OutcomeInvalid)
		dto.BadResponseError(ctx, dto.InvalidJSON)
		return
	}

	if err := registration.Validate(ctx.Request.Context(), req); err != nil {
		s.log.Info().Msgf("registration rejected: %v", err)
		s.metrics.IncRegistration(metrics.OutcomeInvalid)
		dto.BadResponseError(ctx, err.Error())
		return
	}

	stored, err := s.insert(ctx, req)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to save registration")
		s.metrics.IncRegistration(metrics.OutcomeStoreError)
		dto.InternalServerError(ctx, dto.SaveFailed)
		return
	}

	s.log.Info().
		Str("registration_id", stored.RegistrationID).
		Str("region", string(stored.RegionCluster)).
		Msg("registration saved")
	s.metrics.IncRegistration(metrics.OutcomeSuccess)

	s.hook.AfterCommit(ctx.Request.Context(), stored)

	dto.SuccessResponse(ctx, dto.RegisterResponse{
		Success:        true,
		RegistrationID: stored.RegistrationID,
		Data:           stored,
	})
}

// insert stores a new registration, drawing a fresh id when the store
// reports the previous one as taken.
func (s *service) insert(ctx *ginext.Context, req dto.RegisterRequest) (model.Registration, error) {
	var lastErr error
	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		reg := registration.Build(req, s.ids.Next(), s.now())

		sctx, cancel := s.storeContext(ctx)
		stored, err := s.repo.Insert(sctx, reg)
		cancel()
		if err == nil {
			return stored, nil
		}
		if !errors.Is(err, repo.ErrDuplicateRegistrationID) {
			return model.Registration{}, err
		}
		s.log.Warn().
			Str("registration_id", reg.RegistrationID).
			Int("attempt", attempt).
			Msg("registration id already taken, retrying")
		lastErr = err
	}
	return model.Registration{}, lastErr
}

func (s *service) Health(ctx *ginext.Context) {
	dto.SuccessResponse(ctx, dto.MessageResponse{Message: dto.APIWorking})
}

func filterFrom(ctx *ginext.Context) dashboard.Filter {
	return dashboard.Filter{
		Search: ctx.Query("search"),
		Region: ctx.Query("region"),
	}
}

func (s *service) ListRegistrations(ctx *ginext.Context) {
	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	all, err := s.repo.ListAll(sctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list registrations")
		dto.InternalServerError(ctx, dto.LoadFailed)
		return
	}

	visible := filterFrom(ctx).Apply(all)
	dto.SuccessResponse(ctx, dto.RegistrationsResponse{
		Success: true,
		Count:   len(visible),
		Data:    visible,
	})
}

func (s *service) Stats(ctx *ginext.Context) {
	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	stats, err := s.repo.Stats(sctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to compute registration stats")
		dto.InternalServerError(ctx, dto.StatsFailed)
		return
	}
	dto.SuccessResponse(ctx, stats)
}

func (s *service) UpdateStatus(ctx *ginext.Context) {
	registrationID := ctx.Param("id")

	var req dto.UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.InvalidJSON)
		return
	}
	if err := validator.Validate(ctx.Request.Context(), req); err != nil {
		dto.BadResponseError(ctx, err.Error())
		return
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		dto.BadResponseError(ctx, err.Error())
		return
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.repo.UpdateStatus(sctx, registrationID, status); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			dto.NotFoundError(ctx, dto.RegistrationNotFound)
			return
		}
		s.log.Error().
			Err(err).
			Str("registration_id", registrationID).
			Msg("failed to update registration status")
		dto.InternalServerError(ctx, dto.UpdateFailed)
		return
	}

	s.log.Info().
		Str("registration_id", registrationID).
		Str("status", string(status)).
		Msg("registration status updated")
	s.metrics.IncStatusUpdate(string(status))

	dto.SuccessResponse(ctx, dto.UpdateStatusResponse{
		Success: true,
		Status:  string(status),
		Refresh: RefreshViews,
	})
}

func (s *service) ExportCSV(ctx *ginext.Context) {
	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	all, err := s.repo.ListAll(sctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list registrations for export")
		dto.InternalServerError(ctx, dto.LoadFailed)
		return
	}

	var buf bytes.Buffer
	if err := s.exporter.Write(&buf, filterFrom(ctx).Apply(all)); err != nil {
		s.log.Error().Err(err).Msg("failed to render export")
		dto.InternalServerError(ctx, "")
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+s.exporter.Filename(s.now())+`"`)
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *service) Dashboard(ctx *ginext.Context) {
	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	var (
		all   []model.Registration
		stats model.Stats
	)
	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error {
		var err error
		all, err = s.repo.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.repo.Stats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Msg("failed to load dashboard")
		dto.InternalServerError(ctx, dto.LoadFailed)
		return
	}

	filter := filterFrom(ctx)
	visible := filter.Apply(all)

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, dashboardPage{
		EventName:     s.eventName,
		Cards:         dashboard.CardsFor(stats),
		Filter:        filter,
		Regions:       model.Regions,
		Statuses:      model.Statuses,
		Registrations: visible,
		Count:         len(visible),
		ExportURL:     exportURL(filter),
		Location:      s.exporter.Location(),
	}); err != nil {
		s.log.Error().Err(err).Msg("failed to render dashboard")
		dto.InternalServerError(ctx, "")
		return
	}
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *service) Notify(ctx *ginext.Context) {
	registrationID := ctx.Param("id")

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	reg, err := s.repo.GetByRegistrationID(sctx, registrationID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			dto.NotFoundError(ctx, dto.RegistrationNotFound)
			return
		}
		s.log.Error().Err(err).Str("registration_id", registrationID).Msg("failed to load registration")
		dto.InternalServerError(ctx, dto.LoadFailed)
		return
	}

	res := s.notifier.Notify(ctx.Request.Context(), *reg)
	s.metrics.IncNotification(metrics.Outcome(res.Success))

	code := http.StatusOK
	if !res.Success {
		code = http.StatusBadGateway
	}
	ctx.JSON(code, dto.NotifyResponse{RegistrationID: registrationID, Result: res})
}
