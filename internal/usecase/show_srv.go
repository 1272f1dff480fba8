package usecase

import (
	"context"
	"fmt"
	"time"

	"ticket-broker/internal/data/entity"
	"ticket-broker/internal/data/repository"
	"ticket-broker/internal/dto/request"
	"ticket-broker/internal/dto/response"
	"ticket-broker/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultShowCapacity = 100

type ShowService interface {
	CreateShow(ctx context.Context, req *request.CreateShowRequest) (*response.ShowResponse, error)
	GetShows(ctx context.Context) ([]*response.ShowResponse, error)
	GetShow(ctx context.Context, id uuid.UUID) (*response.ShowResponse, error)
	Availability(ctx context.Context, id uuid.UUID) (*response.AvailabilityResponse, error)
	UpdateShow(ctx context.Context, id uuid.UUID, req *request.UpdateShowRequest, actor string) (*response.ShowResponse, error)

	// DeleteShow refuses when any booking references the show.
	DeleteShow(ctx context.Context, id uuid.UUID) error

	// Reconcile re-derives every show's availability from its bookings and
	// reports the ones whose stored counter had drifted.
	Reconcile(ctx context.Context) ([]*response.DriftReport, error)
}

type showService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewShowService(repo *repository.Repository, log *zap.Logger) ShowService {
	return &showService{
		repo: repo,
		log:  log.With(zap.String("service", "show")),
	}
}

func (s *showService) CreateShow(ctx context.Context, req *request.CreateShowRequest) (*response.ShowResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create show validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	total := defaultShowCapacity
	if req.TotalTickets != nil {
		total = *req.TotalTickets
	}
	if total < 0 {
		return nil, entity.ErrInvalidCapacity
	}

	now := time.Now()
	show := &entity.Show{
		Base: entity.Base{
			ID:        utils.GenerateUUID(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Date:             req.Date,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		TotalTickets:     total,
		AvailableTickets: total,
	}

	if err := s.repo.Show.Create(ctx, show); err != nil {
		s.log.Error("Failed to create show", zap.Error(err))
		return nil, fmt.Errorf("failed to create show")
	}

	s.log.Info("Show created",
		zap.String("show_id", show.ID.String()),
		zap.Int("total_tickets", total))
	return response.ShowToResponse(show), nil
}

func (s *showService) GetShows(ctx context.Context) ([]*response.ShowResponse, error) {
	shows, err := s.repo.Show.FindAll(ctx)
	if err != nil {
		s.log.Error("Failed to list shows", zap.Error(err))
		return nil, fmt.Errorf("failed to list shows")
	}

	resp := make([]*response.ShowResponse, 0, len(shows))
	for _, show := range shows {
		resp = append(resp, response.ShowToResponse(show))
	}
	return resp, nil
}

func (s *showService) GetShow(ctx context.Context, id uuid.UUID) (*response.ShowResponse, error) {
	show, err := s.findShow(ctx, id)
	if err != nil {
		return nil, err
	}
	return response.ShowToResponse(show), nil
}

func (s *showService) Availability(ctx context.Context, id uuid.UUID) (*response.AvailabilityResponse, error) {
	show, err := s.findShow(ctx, id)
	if err != nil {
		return nil, err
	}
	return &response.AvailabilityResponse{
		Available: show.AvailableTickets,
		Total:     show.TotalTickets,
		SoldOut:   show.IsSoldOut(),
	}, nil
}

func (s *showService) UpdateShow(ctx context.Context, id uuid.UUID, req *request.UpdateShowRequest, actor string) (*response.ShowResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update show validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	show, err := s.findShow(ctx, id)
	if err != nil {
		return nil, err
	}

	// Capacity edits go through the locked repository path so the counter
	// can never drop below the committed booking sum. They run before the
	// field edits so a rejected edit leaves the show untouched.
	if req.TotalTickets != nil || req.AvailableTickets != nil {
		newTotal := show.TotalTickets
		if req.TotalTickets != nil {
			newTotal = *req.TotalTickets
		}
		newAvailable := show.AvailableTickets
		if req.AvailableTickets != nil {
			newAvailable = *req.AvailableTickets
		} else if req.TotalTickets != nil {
			// Total moved but available did not: re-derive it so the
			// slack follows the new total.
			booked, err := s.repo.Show.TotalBooked(ctx, id)
			if err != nil {
				return nil, err
			}
			newAvailable = newTotal - booked
			if newAvailable < 0 {
				newAvailable = 0
			}
		}

		show, err = s.repo.Show.UpdateCapacity(ctx, id, newTotal, newAvailable)
		if err != nil {
			s.log.Warn("Capacity edit rejected",
				zap.Error(err),
				zap.String("show_id", id.String()),
				zap.Int("total", newTotal),
				zap.Int("available", newAvailable))
			return nil, err
		}
		s.log.Info("Show capacity changed",
			zap.String("show_id", id.String()),
			zap.String("actor", actor),
			zap.Int("total", newTotal),
			zap.Int("available", show.AvailableTickets))
	}

	if req.Date != nil || req.StartTime != nil || req.EndTime != nil {
		if req.Date != nil {
			show.Date = *req.Date
		}
		if req.StartTime != nil {
			show.StartTime = *req.StartTime
		}
		if req.EndTime != nil {
			show.EndTime = *req.EndTime
		}
		show.UpdatedAt = time.Now()
		if err := s.repo.Show.Update(ctx, show); err != nil {
			s.log.Error("Failed to update show", zap.Error(err), zap.String("show_id", id.String()))
			return nil, fmt.Errorf("failed to update show")
		}
	}

	return response.ShowToResponse(show), nil
}

func (s *showService) DeleteShow(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findShow(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.Booking.CountByShowID(ctx, id)
	if err != nil {
		s.log.Error("Failed to count bookings", zap.Error(err), zap.String("show_id", id.String()))
		return fmt.Errorf("failed to count bookings")
	}
	if count > 0 {
		return entity.ErrShowHasBookings
	}

	if err := s.repo.Show.Delete(ctx, id); err != nil {
		s.log.Error("Failed to delete show", zap.Error(err), zap.String("show_id", id.String()))
		return fmt.Errorf("failed to delete show")
	}
	s.log.Info("Show deleted", zap.String("show_id", id.String()))
	return nil
}

func (s *showService) Reconcile(ctx context.Context) ([]*response.DriftReport, error) {
	shows, err := s.repo.Show.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shows")
	}

	drifts := make([]*response.DriftReport, 0)
	for _, show := range shows {
		booked, err := s.repo.Show.TotalBooked(ctx, show.ID)
		if err != nil {
			return nil, err
		}
		expected := show.TotalTickets - booked
		if expected < 0 {
			expected = 0
		}
		if expected == show.AvailableTickets {
			continue
		}

		s.log.Warn("Availability drift detected",
			zap.String("show_id", show.ID.String()),
			zap.Int("stored", show.AvailableTickets),
			zap.Int("expected", expected))
		if err := s.repo.Show.Recompute(ctx, show.ID); err != nil {
			return nil, err
		}
		drifts = append(drifts, &response.DriftReport{
			ShowID:            show.ID.String(),
			StoredAvailable:   show.AvailableTickets,
			ExpectedAvailable: expected,
		})
	}
	return drifts, nil
}

func (s *showService) findShow(ctx context.Context, id uuid.UUID) (*entity.Show, error) {
	show, err := s.repo.Show.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to load show", zap.Error(err), zap.String("show_id", id.String()))
		return nil, fmt.Errorf("failed to load show")
	}
	if show == nil {
		return nil, entity.ErrShowNotFound
	}
	return show, nil
}
