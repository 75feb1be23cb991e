package service

import (
	"context"
	"errors"

	"github.com/slotwise/booking-engine/internal/models"
	"github.com/slotwise/booking-engine/internal/repository"
)

var ErrInvalidMeetingType = errors.New("meeting type needs a name and a positive duration")

type MeetingTypeService interface {
	CreateMeetingType(ctx context.Context, hostID uint, mt *models.MeetingType) error
	UpdateMeetingType(ctx context.Context, hostID, typeID uint, mt *models.MeetingType) (*models.MeetingType, error)
	ListMeetingTypes(ctx context.Context, hostID uint) ([]models.MeetingType, error)
}

type meetingTypeService struct {
	hosts        repository.HostRepository
	meetingTypes repository.MeetingTypeRepository
}

func NewMeetingTypeService(hosts repository.HostRepository, meetingTypes repository.MeetingTypeRepository) MeetingTypeService {
	return &meetingTypeService{hosts: hosts, meetingTypes: meetingTypes}
}

func (s *meetingTypeService) CreateMeetingType(ctx context.Context, hostID uint, mt *models.MeetingType) error {
	if mt.Name == "" || mt.DurationMinutes <= 0 {
		return ErrInvalidMeetingType
	}
	if _, err := s.hosts.FindByID(ctx, hostID); err != nil {
		return ErrHostNotFound
	}
	mt.HostID = hostID
	return s.meetingTypes.Create(ctx, mt)
}

func (s *meetingTypeService) UpdateMeetingType(ctx context.Context, hostID, typeID uint, in *models.MeetingType) (*models.MeetingType, error) {
	mt, err := s.meetingTypes.FindByID(ctx, typeID)
	if err != nil || mt.HostID != hostID {
		return nil, ErrMeetingTypeNotFound
	}

	if in.Name != "" {
		mt.Name = in.Name
	}
	if in.DurationMinutes > 0 {
		mt.DurationMinutes = in.DurationMinutes
	}
	mt.Price = in.Price
	mt.RequiresPayment = in.RequiresPayment
	mt.IsActive = in.IsActive

	if err := s.meetingTypes.Save(ctx, mt); err != nil {
		return nil, err
	}
	return mt, nil
}

func (s *meetingTypeService) ListMeetingTypes(ctx context.Context, hostID uint) ([]models.MeetingType, error) {
	return s.meetingTypes.FindByHost(ctx, hostID)
}
