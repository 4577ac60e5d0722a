package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/medisupply/devis-api/internal/mapper"
	"github.com/medisupply/devis-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ClientService struct {
	clientRepo *repository.ClientRepository
	logger     *zap.Logger
}

func NewClientService(clientRepo *repository.ClientRepository, logger *zap.Logger) *ClientService {
	return &ClientService{
		clientRepo: clientRepo,
		logger:     logger,
	}
}

func (s *ClientService) Create(ctx context.Context, req *domain.CreateClientRequest) (*domain.ClientDTO, error) {
	if req.SiretNumber != "" {
		if _, err := s.clientRepo.GetBySiret(ctx, req.SiretNumber); err == nil {
			return nil, ErrDuplicateSiret
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check siret: %w", err)
		}
	}

	clientType := req.ClientType
	if clientType == "" {
		clientType = domain.ClientTypePharmacy
	}

	country := req.Country
	if country == "" {
		country = "France"
	}

	client := &domain.Client{
		Name:          req.Name,
		SiretNumber:   req.SiretNumber,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		PostalCode:    req.PostalCode,
		Country:       country,
		ContactPerson: req.ContactPerson,
		ClientType:    clientType,
		Status:        domain.ClientStatusActive,
		Notes:         req.Notes,
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s.logger.Info("client created",
		zap.String("clientID", client.ID.String()),
		zap.String("name", client.Name))

	dto := mapper.ToClientDTO(client, 0)
	return &dto, nil
}

func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClientDTO, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	count, err := s.clientRepo.CountQuotes(ctx, id)
	if err != nil {
		s.logger.Warn("failed to count client quotes", zap.Error(err))
	}

	dto := mapper.ToClientDTO(client, int(count))
	return &dto, nil
}

func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateClientRequest) (*domain.ClientDTO, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	if req.SiretNumber != nil && *req.SiretNumber != client.SiretNumber && *req.SiretNumber != "" {
		if existing, err := s.clientRepo.GetBySiret(ctx, *req.SiretNumber); err == nil && existing.ID != client.ID {
			return nil, ErrDuplicateSiret
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check siret: %w", err)
		}
	}

	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.SiretNumber != nil {
		client.SiretNumber = *req.SiretNumber
	}
	if req.Email != nil {
		client.Email = *req.Email
	}
	if req.Phone != nil {
		client.Phone = *req.Phone
	}
	if req.Address != nil {
		client.Address = *req.Address
	}
	if req.City != nil {
		client.City = *req.City
	}
	if req.PostalCode != nil {
		client.PostalCode = *req.PostalCode
	}
	if req.Country != nil {
		client.Country = *req.Country
	}
	if req.ContactPerson != nil {
		client.ContactPerson = *req.ContactPerson
	}
	if req.ClientType != nil {
		client.ClientType = *req.ClientType
	}
	if req.Status != nil {
		client.Status = *req.Status
	}
	if req.Notes != nil {
		client.Notes = *req.Notes
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	count, _ := s.clientRepo.CountQuotes(ctx, id)
	dto := mapper.ToClientDTO(client, int(count))
	return &dto, nil
}

// Delete removes a client. A client that still has quotes cannot be deleted;
// mark it inactive instead.
func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("failed to get client: %w", err)
	}

	count, err := s.clientRepo.CountQuotes(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count client quotes: %w", err)
	}
	if count > 0 {
		return ErrClientHasQuotes
	}

	if err := s.clientRepo.Delete(ctx, client.ID); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	s.logger.Info("client deleted",
		zap.String("clientID", client.ID.String()),
		zap.String("name", client.Name))
	return nil
}

func (s *ClientService) List(ctx context.Context, page, pageSize int, clientType *domain.ClientType, status *domain.ClientStatus, search string) ([]domain.ClientDTO, int64, error) {
	clients, total, err := s.clientRepo.List(ctx, page, pageSize, clientType, status, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}

	dtos := make([]domain.ClientDTO, len(clients))
	for i := range clients {
		count, _ := s.clientRepo.CountQuotes(ctx, clients[i].ID)
		dtos[i] = mapper.ToClientDTO(&clients[i], int(count))
	}

	return dtos, total, nil
}
