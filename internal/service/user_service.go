package service

import (
	"errors"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/models"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/repository"
	"gorm.io/gorm"
)

// UserService is the profile-lookup boundary: display names and avatars for
// sender/member enrichment, plus presence flags maintained by the hub.
type UserService struct {
	userRepo repository.UserRepositoryInterface
}

func NewUserService(userRepo repository.UserRepositoryInterface) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUser(userID uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) SearchUsers(query string, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.userRepo.SearchUsers(query, limit)
}

func (s *UserService) SetUserOnline(userID uint) error {
	return s.userRepo.UpdateOnlineStatus(userID, true)
}

func (s *UserService) SetUserOffline(userID uint) error {
	return s.userRepo.UpdateOnlineStatus(userID, false)
}
