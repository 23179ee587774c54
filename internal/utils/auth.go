package utils

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/normalization"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/repos"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

func NormalizeUserFields(ctx context.Context, user *types.User) {
	if user == nil {
		return
	}
	user.Email = normalization.ParseInputString(user.Email)
}

func InputValidation(ctx context.Context, ffor string, userRepo repos.UserRepo, log *logger.Logger, user *types.User, email, password string) error {
	switch normalization.ParseInputString(ffor) {
	case "registration":
		return handleRegisterInputValidation(ctx, userRepo, user)
	case "login":
		return handleLoginInputValidation(email, password)
	default:
		return fmt.Errorf("validation target must be login or registration")
	}
}

func handleRegisterInputValidation(ctx context.Context, userRepo repos.UserRepo, user *types.User) error {
	if user == nil {
		return fmt.Errorf("no user given, cannot proceed with registration")
	}
	if user.Email == "" {
		return fmt.Errorf("an email is required to register")
	}
	emailExists, err := userRepo.EmailExists(ctx, nil, user.Email)
	if err != nil {
		return fmt.Errorf("failed to check user email")
	}
	if emailExists {
		return fmt.Errorf("email is already in use")
	}
	if user.Password == "" {
		return fmt.Errorf("a password is required to register")
	}
	if len(user.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

func handleLoginInputValidation(email, password string) error {
	if email == "" {
		return fmt.Errorf("an email is required to login")
	}
	if password == "" {
		return fmt.Errorf("a password is required to login")
	}
	return nil
}

func HashPassword(ctx context.Context, log *logger.Logger, user *types.User) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		if log != nil {
			log.Error("Failed to hash password", "error", err)
		}
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)
	return nil
}
