package services_test

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/config"
	"github.com/kevinbrinsly07/projectmanager/internal/models"
	"github.com/kevinbrinsly07/projectmanager/internal/services"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:          "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "projectmanager-test",
		Audience:        "projectmanager-test-users",
	}
}

func createUserWithPassword(t *testing.T, db *gorm.DB, name, password string) *models.User {
	t.Helper()

	hashed, err := services.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: hashed,
		Role:     models.RoleMember,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestLoginUser(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewAuthService(testJWTConfig())

	user := createUserWithPassword(t, db, "login-user", "hunter22")

	t.Run("valid credentials", func(t *testing.T) {
		got, err := svc.LoginUser(db, user.Email, "hunter22")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != user.ID {
			t.Error("expected the matching user")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.LoginUser(db, user.Email, "wrong")
		if !errors.Is(err, services.ErrInvalidCredentials) {
			t.Errorf("expected invalid credentials, got %v", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.LoginUser(db, "nobody@example.com", "hunter22")
		if !errors.Is(err, services.ErrInvalidCredentials) {
			t.Errorf("expected invalid credentials, got %v", err)
		}
	})

	t.Run("deactivated account", func(t *testing.T) {
		if err := db.Model(user).Update("is_active", false).Error; err != nil {
			t.Fatalf("failed to deactivate: %v", err)
		}
		_, err := svc.LoginUser(db, user.Email, "hunter22")
		if !errors.Is(err, services.ErrInvalidCredentials) {
			t.Errorf("expected invalid credentials, got %v", err)
		}
	})
}

func TestTokenRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewAuthService(testJWTConfig())

	user := createUserWithPassword(t, db, "token-user", "secret99")

	access, refresh, err := svc.GenerateToken(db, user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.VerifyAccessToken(db, access)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != user.ID {
		t.Error("expected the token's user")
	}

	t.Run("refresh token is not an access token", func(t *testing.T) {
		if _, err := svc.VerifyAccessToken(db, refresh); err == nil {
			t.Error("expected refresh token to be rejected as access token")
		}
	})

	t.Run("role change applies without re-login", func(t *testing.T) {
		if err := db.Model(user).Update("role", models.RoleManager).Error; err != nil {
			t.Fatalf("failed to update role: %v", err)
		}
		fresh, err := svc.VerifyAccessToken(db, access)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fresh.Role != models.RoleManager {
			t.Errorf("expected live role, got %q", fresh.Role)
		}
	})

	t.Run("tampered token rejected", func(t *testing.T) {
		if _, err := svc.VerifyAccessToken(db, access+"x"); err == nil {
			t.Error("expected tampered token to be rejected")
		}
	})
}

func TestRefreshToken_Rotation(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewAuthService(testJWTConfig())

	user := createUserWithPassword(t, db, "refresh-user", "secret99")

	_, refresh, err := svc.GenerateToken(db, user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	access2, refresh2, expiresIn, err := svc.RefreshToken(db, refresh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expiresIn != int64(time.Hour.Seconds()) {
		t.Errorf("expected expires_in of one hour, got %d", expiresIn)
	}
	if _, err := svc.VerifyAccessToken(db, access2); err != nil {
		t.Errorf("expected new access token to verify: %v", err)
	}

	// The old refresh token was rotated out.
	if _, _, _, err := svc.RefreshToken(db, refresh); err == nil {
		t.Error("expected used refresh token to be rejected")
	}

	// The new one still works.
	if _, _, _, err := svc.RefreshToken(db, refresh2); err != nil {
		t.Errorf("expected new refresh token to work: %v", err)
	}
}

func TestRevokeToken(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewAuthService(testJWTConfig())

	user := createUserWithPassword(t, db, "revoke-user", "secret99")

	_, refresh, err := svc.GenerateToken(db, user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.RevokeToken(db, refresh); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, _, err := svc.RefreshToken(db, refresh); err == nil {
		t.Error("expected revoked token to be rejected")
	}
}

func TestRegisterUser(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewRegisterService()

	user, err := svc.RegisterUser(db, services.RegistrationRequest{
		Name:     "New Person",
		Email:    "new@example.com",
		Password: "longenough",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Role != models.RoleMember {
		t.Errorf("expected member role on signup, got %q", user.Role)
	}
	if user.Password == "longenough" {
		t.Error("expected password to be hashed")
	}

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := svc.RegisterUser(db, services.RegistrationRequest{
			Name:     "Imposter",
			Email:    "new@example.com",
			Password: "longenough",
		})
		var ce *services.ConflictError
		if !errors.As(err, &ce) {
			t.Errorf("expected conflict error, got %v", err)
		}
	})
}

func TestSeedAdmin(t *testing.T) {
	db := newTestDB(t)

	admin, err := services.SeedAdmin(db, "Root", "root@example.com", "rootpass1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if admin.Role != models.RoleAdmin {
		t.Errorf("expected admin role, got %q", admin.Role)
	}

	// Seeding again is idempotent and keeps a single account.
	again, err := services.SeedAdmin(db, "Root", "root@example.com", "rootpass1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.ID != admin.ID {
		t.Error("expected the same admin account")
	}

	var count int64
	db.Model(&models.User{}).Where("email = ?", "root@example.com").Count(&count)
	if count != 1 {
		t.Errorf("expected one admin row, got %d", count)
	}
}
