package service

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/internal/persona"
	"Travel_Companion/backend/go/internal/user_service/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	s, err := store.NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	profiles := persona.NewProfileStore(db, nil)
	return NewService(s, profiles, "test-secret", 3600)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.RegisterUser("amelie@example.com", "s3cret-pass", "amelie", "Amelie R", "Lyon")
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}
	if user.ID == 0 {
		t.Fatal("Registered user has no ID")
	}
	if user.HomeCity != "Lyon" {
		t.Errorf("HomeCity = %q, want Lyon", user.HomeCity)
	}

	token, err := svc.LoginUser("amelie@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("LoginUser() error = %v", err)
	}
	if token == "" {
		t.Error("LoginUser() returned an empty token")
	}

	if _, err := svc.LoginUser("amelie@example.com", "wrong-pass"); err == nil {
		t.Error("LoginUser() with a wrong password should fail")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.RegisterUser("dup@example.com", "password1", "first", "", ""); err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}
	if _, err := svc.RegisterUser("dup@example.com", "password2", "second", "", ""); err == nil {
		t.Error("Registering the same email twice should fail")
	}
}

func TestRegister_AssignsTravelerRole(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.RegisterUser("role@example.com", "password1", "role", "", "")
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}

	stored, err := svc.GetUser(user.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if len(stored.Roles) != 1 || stored.Roles[0].Name != "Traveler" {
		t.Errorf("Roles = %v, want the default Traveler role", stored.Roles)
	}
}

func TestPersonaRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.RegisterUser("persona@example.com", "password1", "persona", "", "")
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}

	// No persona yet.
	profile, err := svc.GetPersona(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetPersona() error = %v", err)
	}
	if profile != nil {
		t.Errorf("GetPersona() before any write = %+v, want nil", profile)
	}

	want := &models.PersonaProfile{
		Traits:      []models.TraitWeight{{Trait: "adventurer", Weight: 0.8}},
		BudgetRange: "budget",
	}
	if err := svc.UpdatePersona(ctx, user.ID, want); err != nil {
		t.Fatalf("UpdatePersona() error = %v", err)
	}

	profile, err = svc.GetPersona(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetPersona() error = %v", err)
	}
	if profile == nil {
		t.Fatal("GetPersona() after write returned nil")
	}
	if profile.BudgetRange != "budget" || len(profile.Traits) != 1 || profile.Traits[0].Trait != "adventurer" {
		t.Errorf("GetPersona() = %+v, want the stored profile", profile)
	}
}

func TestDeviceTokens_IdempotentRegistration(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.RegisterUser("tokens@example.com", "password1", "tokens", "", "")
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}

	for _, token := range []string{"fcm-a", "fcm-b", "fcm-a"} {
		if err := svc.RegisterDeviceToken(user.ID, token); err != nil {
			t.Fatalf("RegisterDeviceToken(%q) error = %v", token, err)
		}
	}

	tokens, err := svc.DeviceTokens(user.ID)
	if err != nil {
		t.Fatalf("DeviceTokens() error = %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("DeviceTokens() = %v, want two unique tokens", tokens)
	}

	if err := svc.RemoveDeviceToken(user.ID, "fcm-a"); err != nil {
		t.Fatalf("RemoveDeviceToken() error = %v", err)
	}
	tokens, err = svc.DeviceTokens(user.ID)
	if err != nil {
		t.Fatalf("DeviceTokens() error = %v", err)
	}
	if len(tokens) != 1 || tokens[0] != "fcm-b" {
		t.Errorf("DeviceTokens() after removal = %v, want only fcm-b", tokens)
	}
}
