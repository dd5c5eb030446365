package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ridelink/ridelink-backend/internal/models"
	"gorm.io/gorm"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	user := &models.User{
		Model: gorm.Model{ID: 42},
		Email: "driver@example.com",
		Role:  models.RoleDriver,
	}

	tokenString, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	token, err := ValidateToken(tokenString)
	if err != nil || !token.Valid {
		t.Fatalf("ValidateToken: err=%v valid=%v", err, token != nil && token.Valid)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("expected MapClaims")
	}
	if id, _ := claims["id"].(float64); uint(id) != 42 {
		t.Fatalf("expected id 42, got %v", claims["id"])
	}
	roles, ok := claims["roles"].([]interface{})
	if !ok || len(roles) != 1 || roles[0] != "driver" {
		t.Fatalf("expected roles [driver], got %v", claims["roles"])
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "first-secret")
	user := &models.User{Model: gorm.Model{ID: 1}, Role: models.RoleCustomer}
	tokenString, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	t.Setenv("JWT_SECRET", "other-secret")
	if token, err := ValidateToken(tokenString); err == nil && token.Valid {
		t.Fatalf("token signed with another secret must not validate")
	}
}
