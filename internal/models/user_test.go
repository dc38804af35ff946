package models_test

import (
	"reflect"
	"testing"

	"skillnexus/backend/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

// TestUserBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestUserBeforeCreate_GeneratesUUID(t *testing.T) {
	user := &models.User{
		Name:   "Ada",
		Email:  "ada@example.com",
		Role:   models.RoleCreator,
		Skills: pq.StringArray{"illustration", "branding"},
	}
	assert.Empty(t, user.ID, "User ID should be empty before BeforeCreate")

	err := user.BeforeCreate(nil) // nil *gorm.DB is acceptable for this hook

	assert.NoError(t, err)
	parsed, parseErr := uuid.Parse(user.ID)
	assert.NoError(t, parseErr, "User ID must be a valid UUID string")
	assert.NotEqual(t, uuid.Nil, parsed)
	assert.Equal(t, models.DefaultProfileImage, user.ProfileImage, "avatar falls back to the placeholder")
}

// TestUserBeforeCreate_PreservesExistingFields verifies that the hook doesn't overwrite an existing ID or avatar.
func TestUserBeforeCreate_PreservesExistingFields(t *testing.T) {
	existingID := uuid.New().String()
	user := &models.User{ID: existingID, Name: "Grace", ProfileImage: "https://cdn.example.com/g.png"}

	err := user.BeforeCreate(nil)

	assert.NoError(t, err)
	assert.Equal(t, existingID, user.ID)
	assert.Equal(t, "https://cdn.example.com/g.png", user.ProfileImage)
}

// TestUserBeforeCreate_MultipleUsers verifies unique UUIDs are generated for multiple users.
func TestUserBeforeCreate_MultipleUsers(t *testing.T) {
	users := []*models.User{
		{Name: "a", Role: models.RoleClient},
		{Name: "b", Role: models.RoleCreator},
		{Name: "c", Role: models.RoleClient},
	}

	generatedIDs := make(map[string]bool)
	for _, user := range users {
		assert.NoError(t, user.BeforeCreate(nil))
		assert.NotContains(t, generatedIDs, user.ID, "Each user should have a unique ID")
		generatedIDs[user.ID] = true
	}
	assert.Len(t, generatedIDs, len(users))
}

// TestUserStructTags verifies that struct tags are correctly defined for GORM and JSON.
func TestUserStructTags(t *testing.T) {
	userType := reflect.TypeOf(models.User{})

	idField, found := userType.FieldByName("ID")
	assert.True(t, found)
	assert.Contains(t, idField.Tag.Get("gorm"), "primaryKey")
	assert.Equal(t, "id", idField.Tag.Get("json"))

	emailField, found := userType.FieldByName("Email")
	assert.True(t, found)
	assert.Contains(t, emailField.Tag.Get("gorm"), "uniqueIndex")

	skillsField, found := userType.FieldByName("Skills")
	assert.True(t, found)
	assert.Contains(t, skillsField.Tag.Get("gorm"), "type:text[]", "Skills should use PostgreSQL array type")
}

func TestUserRef(t *testing.T) {
	user := &models.User{ID: "u1", Name: "Ada", ProfileImage: "a.png", Email: "ada@example.com"}

	assert.Equal(t, models.UserRef{ID: "u1", Name: "Ada", Avatar: "a.png"}, user.Ref())
}
