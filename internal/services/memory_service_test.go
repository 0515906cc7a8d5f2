package services

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pmarceau/trove/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAuthorizeMediaAccess(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	memory := &models.Memory{ID: uuid.New(), OwnerID: owner}
	attached := &models.MemoryMedia{ID: uuid.New(), MemoryID: memory.ID}
	foreign := &models.MemoryMedia{ID: uuid.New(), MemoryID: uuid.New()}

	tests := []struct {
		name      string
		mediaRow  *models.MemoryMedia
		requester uuid.UUID
		isAdmin   bool
		wantErr   error
	}{
		{"owner reads own media", attached, owner, false, nil},
		{"admin reads any media", attached, stranger, true, nil},
		{"non-owner gets not found, never forbidden", attached, stranger, false, ErrMediaNotFound},
		{"media of another memory gets not found", foreign, owner, false, ErrMediaNotFound},
		{"wrong attachment blocks even admins", foreign, stranger, true, ErrMediaNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authorizeMediaAccess(memory, tt.mediaRow, tt.requester, tt.isAdmin)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

// Both refusal paths must be indistinguishable to a caller.
func TestAuthorizeMediaAccessErrorsAreUniform(t *testing.T) {
	owner := uuid.New()
	memory := &models.Memory{ID: uuid.New(), OwnerID: owner}
	attached := &models.MemoryMedia{ID: uuid.New(), MemoryID: memory.ID}
	foreign := &models.MemoryMedia{ID: uuid.New(), MemoryID: uuid.New()}

	notOwner := authorizeMediaAccess(memory, attached, uuid.New(), false)
	wrongMemory := authorizeMediaAccess(memory, foreign, owner, false)

	assert.Equal(t, notOwner, wrongMemory)
}

func TestMediaInsertionOrderHasStableTiebreaker(t *testing.T) {
	assert.True(t, strings.HasSuffix(mediaInsertionOrder, "id ASC"))
	assert.True(t, strings.HasPrefix(mediaInsertionOrder, "created_at ASC"))
}
