package validation_test

import (
	"net/http"
	"testing"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/errors"
	"github.com/spacemark/pagecache/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_ValidRecords(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(domain.AnnotationRecord{
		NormalizedPageURL: "example.com/a",
		PrivacyLevel:      domain.PrivacyShared,
	}))
	assert.NoError(t, v.Validate(domain.ListRecord{
		Type: domain.ListTypeUser,
		Name: "Reading",
	}))
	assert.NoError(t, v.Validate(domain.ListRecord{
		Type:              domain.ListTypePageLink,
		Name:              "Shared page",
		RemoteID:          "r1",
		NormalizedPageURL: "example.com/a",
		SharedListEntryID: "e1",
	}))
}

func TestValidator_InvalidRecords(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		record    any
		wantField string
	}{
		{
			name:      "annotation missing page",
			record:    domain.AnnotationRecord{},
			wantField: "normalizedPageUrl",
		},
		{
			name: "annotation unknown privacy level",
			record: domain.AnnotationRecord{
				NormalizedPageURL: "example.com/a",
				PrivacyLevel:      domain.PrivacyLevel(42),
			},
			wantField: "privacyLevel",
		},
		{
			name: "annotation negative timestamp",
			record: domain.AnnotationRecord{
				NormalizedPageURL: "example.com/a",
				CreatedWhen:       -1,
			},
			wantField: "createdWhen",
		},
		{
			name:      "list missing type",
			record:    domain.ListRecord{Name: "x"},
			wantField: "type",
		},
		{
			name:      "list unknown type",
			record:    domain.ListRecord{Type: "folder"},
			wantField: "type",
		},
		{
			name: "page link without remote id",
			record: domain.ListRecord{
				Type:              domain.ListTypePageLink,
				NormalizedPageURL: "example.com/a",
				SharedListEntryID: "e1",
			},
			wantField: "remoteId",
		},
		{
			name: "page link without entry id",
			record: domain.ListRecord{
				Type:              domain.ListTypePageLink,
				RemoteID:          "r1",
				NormalizedPageURL: "example.com/a",
			},
			wantField: "sharedListEntryId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.record)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrValidation)

			var domainErr *errors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Contains(t, domainErr.Message, tt.wantField)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}
