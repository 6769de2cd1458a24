package hydrate

import (
	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/errors"
)

// ErrMissingCreatedWhen is returned when a local annotation has no creation time.
var ErrMissingCreatedWhen = errors.Validation("cannot reshape annotation missing createdWhen timestamp")

// ReshapeLocalAnnotation maps a local annotation onto a cache record. The privacy level is
// derived from the share flags; LastEdited falls back to CreatedWhen.
func ReshapeLocalAnnotation(a LocalAnnotation, creator *domain.UserReference) (domain.AnnotationRecord, error) {
	if a.CreatedWhen == 0 {
		return domain.AnnotationRecord{}, ErrMissingCreatedWhen
	}

	lastEdited := a.LastEdited
	if lastEdited == 0 {
		lastEdited = a.CreatedWhen
	}

	return domain.AnnotationRecord{
		LocalID:           a.URL,
		NormalizedPageURL: a.PageURL,
		Body:              a.Body,
		Comment:           a.Comment,
		Selector:          a.Selector,
		Creator:           creator,
		PrivacyLevel:      domain.PrivacyLevelFromShareOpts(a.IsShared, a.IsBulkShareProtected),
		UnifiedListIDs:    []string{},
		LocalListIDs:      a.Lists,
		CreatedWhen:       a.CreatedWhen,
		LastEdited:        lastEdited,
		ColorID:           a.ColorID,
	}, nil
}

// ReshapeSharedAnnotation maps a remote annotation onto a cache record. Remote annotations
// are always shared and belong to no local list.
func ReshapeSharedAnnotation(a SharedAnnotation) domain.AnnotationRecord {
	return domain.AnnotationRecord{
		RemoteID:          a.ID,
		NormalizedPageURL: a.NormalizedPageURL,
		Body:              a.Body,
		Comment:           a.Comment,
		Selector:          a.Selector,
		Creator:           a.Creator,
		PrivacyLevel:      domain.PrivacyShared,
		UnifiedListIDs:    []string{},
		LocalListIDs:      []int64{},
		CreatedWhen:       a.CreatedWhen,
		LastEdited:        a.UpdatedWhen,
		ColorID:           a.ColorID,
	}
}

// ReshapeLocalList maps a local list onto a cache record. Page-link lists keep their type,
// system lists become special lists, and everything else is a user list.
func ReshapeLocalList(l LocalList, hasRemoteAnnotations bool) domain.ListRecord {
	r := domain.ListRecord{
		LocalID:                    domain.Int64(l.ID),
		RemoteID:                   l.RemoteID,
		Type:                       domain.ListTypeUser,
		Name:                       l.Name,
		Description:                l.Description,
		HasRemoteAnnotationsToLoad: hasRemoteAnnotations,
		UnifiedAnnotationIDs:       []string{},
	}

	switch {
	case l.Type == LocalListTypePageLink:
		r.Type = domain.ListTypePageLink
	case IsSpecialListID(l.ID):
		r.Type = domain.ListTypeSpecial
	default:
		r.ParentLocalID = l.ParentListID
		r.PathLocalIDs = l.PathListIDs
		r.Order = l.Order
	}
	return r
}

// ReshapeFollowedList maps a followed list with no local counterpart onto a cache record.
func ReshapeFollowedList(l FollowedList, hasRemoteAnnotations bool) domain.ListRecord {
	r := domain.ListRecord{
		RemoteID:                   l.SharedList,
		Type:                       domain.ListTypeUser,
		Name:                       l.Name,
		Creator:                    domain.NewUserReference(l.Creator),
		HasRemoteAnnotationsToLoad: hasRemoteAnnotations,
		UnifiedAnnotationIDs:       []string{},
	}
	if l.Type == LocalListTypePageLink {
		r.Type = domain.ListTypePageLink
	}
	return r
}
