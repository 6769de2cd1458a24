package hydrate

import "github.com/spacemark/pagecache/internal/domain"

// Ownership describes the current user's relation to a list.
type Ownership string

const (
	OwnershipCreator     Ownership = "Creator"
	OwnershipFollower    Ownership = "Follower"
	OwnershipContributor Ownership = "Contributor"
)

// DeriveListOwnership classifies a list relative to user. A shared list with no local copy is
// followed; a local copy of someone else's shared list is a contribution; anything else is the
// user's own.
func DeriveListOwnership(l *domain.List, user *domain.UserReference) Ownership {
	if l.RemoteID != "" && l.LocalID == nil {
		return OwnershipFollower
	}
	if l.RemoteID != "" && domain.CreatorID(l.Creator) != domain.CreatorID(user) {
		return OwnershipContributor
	}
	return OwnershipCreator
}

// Categories groups lists the way list pickers present them.
type Categories struct {
	MyLists       []*domain.List `json:"myLists"`
	JoinedLists   []*domain.List `json:"joinedLists"`
	FollowedLists []*domain.List `json:"followedLists"`
	PageLinkLists []*domain.List `json:"pageLinkLists"`
}

// SiftListsIntoCategories splits lists by type and ownership. Followed foreign lists are left out.
func SiftListsIntoCategories(lists []*domain.List, user *domain.UserReference) Categories {
	cats := Categories{
		MyLists:       []*domain.List{},
		JoinedLists:   []*domain.List{},
		FollowedLists: []*domain.List{},
		PageLinkLists: []*domain.List{},
	}

	for _, l := range lists {
		if l.Type == domain.ListTypePageLink {
			cats.PageLinkLists = append(cats.PageLinkLists, l)
			continue
		}
		switch DeriveListOwnership(l, user) {
		case OwnershipCreator:
			cats.MyLists = append(cats.MyLists, l)
		case OwnershipFollower:
			if !l.IsForeignList {
				cats.FollowedLists = append(cats.FollowedLists, l)
			}
		case OwnershipContributor:
			cats.JoinedLists = append(cats.JoinedLists, l)
		}
	}
	return cats
}
