package kind

import "github.com/cauldronio/poolsched/internal/domain"

// newMeetupRaw builds the meetup_raw kind: pulls raw event/member data
// for a Meetup group, backed by a meetup-kind token.
func newMeetupRaw(deps Deps) Kind {
	b := newBase(domain.KindMeetupRaw, "", meetupTarget, deps)
	return &b
}

func meetupTarget(repo *domain.Repo) string { return repo.Group }
