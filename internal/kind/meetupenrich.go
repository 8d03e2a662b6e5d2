package kind

import "github.com/cauldronio/poolsched/internal/domain"

// newMeetupEnrich builds the meetup_enrich kind. Depends on meetup_raw.
func newMeetupEnrich(deps Deps) Kind {
	b := newBase(domain.KindMeetupEnrich, domain.KindMeetupRaw, meetupTarget, deps)
	return &b
}
