package domain

import "errors"

var ErrRepoNotFound = errors.New("repo not found")

// RepoKind names the source a Repo target belongs to.
type RepoKind string

const (
	RepoGit    RepoKind = "git"
	RepoGitHub RepoKind = "github"
	RepoGitLab RepoKind = "gitlab"
	RepoMeetup RepoKind = "meetup"
)

// Repo is a per-kind target descriptor. Git repos are unique on URL;
// GitHub/GitLab repos are unique on (owner, name, instance); Meetup
// repos are unique on Group.
type Repo struct {
	ID   string
	Kind RepoKind

	URL string // git

	Owner      string // github, gitlab
	Name       string // github, gitlab
	InstanceID string // github, gitlab — FK to Instance

	Group string // meetup
}

// Instance names a GitHub/GitLab API endpoint (e.g. "GitHub" vs a
// GitHub Enterprise host), letting the same owner/repo pair exist
// against two different servers without colliding.
type Instance struct {
	ID   string
	Kind RepoKind // RepoGitHub or RepoGitLab
	Name string
}
