package kind_test

import (
	"context"
	"testing"
	"time"

	"github.com/cauldronio/poolsched/internal/domain"
	"github.com/cauldronio/poolsched/internal/kind"
	"github.com/cauldronio/poolsched/internal/repository"
	"github.com/cauldronio/poolsched/internal/taskrunner"
)

// ---- fakes ----
//
// Only the methods a given test exercises get a non-nil func; anything
// else panics if called, which turns an unexpected extra call into a
// loud test failure instead of a silent wrong answer.

type fakeIntentions struct {
	getOrCreate      func(ctx context.Context, k domain.IntentionKind, userID, repoID string) (*domain.Intention, error)
	addPrevious      func(ctx context.Context, id, previousID string) error
	selectable       func(ctx context.Context, k domain.IntentionKind, userID string, max int) ([]*domain.Intention, error)
	runningJobForRepo func(ctx context.Context, k domain.IntentionKind, repoID string) (*domain.Job, error)
	bindJob          func(ctx context.Context, id, jobID string) error
	createJob        func(ctx context.Context, id, workerID string) (*domain.Job, error)
}

func (f *fakeIntentions) Create(ctx context.Context, in *domain.Intention) (*domain.Intention, error) {
	panic("not implemented")
}
func (f *fakeIntentions) GetOrCreate(ctx context.Context, k domain.IntentionKind, userID, repoID string) (*domain.Intention, error) {
	return f.getOrCreate(ctx, k, userID, repoID)
}
func (f *fakeIntentions) GetByID(ctx context.Context, id string) (*domain.Intention, error) {
	panic("not implemented")
}
func (f *fakeIntentions) AddPrevious(ctx context.Context, id, previousID string) error {
	return f.addPrevious(ctx, id, previousID)
}
func (f *fakeIntentions) Selectable(ctx context.Context, k domain.IntentionKind, userID string, max int) ([]*domain.Intention, error) {
	return f.selectable(ctx, k, userID, max)
}
func (f *fakeIntentions) UsersWithReadyIntentions(ctx context.Context, limit int) ([]string, error) {
	panic("not implemented")
}
func (f *fakeIntentions) RunningJobForRepo(ctx context.Context, k domain.IntentionKind, repoID string) (*domain.Job, error) {
	return f.runningJobForRepo(ctx, k, repoID)
}
func (f *fakeIntentions) BindJob(ctx context.Context, id, jobID string) error {
	return f.bindJob(ctx, id, jobID)
}
func (f *fakeIntentions) CreateJob(ctx context.Context, id, workerID string) (*domain.Job, error) {
	return f.createJob(ctx, id, workerID)
}
func (f *fakeIntentions) IntentionsForJob(ctx context.Context, jobID string) ([]*domain.Intention, error) {
	panic("not implemented")
}
func (f *fakeIntentions) Archive(ctx context.Context, in *domain.Intention, status domain.ArchiveStatus, archJobID string) (*domain.ArchivedIntention, error) {
	panic("not implemented")
}
func (f *fakeIntentions) ListArchived(ctx context.Context, in repository.ListArchivedInput) ([]*domain.ArchivedIntention, error) {
	panic("not implemented")
}

type fakeJobs struct{}

func (f *fakeJobs) GetByID(ctx context.Context, id string) (*domain.Job, error) { panic("not implemented") }
func (f *fakeJobs) ClaimResumable(ctx context.Context, k domain.IntentionKind, workerID string) (*domain.Job, error) {
	panic("not implemented")
}
func (f *fakeJobs) Release(ctx context.Context, jobID string) error { panic("not implemented") }
func (f *fakeJobs) Delete(ctx context.Context, jobID string) error  { panic("not implemented") }
func (f *fakeJobs) CountClaimed(ctx context.Context) (int, error)   { panic("not implemented") }
func (f *fakeJobs) RenewLease(ctx context.Context, jobID string, ttlSeconds int) error {
	panic("not implemented")
}
func (f *fakeJobs) ReleaseExpiredLeases(ctx context.Context, limit int) (int, error) {
	panic("not implemented")
}

type fakeTokens struct {
	hasReady      func(ctx context.Context, userID string, k domain.TokenKind) (bool, error)
	eligible      func(ctx context.Context, userID string, k domain.TokenKind) ([]*domain.Token, error)
	attach        func(ctx context.Context, tokenID, jobID string) error
	readyForJob   func(ctx context.Context, jobID string) (*domain.Token, error)
	recordUsage   func(ctx context.Context, usage *domain.JobTokenUsage) error
}

func (f *fakeTokens) HasReady(ctx context.Context, userID string, k domain.TokenKind) (bool, error) {
	return f.hasReady(ctx, userID, k)
}
func (f *fakeTokens) HasAny(ctx context.Context, userID string, k domain.TokenKind) (bool, error) {
	panic("not implemented")
}
func (f *fakeTokens) EligibleForUser(ctx context.Context, userID string, k domain.TokenKind) ([]*domain.Token, error) {
	return f.eligible(ctx, userID, k)
}
func (f *fakeTokens) Attach(ctx context.Context, tokenID, jobID string) error {
	return f.attach(ctx, tokenID, jobID)
}
func (f *fakeTokens) ReadyForJob(ctx context.Context, jobID string) (*domain.Token, error) {
	return f.readyForJob(ctx, jobID)
}
func (f *fakeTokens) SetResetAt(ctx context.Context, tokenID string, resetAt time.Time) error {
	panic("not implemented")
}
func (f *fakeTokens) RecordUsage(ctx context.Context, usage *domain.JobTokenUsage) error {
	return f.recordUsage(ctx, usage)
}

type fakeRepos struct {
	getByID func(ctx context.Context, id string) (*domain.Repo, error)
}

func (f *fakeRepos) GetOrCreateGit(ctx context.Context, url string) (*domain.Repo, error) {
	panic("not implemented")
}
func (f *fakeRepos) GetOrCreateGitHub(ctx context.Context, owner, name, instanceID string) (*domain.Repo, error) {
	panic("not implemented")
}
func (f *fakeRepos) GetOrCreateGitLab(ctx context.Context, owner, name, instanceID string) (*domain.Repo, error) {
	panic("not implemented")
}
func (f *fakeRepos) GetOrCreateMeetup(ctx context.Context, group string) (*domain.Repo, error) {
	panic("not implemented")
}
func (f *fakeRepos) GetByID(ctx context.Context, id string) (*domain.Repo, error) {
	return f.getByID(ctx, id)
}
func (f *fakeRepos) GetOrCreateInstance(ctx context.Context, k domain.RepoKind, name string) (*domain.Instance, error) {
	panic("not implemented")
}

type fakeRunner struct {
	run func(ctx context.Context, in taskrunner.Input) taskrunner.Result
}

func (f *fakeRunner) Run(ctx context.Context, in taskrunner.Input) taskrunner.Result {
	return f.run(ctx, in)
}

// ---- tests ----

func TestSelectable_TokenBackedKind_SkipsQueryWhenNoReadyToken(t *testing.T) {
	queried := false
	intentions := &fakeIntentions{
		selectable: func(ctx context.Context, k domain.IntentionKind, userID string, max int) ([]*domain.Intention, error) {
			queried = true
			return nil, nil
		},
	}
	tokens := &fakeTokens{
		hasReady: func(ctx context.Context, userID string, k domain.TokenKind) (bool, error) { return false, nil },
	}

	reg := kind.NewRegistry(kind.Deps{Intentions: intentions, Jobs: &fakeJobs{}, Tokens: tokens, Repos: &fakeRepos{}, Runner: &fakeRunner{}})
	k := reg[domain.KindGitHubRaw]

	out, err := k.Selectable(context.Background(), "user-1", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Errorf("want nil, got %v", out)
	}
	if queried {
		t.Error("Selectable must not query intentions when no token is ready")
	}
}

func TestCreatePrevious_EnrichKind_LinksRawCounterpart(t *testing.T) {
	raw := &domain.Intention{ID: "raw-1"}
	var linkedID, linkedPrev string
	intentions := &fakeIntentions{
		getOrCreate: func(ctx context.Context, k domain.IntentionKind, userID, repoID string) (*domain.Intention, error) {
			if k != domain.KindGitHubRaw {
				t.Errorf("want raw counterpart %q, got %q", domain.KindGitHubRaw, k)
			}
			return raw, nil
		},
		addPrevious: func(ctx context.Context, id, previousID string) error {
			linkedID, linkedPrev = id, previousID
			return nil
		},
	}

	reg := kind.NewRegistry(kind.Deps{Intentions: intentions, Jobs: &fakeJobs{}, Tokens: &fakeTokens{}, Repos: &fakeRepos{}, Runner: &fakeRunner{}})
	self := &domain.Intention{ID: "enrich-1", Kind: domain.KindGitHubEnrich}

	prev, err := reg[domain.KindGitHubEnrich].CreatePrevious(context.Background(), self)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prev) != 1 || prev[0] != raw {
		t.Fatalf("want [raw], got %v", prev)
	}
	if linkedID != self.ID || linkedPrev != raw.ID {
		t.Errorf("AddPrevious(%q, %q), want (%q, %q)", linkedID, linkedPrev, self.ID, raw.ID)
	}
	if len(self.Previous) != 1 || self.Previous[0] != raw.ID {
		t.Errorf("self.Previous = %v, want [%q]", self.Previous, raw.ID)
	}
}

func TestCreatePrevious_RawKind_ReturnsNil(t *testing.T) {
	reg := kind.NewRegistry(kind.Deps{Intentions: &fakeIntentions{}, Jobs: &fakeJobs{}, Tokens: &fakeTokens{}, Repos: &fakeRepos{}, Runner: &fakeRunner{}})
	self := &domain.Intention{ID: "raw-1", Kind: domain.KindGitHubRaw}

	prev, err := reg[domain.KindGitHubRaw].CreatePrevious(context.Background(), self)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prev != nil {
		t.Errorf("want nil, got %v", prev)
	}
}

func TestRunningJob_TokenBackedKind_NoEligibleToken_ReturnsNilWithoutBinding(t *testing.T) {
	job := &domain.Job{ID: "job-1"}
	bound := false
	intentions := &fakeIntentions{
		runningJobForRepo: func(ctx context.Context, k domain.IntentionKind, repoID string) (*domain.Job, error) {
			return job, nil
		},
		bindJob: func(ctx context.Context, id, jobID string) error {
			bound = true
			return nil
		},
	}
	tokens := &fakeTokens{
		eligible: func(ctx context.Context, userID string, k domain.TokenKind) ([]*domain.Token, error) { return nil, nil },
	}

	reg := kind.NewRegistry(kind.Deps{Intentions: intentions, Jobs: &fakeJobs{}, Tokens: tokens, Repos: &fakeRepos{}, Runner: &fakeRunner{}})
	self := &domain.Intention{ID: "self-1", UserID: "user-1", RepoID: "repo-1"}

	got, err := reg[domain.KindGitHubRaw].RunningJob(context.Background(), self)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("want nil job, got %v", got)
	}
	if bound {
		t.Error("must not bind when no token could be attached")
	}
}

func TestRunningJob_NonTokenKind_CoalescesOntoSibling(t *testing.T) {
	job := &domain.Job{ID: "job-1"}
	var boundID, boundJob string
	intentions := &fakeIntentions{
		runningJobForRepo: func(ctx context.Context, k domain.IntentionKind, repoID string) (*domain.Job, error) {
			return job, nil
		},
		bindJob: func(ctx context.Context, id, jobID string) error {
			boundID, boundJob = id, jobID
			return nil
		},
	}

	reg := kind.NewRegistry(kind.Deps{Intentions: intentions, Jobs: &fakeJobs{}, Tokens: &fakeTokens{}, Repos: &fakeRepos{}, Runner: &fakeRunner{}})
	self := &domain.Intention{ID: "self-1", UserID: "user-1", RepoID: "repo-1"}

	got, err := reg[domain.KindGitRaw].RunningJob(context.Background(), self)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != job {
		t.Fatalf("want job, got %v", got)
	}
	if boundID != self.ID || boundJob != job.ID {
		t.Errorf("BindJob(%q, %q), want (%q, %q)", boundID, boundJob, self.ID, job.ID)
	}
}

func TestRunningJob_NoSibling_ReturnsNil(t *testing.T) {
	intentions := &fakeIntentions{
		runningJobForRepo: func(ctx context.Context, k domain.IntentionKind, repoID string) (*domain.Job, error) {
			return nil, domain.ErrJobNotFound
		},
	}

	reg := kind.NewRegistry(kind.Deps{Intentions: intentions, Jobs: &fakeJobs{}, Tokens: &fakeTokens{}, Repos: &fakeRepos{}, Runner: &fakeRunner{}})
	self := &domain.Intention{ID: "self-1", RepoID: "repo-1"}

	got, err := reg[domain.KindGitRaw].RunningJob(context.Background(), self)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("want nil, got %v", got)
	}
}

func TestCreateJob_TokenBackedKind_NoEligibleToken_RefusesWithoutCreating(t *testing.T) {
	created := false
	intentions := &fakeIntentions{
		createJob: func(ctx context.Context, id, workerID string) (*domain.Job, error) {
			created = true
			return &domain.Job{ID: "job-1"}, nil
		},
	}
	tokens := &fakeTokens{
		eligible: func(ctx context.Context, userID string, k domain.TokenKind) ([]*domain.Token, error) { return nil, nil },
	}

	reg := kind.NewRegistry(kind.Deps{Intentions: intentions, Jobs: &fakeJobs{}, Tokens: tokens, Repos: &fakeRepos{}, Runner: &fakeRunner{}})
	self := &domain.Intention{ID: "self-1", UserID: "user-1"}

	got, err := reg[domain.KindMeetupRaw].CreateJob(context.Background(), self, "worker-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("want nil, got %v", got)
	}
	if created {
		t.Error("must not create a job when no token is eligible")
	}
}

func TestCreateJob_LostRace_ReturnsNilNotError(t *testing.T) {
	intentions := &fakeIntentions{
		createJob: func(ctx context.Context, id, workerID string) (*domain.Job, error) {
			return nil, domain.ErrAlreadyAdmitted
		},
	}

	reg := kind.NewRegistry(kind.Deps{Intentions: intentions, Jobs: &fakeJobs{}, Tokens: &fakeTokens{}, Repos: &fakeRepos{}, Runner: &fakeRunner{}})
	self := &domain.Intention{ID: "self-1"}

	got, err := reg[domain.KindGitRaw].CreateJob(context.Background(), self, "worker-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("want nil, got %v", got)
	}
}

func TestRun_ResolvesTargetAndAttachesTokenSecret(t *testing.T) {
	repo := &domain.Repo{ID: "repo-1", Owner: "cauldronio", Name: "poolsched"}
	tok := &domain.Token{ID: "tok-1", Secret: "s3cr3t"}
	var gotInput taskrunner.Input
	var recordedUsage *domain.JobTokenUsage

	repos := &fakeRepos{getByID: func(ctx context.Context, id string) (*domain.Repo, error) { return repo, nil }}
	tokens := &fakeTokens{
		readyForJob: func(ctx context.Context, jobID string) (*domain.Token, error) { return tok, nil },
		recordUsage: func(ctx context.Context, usage *domain.JobTokenUsage) error { recordedUsage = usage; return nil },
	}
	runner := &fakeRunner{
		run: func(ctx context.Context, in taskrunner.Input) taskrunner.Result {
			gotInput = in
			return taskrunner.Result{Outcome: taskrunner.Completed}
		},
	}

	reg := kind.NewRegistry(kind.Deps{Intentions: &fakeIntentions{}, Jobs: &fakeJobs{}, Tokens: tokens, Repos: repos, Runner: runner})
	self := &domain.Intention{ID: "self-1", RepoID: repo.ID}
	job := &domain.Job{ID: "job-1"}

	res := reg[domain.KindGitHubRaw].Run(context.Background(), job, self)
	if res.Outcome != taskrunner.Completed {
		t.Fatalf("want Completed, got %v", res.Outcome)
	}
	if gotInput.Target != "cauldronio/poolsched" || gotInput.TokenSecret != tok.Secret {
		t.Errorf("unexpected input: %+v", gotInput)
	}
	if recordedUsage == nil || recordedUsage.TokenID != tok.ID || recordedUsage.JobID != job.ID {
		t.Errorf("usage not recorded correctly: %+v", recordedUsage)
	}
}
