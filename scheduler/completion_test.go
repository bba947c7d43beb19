package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"intern_certify_v1/certificate"
	"intern_certify_v1/internal/testdb"
	"intern_certify_v1/model"
	"intern_certify_v1/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingIssuer struct {
	issued []string
}

func (r *recordingIssuer) IssueCompletion(_ context.Context, intern *model.Intern) certificate.Outcome {
	r.issued = append(r.issued, intern.Code)
	return certificate.Outcome{Type: model.CompletionKind, Status: certificate.StatusIssued, EmailStatus: certificate.EmailSent}
}

type stubRenderer struct{ dir string }

func (s stubRenderer) Render(_ context.Context, html, filename string) (string, error) {
	out := filepath.Join(s.dir, filename)
	return out, os.WriteFile(out, []byte(html), 0o644)
}

func setup(t *testing.T) (*gorm.DB, *repository.InternRepository, uint) {
	db := testdb.New(t)
	coord := &model.Coordinator{Name: "C", Email: "c@example.com", Password: "h", IsActive: true}
	require.NoError(t, repository.NewCoordinatorRepository(db).Create(context.Background(), coord))
	return db, repository.NewInternRepository(db, testdb.CodePrefix), coord.ID
}

func createIntern(t *testing.T, repo *repository.InternRepository, coordinatorID uint, name, joined string, days int) *model.Intern {
	t.Helper()
	joining, err := model.ParseJoiningDate(joined)
	require.NoError(t, err)
	intern := &model.Intern{
		Name:               name,
		Email:              name + "@example.com",
		Position:           "Intern",
		JoiningDate:        joining,
		InternshipDuration: days,
		CoordinatorID:      coordinatorID,
	}
	require.NoError(t, repo.Create(context.Background(), intern))
	return intern
}

func TestSweepCompletesOnExactDay(t *testing.T) {
	_, repo, coordID := setup(t)
	ctx := context.Background()
	intern := createIntern(t, repo, coordID, "A", "2025-01-01", 30)
	assert.Equal(t, model.InternActive, intern.Status)
	assert.Equal(t, "2025-01-31", intern.ExpectedCompletionDate().Format("2006-01-02"))

	clk := &clock{now: time.Date(2025, 1, 30, 23, 0, 0, 0, time.UTC)}
	issuer := &recordingIssuer{}
	job := NewCompletionJob(repo, issuer, Options{Location: time.UTC, Now: clk.Now})

	report, err := job.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Zero(t, report.Completed)
	stored, err := repo.FindByID(ctx, intern.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InternActive, stored.Status)

	clk.Set(time.Date(2025, 1, 31, 2, 0, 0, 0, time.UTC))
	report, err = job.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-31", report.Day)
	assert.Equal(t, 1, report.Completed)
	require.Len(t, report.Results, 1)
	assert.Equal(t, ResultCompleted, report.Results[0].Result)
	assert.Equal(t, []string{intern.Code}, issuer.issued)

	stored, err = repo.FindByID(ctx, intern.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InternCompleted, stored.Status)
	require.NotNil(t, stored.CompletionDate)
	assert.Equal(t, "2025-01-31", stored.CompletionDate.UTC().Format("2006-01-02"))

	// a later run finds nothing left to do
	report, err = job.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Checked)
	assert.Len(t, issuer.issued, 1)
}

func TestSweepUsesConfiguredTimezone(t *testing.T) {
	_, repo, coordID := setup(t)
	createIntern(t, repo, coordID, "A", "2025-01-01", 30)

	ist := time.FixedZone("IST", 5*60*60+30*60)
	// 20:00 UTC on the 30th is already the 31st in IST
	clk := &clock{now: time.Date(2025, 1, 30, 20, 0, 0, 0, time.UTC)}
	job := NewCompletionJob(repo, &recordingIssuer{}, Options{Location: ist, Now: clk.Now})

	report, err := job.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Completed)
}

func TestSweepWithoutCompletionTemplateStillCompletes(t *testing.T) {
	db, repo, coordID := setup(t)
	ctx := context.Background()
	intern := createIntern(t, repo, coordID, "A", "2025-01-01", 30)

	now := func() time.Time { return time.Date(2025, 2, 10, 2, 0, 0, 0, time.UTC) }
	issuer := certificate.NewIssuer(repo, repository.NewTemplateRepository(db), stubRenderer{dir: t.TempDir()}, nil,
		certificate.Options{FrontendURL: "https://portal.example.com", Location: time.UTC, Now: now})
	job := NewCompletionJob(repo, issuer, Options{Location: time.UTC, Now: now})

	report, err := job.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Completed)
	require.NotNil(t, report.Results[0].Certificate)
	assert.Equal(t, certificate.StatusSkipped, report.Results[0].Certificate.Status)

	stored, err := repo.FindByID(ctx, intern.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InternCompleted, stored.Status)
	assert.Empty(t, stored.CompletionCertificatePath)
}

func TestSweepIssuesRealCertificateWhenTemplateActive(t *testing.T) {
	db, repo, coordID := setup(t)
	ctx := context.Background()
	intern := createIntern(t, repo, coordID, "A", "2025-01-01", 30)
	require.NoError(t, repository.NewTemplateRepository(db).Create(ctx, &model.CertificateTemplate{
		Type: model.CompletionCertificate, Name: "default", HTML: "<p>{{name}} {{completionDate}}</p>", Active: true,
	}))

	now := func() time.Time { return time.Date(2025, 1, 31, 2, 0, 0, 0, time.UTC) }
	issuer := certificate.NewIssuer(repo, repository.NewTemplateRepository(db), stubRenderer{dir: t.TempDir()}, nil,
		certificate.Options{Location: time.UTC, Now: now})
	job := NewCompletionJob(repo, issuer, Options{Location: time.UTC, Now: now})

	_, err := job.Sweep(ctx)
	require.NoError(t, err)

	stored, err := repo.FindByID(ctx, intern.ID)
	require.NoError(t, err)
	assert.Equal(t, "certificates/completion_"+intern.Code+"_1738288800000.pdf", stored.CompletionCertificatePath)
}

// flakyStore fails the transition of one intern and reports a lost race for another.
type flakyStore struct {
	interns     []model.Intern
	failID      uint
	lostRaceID  uint
	transitions []uint
}

func (f *flakyStore) ListActive(context.Context) ([]model.Intern, error) {
	return append([]model.Intern(nil), f.interns...), nil
}

func (f *flakyStore) Transition(_ context.Context, id uint, _, _ string, _ time.Time) error {
	f.transitions = append(f.transitions, id)
	switch id {
	case f.failID:
		return errors.New("connection reset")
	case f.lostRaceID:
		return repository.ErrInvalidTransition
	}
	return nil
}

func TestSweepIsolatesPerInternFailures(t *testing.T) {
	joined := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &flakyStore{
		interns: []model.Intern{
			{ID: 1, Code: "INT-0001", JoiningDate: joined, InternshipDuration: 10},
			{ID: 2, Code: "INT-0002", JoiningDate: joined, InternshipDuration: 10},
			{ID: 3, Code: "INT-0003", JoiningDate: joined, InternshipDuration: 10},
			{ID: 4, Code: "INT-0004", JoiningDate: joined, InternshipDuration: 365},
		},
		failID:     1,
		lostRaceID: 2,
	}
	issuer := &recordingIssuer{}
	job := NewCompletionJob(store, issuer, Options{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) },
	})

	report, err := job.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Checked)
	assert.Equal(t, 1, report.Completed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []uint{1, 2, 3}, store.transitions)
	assert.Equal(t, []string{"INT-0003"}, issuer.issued)
	assert.Equal(t, "connection reset", report.Results[0].Error)
}

type panickingIssuer struct{}

func (panickingIssuer) IssueCompletion(context.Context, *model.Intern) certificate.Outcome {
	panic("renderer exploded")
}

func TestSweepRecoversFromPanics(t *testing.T) {
	joined := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &flakyStore{interns: []model.Intern{
		{ID: 1, JoiningDate: joined, InternshipDuration: 1},
		{ID: 2, JoiningDate: joined, InternshipDuration: 1},
	}}
	job := NewCompletionJob(store, panickingIssuer{}, Options{Location: time.UTC, Now: func() time.Time { return joined.AddDate(0, 1, 0) }})

	report, err := job.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, []uint{1, 2}, store.transitions)
}

type fakeLocker struct {
	held     bool
	err      error
	released int
}

func (f *fakeLocker) TryLock(context.Context) (func(), bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	if f.held {
		return nil, false, nil
	}
	return func() { f.released++ }, true, nil
}

func TestSweepHonoursDistributedLock(t *testing.T) {
	store := &flakyStore{}
	locker := &fakeLocker{}
	job := NewCompletionJob(store, &recordingIssuer{}, Options{Locker: locker})

	_, err := job.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, locker.released)

	locker.held = true
	_, err = job.Sweep(context.Background())
	assert.ErrorIs(t, err, ErrSweepRunning)

	// an unreachable lock backend does not block the sweep
	locker.held, locker.err = false, errors.New("redis down")
	_, err = job.Sweep(context.Background())
	assert.NoError(t, err)
}

func TestSweepRejectsOverlap(t *testing.T) {
	job := NewCompletionJob(&flakyStore{}, &recordingIssuer{}, Options{})
	job.mu.Lock()
	defer job.mu.Unlock()

	_, err := job.Sweep(context.Background())
	assert.ErrorIs(t, err, ErrSweepRunning)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	job := NewCompletionJob(&flakyStore{}, &recordingIssuer{}, Options{Schedule: "every day"})
	assert.Error(t, job.Start())

	job = NewCompletionJob(&flakyStore{}, &recordingIssuer{}, Options{Schedule: "0 2 * * *"})
	require.NoError(t, job.Start())
	job.Stop()
}
