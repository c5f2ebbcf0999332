package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jadwal-guru-api/internal/dto"
	"github.com/noah-isme/jadwal-guru-api/internal/models"
	"github.com/noah-isme/jadwal-guru-api/internal/repository"
	appErrors "github.com/noah-isme/jadwal-guru-api/pkg/errors"
	"github.com/noah-isme/jadwal-guru-api/pkg/jobs"
	"github.com/noah-isme/jadwal-guru-api/pkg/storage"
)

type exportJobStoreStub struct {
	jobs map[string]*models.ExportJob
	seq  int
}

func newExportJobStoreStub() *exportJobStoreStub {
	return &exportJobStoreStub{jobs: map[string]*models.ExportJob{}}
}

func (s *exportJobStoreStub) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		s.seq++
		job.ID = fmt.Sprintf("job-%d", s.seq)
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *exportJobStoreStub) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (s *exportJobStoreStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (s *exportJobStoreStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	out := make([]models.ExportJob, 0)
	for _, job := range s.jobs {
		if job.Status == models.ExportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (s *exportJobStoreStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	out := make([]models.ExportJob, 0)
	for _, job := range s.jobs {
		if job.Status == models.ExportStatusFinished && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			out = append(out, *job)
		}
	}
	return out, nil
}

type queueStub struct {
	enqueued []jobs.Job
	err      error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

func newExportJobFixture(t *testing.T) (*ExportJobService, *ExportJobWorker, *exportJobStoreStub, *queueStub) {
	t.Helper()
	store := newExportJobStoreStub()
	queue := &queueStub{}
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	exporter := newExportFixture(t, &dayOffRepoStub{})

	svc := NewExportJobService(store, queue, files, signer, nil, nil, ExportJobServiceConfig{
		DownloadBasePath: "/api/v1/exports",
		ResultTTL:        time.Hour,
	})
	worker := NewExportJobWorker(store, exporter, files, signer, "/api/v1/exports", 3, nil)
	return svc, worker, store, queue
}

func TestExportJobCreateQueues(t *testing.T) {
	svc, _, store, queue := newExportJobFixture(t)

	resp, err := svc.CreateJob(context.Background(), "teacher-1", dto.CreateExportJobRequest{Date: "2025-01-08", Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, string(models.ExportStatusQueued), resp.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp.ID, queue.enqueued[0].ID)

	stored, err := store.FindByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-06", stored.WeekStart, "week start snaps to monday")
	assert.Equal(t, "teacher-1", stored.UserID)
}

func TestExportJobCreateRejectsUnknownFormat(t *testing.T) {
	svc, _, _, queue := newExportJobFixture(t)

	_, err := svc.CreateJob(context.Background(), "teacher-1", dto.CreateExportJobRequest{Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, queue.enqueued)
}

func TestExportJobWorkerFinishesJob(t *testing.T) {
	svc, worker, store, _ := newExportJobFixture(t)

	resp, err := svc.CreateJob(context.Background(), "teacher-1", dto.CreateExportJobRequest{Date: "2025-01-06", Format: "csv"})
	require.NoError(t, err)

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: resp.ID}))

	finished, err := store.FindByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, finished.Status)
	assert.Equal(t, 100, finished.Progress)
	require.NotNil(t, finished.ResultURL)

	token := lastPathSegment(*finished.ResultURL)
	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close() //nolint:errcheck

	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Tanggal")
	assert.Equal(t, "csv", download.Format)
	assert.Greater(t, download.SizeBytes, int64(0))
}

func TestExportJobWorkerRequeuesOnFailure(t *testing.T) {
	store := newExportJobStoreStub()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)

	resolution, _ := newResolutionFixture(&dayOffRepoStub{}, &exceptionRepoStub{}, models.ResolutionSettings{ApplyGlobalDaysOff: true, ApplyGlobalExceptions: true}, nil)
	disabled := NewExportService(resolution, &classListStub{}, false, nil)
	worker := NewExportJobWorker(store, disabled, files, signer, "/api/v1/exports", 3, nil)

	job := &models.ExportJob{UserID: "teacher-1", WeekStart: "2025-01-06", Format: "csv"}
	require.NoError(t, store.Create(context.Background(), job))

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 0}))
	requeued, err := store.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, requeued.Status)

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 3}))
	failed, err := store.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFailed, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
}

func TestExportJobDownloadRejectsBadToken(t *testing.T) {
	svc, _, _, _ := newExportJobFixture(t)

	_, err := svc.ResolveDownload(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
