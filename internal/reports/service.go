// Package reports stores water quality reports filed from the client.
//
// Report contents are sealed with the same at-rest encryption as the
// credential store, bound to the report id. Only the id, the review status
// and the creation time are kept in clear, so that listings can be filtered
// and counted without opening every payload.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/waterwatch/internal/cryptox"
	"github.com/dmitrijs2005/waterwatch/internal/logging"
	"github.com/google/uuid"
)

const dateLayout = "02/01/2006"

type Service interface {
	// Submit validates r, assigns its id, status and creation time, and
	// stores it. The stored report is returned.
	Submit(ctx context.Context, r Report) (*Report, error)
	Get(ctx context.Context, id string) (*Report, error)
	// List returns all reports, newest first.
	List(ctx context.Context) ([]*Report, error)
	ListByStatus(ctx context.Context, status Status) ([]*Report, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

type reportService struct {
	repo   Repository
	sealer *cryptox.Sealer
	log    logging.Logger
	now    func() time.Time
	newID  func() string
}

func NewService(repo Repository, sealer *cryptox.Sealer, log logging.Logger) Service {
	return &reportService{
		repo:   repo,
		sealer: sealer,
		log:    log.With("component", "reports"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *reportService) Submit(ctx context.Context, r Report) (*Report, error) {
	if err := Validate(&r); err != nil {
		return nil, err
	}

	r.ID = s.newID()
	r.Status = StatusPending
	r.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	if r.Date == "" {
		r.Date = r.CreatedAt.Format(dateLayout)
	}

	payload, nonce, err := s.sealer.SealEntry(r, []byte(r.ID))
	if err != nil {
		return nil, fmt.Errorf("encryption error: %w", err)
	}

	row := &Row{
		ID:        r.ID,
		Status:    r.Status,
		CreatedAt: r.CreatedAt.UnixMilli(),
		Payload:   payload,
		Nonce:     nonce,
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}

	s.log.Info(ctx, "report submitted", "id", r.ID, "source_type", r.Source.Type)
	return &r, nil
}

func (s *reportService) open(row *Row) (*Report, error) {
	var r Report
	if err := s.sealer.OpenEntry(row.Payload, row.Nonce, []byte(row.ID), &r); err != nil {
		return nil, fmt.Errorf("error decrypting report %s: %w", row.ID, err)
	}
	r.ID = row.ID
	r.Status = row.Status
	r.CreatedAt = time.UnixMilli(row.CreatedAt).UTC()
	return &r, nil
}

func (s *reportService) Get(ctx context.Context, id string) (*Report, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving report: %w", err)
	}
	return s.open(row)
}

func (s *reportService) List(ctx context.Context) ([]*Report, error) {
	return s.list(ctx, "")
}

func (s *reportService) ListByStatus(ctx context.Context, status Status) ([]*Report, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}
	return s.list(ctx, status)
}

// list skips rows that fail to open and logs them.
func (s *reportService) list(ctx context.Context, status Status) ([]*Report, error) {
	rows, err := s.repo.GetAll(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("error retrieving reports: %w", err)
	}

	result := make([]*Report, 0, len(rows))
	for _, row := range rows {
		r, err := s.open(row)
		if err != nil {
			s.log.Warn(ctx, "skipping unreadable report", "id", row.ID, "error", err)
			continue
		}
		result = append(result, r)
	}
	return result, nil
}

func (s *reportService) UpdateStatus(ctx context.Context, id string, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("error updating report: %w", err)
	}
	s.log.Info(ctx, "report status changed", "id", id, "status", status)
	return nil
}

func (s *reportService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("error deleting report: %w", err)
	}
	s.log.Info(ctx, "report deleted", "id", id)
	return nil
}

func (s *reportService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx, "")
}

// CountByStatus returns a count for every status, zero included.
func (s *reportService) CountByStatus(ctx context.Context) (map[Status]int, error) {
	counts := make(map[Status]int, len(Statuses))
	for _, st := range Statuses {
		n, err := s.repo.Count(ctx, st)
		if err != nil {
			return nil, err
		}
		counts[st] = n
	}
	return counts, nil
}
