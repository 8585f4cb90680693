package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/yasboss/storefront-backend/pkg/logger"
)

type stubUserLister struct {
	emails []string
	err    error
}

func (s *stubUserLister) ListUserEmails(context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.emails, nil
}

type stubAuditor struct {
	drifted  map[string]bool
	errByKey map[string]error
	checked  []string
}

func (s *stubAuditor) RecomputeBalance(_ context.Context, email string) (int, bool, error) {
	s.checked = append(s.checked, email)
	if err := s.errByKey[email]; err != nil {
		return 0, false, err
	}
	return 0, s.drifted[email], nil
}

func newLedgerJob(t *testing.T, users *stubUserLister, auditor *stubAuditor) Job {
	t.Helper()
	job, err := NewLedgerConsistencyJob(LedgerConsistencyJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "cron-test"}),
		Users:   users,
		Rewards: auditor,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	return job
}

func TestLedgerJobChecksEveryUser(t *testing.T) {
	users := &stubUserLister{emails: []string{"a@example.com", "b@example.com", "c@example.com"}}
	auditor := &stubAuditor{drifted: map[string]bool{"b@example.com": true}}
	job := newLedgerJob(t, users, auditor)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if len(auditor.checked) != 3 {
		t.Fatalf("expected all users checked, got %v", auditor.checked)
	}
}

func TestLedgerJobContinuesPastFailures(t *testing.T) {
	users := &stubUserLister{emails: []string{"a@example.com", "b@example.com"}}
	auditor := &stubAuditor{errByKey: map[string]error{"a@example.com": errors.New("db down")}}
	job := newLedgerJob(t, users, auditor)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatalf("expected aggregated failure")
	}
	if len(auditor.checked) != 2 {
		t.Fatalf("expected sweep to continue past the failure, got %v", auditor.checked)
	}
}

func TestLedgerJobFailsWhenListingFails(t *testing.T) {
	job := newLedgerJob(t, &stubUserLister{err: errors.New("db down")}, &stubAuditor{})
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected listing error to surface")
	}
}
