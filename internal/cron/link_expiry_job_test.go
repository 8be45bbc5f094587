package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/rentiva/rentiva-backend/pkg/logger"
)

func TestLinkExpiryJobRunsSweep(t *testing.T) {
	sweeper := &fakeLinkSweeper{expiredRows: 7}
	job := newLinkExpiryJob(t, sweeper)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sweeper.called != 1 {
		t.Fatalf("expected sweep called once, got %d", sweeper.called)
	}
}

func TestLinkExpiryJobPropagatesErrors(t *testing.T) {
	sweeper := &fakeLinkSweeper{err: errors.New("boom")}
	job := newLinkExpiryJob(t, sweeper)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestLinkExpiryJobValidatesParams(t *testing.T) {
	if _, err := NewLinkExpiryJob(LinkExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
	}); err == nil {
		t.Fatal("expected error without a payments service")
	}
	if _, err := NewLinkExpiryJob(LinkExpiryJobParams{
		Payments: &fakeLinkSweeper{},
	}); err == nil {
		t.Fatal("expected error without a logger")
	}
}

func newLinkExpiryJob(t *testing.T, sweeper *fakeLinkSweeper) Job {
	t.Helper()
	job, err := NewLinkExpiryJob(LinkExpiryJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Payments: sweeper,
	})
	if err != nil {
		t.Fatalf("NewLinkExpiryJob: %v", err)
	}
	return job
}

type fakeLinkSweeper struct {
	expiredRows int64
	err         error
	called      int
}

func (f *fakeLinkSweeper) ExpireStaleLinks(ctx context.Context) (int64, error) {
	f.called++
	if f.err != nil {
		return 0, f.err
	}
	return f.expiredRows, nil
}
