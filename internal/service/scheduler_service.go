// internal/service/scheduler_service.go
package service

import (
	"log"
	"time"

	"github.com/pikarlabs/campaign-dispatch/internal/queue"
	"github.com/pikarlabs/campaign-dispatch/internal/repository"
)

// SchedulerService runs the periodic reservation scan. Each scan atomically
// claims due campaigns (scheduled -> queued) and hands their ids to the
// dispatch queue. The claim itself is the exactly-once mechanism: a campaign
// reserved here can never be reserved by another concurrent scan.
type SchedulerService struct {
	Campaigns    repository.CampaignRepositoryInterface
	Queue        queue.Queue
	ReserveLimit int
	StaleAfter   time.Duration
}

// RunScan reserves up to ReserveLimit due campaigns and publishes each for
// dispatch. A campaign that is reserved but fails to publish stays queued;
// there is no automatic retry for it here.
func (s *SchedulerService) RunScan(now time.Time) ([]int, error) {
	ids, err := s.Campaigns.ReserveDue(now, s.ReserveLimit)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		if err := s.Queue.Publish(queue.DispatchTopic, id); err != nil {
			log.Println("⚠️ failed to enqueue reserved campaign", id, ":", err)
		}
	}

	if len(ids) > 0 {
		log.Println("📤 Reserved", len(ids), "due campaigns")
	}
	return ids, nil
}

// SweepStale fails campaigns stuck in "sending" since before now-StaleAfter.
// A zero StaleAfter disables the sweep.
func (s *SchedulerService) SweepStale(now time.Time) error {
	if s.StaleAfter <= 0 {
		return nil
	}
	n, err := s.Campaigns.FailStaleSending(now.Add(-s.StaleAfter))
	if err != nil {
		return err
	}
	if n > 0 {
		log.Println("⚠️ Failed", n, "campaigns stuck in sending")
	}
	return nil
}
