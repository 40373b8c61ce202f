package funds

import "context"

// RefreshJob re-scrapes the fund universe on a cron schedule
type RefreshJob struct {
	service *Service
}

// NewRefreshJob creates the scheduled fund refresh job
func NewRefreshJob(service *Service) *RefreshJob {
	return &RefreshJob{service: service}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "fund_refresh"
}

// Run forces a scrape and re-mirrors the rows
func (j *RefreshJob) Run() error {
	return j.service.Refresh(context.Background())
}
