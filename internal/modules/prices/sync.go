package prices

// SyncJob refreshes price snapshots for all held instruments on a cron
// schedule.
type SyncJob struct {
	service *Service
}

// NewSyncJob creates the scheduled price sync job
func NewSyncJob(service *Service) *SyncJob {
	return &SyncJob{service: service}
}

// Name returns the job name
func (j *SyncJob) Name() string {
	return "price_sync"
}

// Run refreshes every held symbol
func (j *SyncJob) Run() error {
	_, err := j.service.SyncAll()
	return err
}
