package zeealloc

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// newAllocatorLog builds the structured-logging entry for one Allocator
// instance, tagged with a UUID so log lines from several allocators in the
// same process (uncommon, but the type doesn't forbid it) can be told
// apart.
func newAllocatorLog(cfg Config) *logrus.Entry {
	log := logrus.StandardLogger()
	if cfg.Validation != ValidationDev {
		// Keep the hot path silent outside Dev builds.
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	return log.WithFields(logrus.Fields{
		"alloc_id":      uuid.New().String(),
		"page_size":     cfg.PageSize,
		"free_strategy": cfg.FreeStrategy.String(),
		"validation":    cfg.Validation.String(),
	})
}
