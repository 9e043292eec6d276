package manager

import "github.com/PeladoCollado/requester/types"

// SplitQuota partitions total requests across workers. Every worker gets
// total/workers and the first total%workers workers get one more, so the
// quotas always sum to total.
func SplitQuota(total uint64, workers int) []types.Quota {
	if workers <= 0 {
		return nil
	}
	quotas := make([]types.Quota, workers)
	perWorker := total / uint64(workers)
	remainder := total % uint64(workers)
	for i := range quotas {
		quotas[i].Requests = perWorker
		if uint64(i) < remainder {
			quotas[i].Requests++
		}
	}
	return quotas
}

// UnlimitedQuota gives every worker an open-ended quota for runs that only
// end on a stop signal.
func UnlimitedQuota(workers int) []types.Quota {
	if workers <= 0 {
		return nil
	}
	quotas := make([]types.Quota, workers)
	for i := range quotas {
		quotas[i].Unlimited = true
	}
	return quotas
}
