package app

import (
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-insights/internal/behavior"
)

// runInitialScan runs one scan at startup so results exist before the
// first scheduled tick.
func (a *App) runInitialScan() {
	defer a.wg.Done()

	report, err := a.scanner.RunOnce(a.ctx)
	if err != nil {
		if !errors.Is(err, a.ctx.Err()) {
			a.logger.Error("initial-scan-failed", zap.Error(err))
		}
		return
	}

	a.logger.Info("initial-scan-complete",
		zap.Int("markets", report.Markets),
		zap.Int("divergent-pairs", report.Divergent),
		zap.Strings("top-clusters", topClusters(report.Clusters, 3)))
}

// topClusters returns up to n clusters with the most markets.
func topClusters(counts map[behavior.Cluster]int, n int) []string {
	clusters := make([]behavior.Cluster, 0, len(counts))
	for c := range counts {
		clusters = append(clusters, c)
	}
	sort.Slice(clusters, func(i, j int) bool {
		if counts[clusters[i]] != counts[clusters[j]] {
			return counts[clusters[i]] > counts[clusters[j]]
		}
		return clusters[i] < clusters[j]
	})

	if len(clusters) > n {
		clusters = clusters[:n]
	}

	out := make([]string, len(clusters))
	for i, c := range clusters {
		out[i] = string(c)
	}
	return out
}
