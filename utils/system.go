package utils

import (
	"log"
	"strconv"

	"github.com/shirou/gopsutil/v3/cpu"
)

// GetOptimalWorkerCount determines how many extraction pipelines the batch
// task may run at once, based on config and system resources.
func GetOptimalWorkerCount(configValue string) int {
	// Manual override wins.
	if manualWorkers, err := strconv.Atoi(configValue); err == nil && manualWorkers > 0 {
		log.Printf("Using manually configured number of workers: %d", manualWorkers)
		return manualWorkers
	}

	if configValue != "auto" && configValue != "" {
		log.Printf("WARN: Invalid workers value '%s'. Defaulting to 'auto' mode.", configValue)
	}

	// Logical cores: each pipeline is mostly blocked on the model call and
	// the page fetch, so hyper-threading counts.
	cpuCores, err := cpu.Counts(true)
	if err != nil {
		log.Printf("WARN: Could not detect CPU cores. Falling back to default: %d workers.", 2)
		return 2
	}

	// Half the cores keeps headroom for a dynamic fetcher's browser
	// processes.
	optimalCount := cpuCores / 2
	if optimalCount < 1 {
		optimalCount = 1
	}
	if optimalCount > 8 {
		optimalCount = 8
	}

	log.Printf("System has %d logical cores. Automatically setting number of workers to: %d", cpuCores, optimalCount)
	return optimalCount
}
