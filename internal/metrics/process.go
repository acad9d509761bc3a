package metrics

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats содержит метрики процесса, которые приложение пишет в периодический отчёт
type ProcessStats struct {
	StartTime time.Time
	proc      *process.Process
}

// ProcessSnapshot — значения метрик процесса в момент вызова Snapshot
type ProcessSnapshot struct {
	Uptime     string
	RSSMB      float64
	HeapMB     float64
	CPUPercent float64
	Goroutines int
}

// NewProcessStats создает метрики для текущего процесса
func NewProcessStats() (*ProcessStats, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("process stats: %w", err)
	}
	return &ProcessStats{
		StartTime: time.Now(),
		proc:      proc,
	}, nil
}

// GetUptime возвращает время работы процесса
func (ps *ProcessStats) GetUptime() string {
	uptime := time.Since(ps.StartTime)

	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	} else if hours > 0 {
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	} else {
		return fmt.Sprintf("%dс", seconds)
	}
}

// GetRSS возвращает резидентную память процесса в MB
func (ps *ProcessStats) GetRSS() (float64, error) {
	info, err := ps.proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return float64(info.RSS) / 1024 / 1024, nil
}

// GetHeapUsage возвращает размер кучи Go в MB
func (ps *ProcessStats) GetHeapUsage() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	// Преобразуем байты в мегабайты
	return float64(m.HeapAlloc) / 1024 / 1024
}

// GetCPUUsage возвращает использование CPU процессом в процентах
func (ps *ProcessStats) GetCPUUsage() (float64, error) {
	// Получаем процент использования CPU за время жизни процесса
	cpuPercent, err := ps.proc.CPUPercent()
	if err != nil {
		// Если не удалось получить метрику процесса, попробуем системную
		cpuPercents, err := cpu.Percent(100*time.Millisecond, false)
		if err != nil || len(cpuPercents) == 0 {
			return 0, err
		}
		return cpuPercents[0], nil
	}

	return cpuPercent, nil
}

// Snapshot собирает все метрики процесса. Недоступные значения остаются нулевыми.
func (ps *ProcessStats) Snapshot() ProcessSnapshot {
	snap := ProcessSnapshot{
		Uptime:     ps.GetUptime(),
		HeapMB:     ps.GetHeapUsage(),
		Goroutines: runtime.NumGoroutine(),
	}
	if rss, err := ps.GetRSS(); err == nil {
		snap.RSSMB = rss
	}
	if cpuPercent, err := ps.GetCPUUsage(); err == nil {
		snap.CPUPercent = cpuPercent
	}
	return snap
}
