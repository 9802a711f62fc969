package hardware

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ADC reads an IIO voltage channel through sysfs.
type ADC struct {
	base string
	cfg  ADCConfig
}

func NewADC(base string, cfg ADCConfig) *ADC {
	if base == "" {
		base = DefaultIioSysfs
	}
	return &ADC{base: base, cfg: cfg}
}

func (a *ADC) rawPath() string {
	return filepath.Join(a.base, a.cfg.Device, fmt.Sprintf("in_voltage%d_raw", a.cfg.Channel))
}

func (a *ADC) scalePath() string {
	return filepath.Join(a.base, a.cfg.Device, "in_voltage_scale")
}

// ReadRaw returns the unscaled converter value.
func (a *ADC) ReadRaw() (int, error) {
	path := a.rawPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return -1, fmt.Errorf("ADC sysfs not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return -1, fmt.Errorf("failed reading %s: %w", path, err)
	}

	var value int
	if _, err := fmt.Sscanf(string(data), "%d", &value); err != nil {
		return -1, fmt.Errorf("failed parsing ADC value: %w", err)
	}
	return value, nil
}

// ReadMillivolts is raw times the IIO scale, which the kernel reports in mV.
// A channel without a scale attribute reads as raw millivolts.
func (a *ADC) ReadMillivolts() (float64, error) {
	raw, err := a.ReadRaw()
	if err != nil {
		return 0, err
	}

	scale := 1.0
	data, err := os.ReadFile(a.scalePath())
	switch {
	case err == nil:
		scale, err = strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
		if err != nil {
			return 0, fmt.Errorf("failed parsing ADC scale: %w", err)
		}
	case !os.IsNotExist(err):
		return 0, fmt.Errorf("failed reading %s: %w", a.scalePath(), err)
	}

	return float64(raw) * scale, nil
}
