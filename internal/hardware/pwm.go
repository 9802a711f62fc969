package hardware

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// SysfsPWM drives one channel of a kernel PWM chip.
type SysfsPWM struct {
	base     string
	cfg      PWMConfig
	exported bool
}

func NewSysfsPWM(base string, cfg PWMConfig) *SysfsPWM {
	if base == "" {
		base = DefaultPwmSysfs
	}
	return &SysfsPWM{base: base, cfg: cfg}
}

func (p *SysfsPWM) chipDir() string {
	return filepath.Join(p.base, fmt.Sprintf("pwmchip%d", p.cfg.Chip))
}

func (p *SysfsPWM) channelDir() string {
	return filepath.Join(p.chipDir(), fmt.Sprintf("pwm%d", p.cfg.Channel))
}

// Init exports the channel, sets its period and enables it at 0% duty.
func (p *SysfsPWM) Init() error {
	if unix.Access(p.channelDir(), unix.F_OK) != nil {
		if err := writeAttr(filepath.Join(p.chipDir(), "export"), strconv.Itoa(p.cfg.Channel)); err != nil {
			return fmt.Errorf("export pwm%d: %w", p.cfg.Channel, err)
		}
		p.exported = true
		if err := p.waitChannel(); err != nil {
			return err
		}
	}

	if err := writeAttr(filepath.Join(p.channelDir(), "duty_cycle"), "0"); err != nil {
		return err
	}
	if err := writeAttr(filepath.Join(p.channelDir(), "period"), strconv.Itoa(p.cfg.PeriodNs)); err != nil {
		return err
	}
	return writeAttr(filepath.Join(p.channelDir(), "enable"), "1")
}

// udev may take a moment to create the channel directory after export.
func (p *SysfsPWM) waitChannel() error {
	for i := 0; i < 20; i++ {
		if unix.Access(filepath.Join(p.channelDir(), "duty_cycle"), unix.W_OK) == nil {
			return nil
		}
		time.Sleep(5 * time.Millisecond)
	}
	return fmt.Errorf("pwm channel %s did not appear", p.channelDir())
}

// SetDuty sets the duty cycle in percent, clamped to 0..100.
func (p *SysfsPWM) SetDuty(percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	ns := p.cfg.PeriodNs / 100 * percent
	return writeAttr(filepath.Join(p.channelDir(), "duty_cycle"), strconv.Itoa(ns))
}

func (p *SysfsPWM) Cleanup() error {
	_ = writeAttr(filepath.Join(p.channelDir(), "duty_cycle"), "0")
	_ = writeAttr(filepath.Join(p.channelDir(), "enable"), "0")
	if p.exported {
		return writeAttr(filepath.Join(p.chipDir(), "unexport"), strconv.Itoa(p.cfg.Channel))
	}
	return nil
}

func writeAttr(path, value string) error {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_TRUNC|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer unix.Close(fd)

	if _, err := unix.Write(fd, []byte(value)); err != nil {
		return fmt.Errorf("write %s=%s: %w", path, value, err)
	}
	return nil
}
