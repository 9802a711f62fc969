package hardware

import (
	"fmt"
	"os"
	"sync"
)

// CharLCD writes to a charlcd device node. A form feed clears the display
// and homes the cursor; a newline moves to the second row.
type CharLCD struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

func NewCharLCD(path string) *CharLCD {
	return &CharLCD{path: path}
}

func (d *CharLCD) Open() error {
	f, err := os.OpenFile(d.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open display %s: %w", d.path, err)
	}
	d.f = f
	return nil
}

func (d *CharLCD) Print(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return fmt.Errorf("display %s not open", d.path)
	}
	if _, err := d.f.WriteString("\f" + text); err != nil {
		return fmt.Errorf("failed writing display: %w", err)
	}
	return nil
}

func (d *CharLCD) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}
