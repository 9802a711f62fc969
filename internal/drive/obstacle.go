package drive

// Zone classifies a ranged distance against the obstacle band.
type Zone int

const (
	// ZoneInvalid is a failed measurement; the cycle is skipped.
	ZoneInvalid Zone = iota
	// ZoneCritical is at or inside the near bound. Motors stop.
	ZoneCritical
	// ZoneObstacle is inside the band. Motors slow down with distance.
	ZoneObstacle
	// ZoneClear is beyond the far bound.
	ZoneClear
)

func (z Zone) String() string {
	switch z {
	case ZoneInvalid:
		return "invalid"
	case ZoneCritical:
		return "critical"
	case ZoneObstacle:
		return "obstacle"
	case ZoneClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Band is the obstacle danger band in centimeters.
type Band struct {
	Near float64
	Far  float64
}

// DefaultBand is the 10..30 cm band of the ultrasonic sensor mount.
var DefaultBand = Band{Near: 10, Far: 30}

// Duty maps a distance linearly onto a duty percentage: DutyMax at Near,
// DutyStop at Far, clamped to [0, 100] outside the band.
func (b Band) Duty(distance float64) int {
	span := b.Far - b.Near
	if span <= 0 {
		return DutyStop
	}
	pct := int(DutyMax * (b.Far - distance) / span)
	if pct < DutyStop {
		return DutyStop
	}
	if pct > DutyMax {
		return DutyMax
	}
	return pct
}

// Classify places a distance in its zone. Negative distances are the
// ranger's no-reading sentinel and never count as a close obstacle.
func (b Band) Classify(distance float64) Zone {
	switch {
	case distance < 0:
		return ZoneInvalid
	case distance <= b.Near:
		return ZoneCritical
	case distance <= b.Far:
		return ZoneObstacle
	default:
		return ZoneClear
	}
}
