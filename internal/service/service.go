package service

import (
	"time"

	"github.com/zenith-events/zenith/internal/domain"
)

type Clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock used outside tests.
var SystemClock Clock = realClock{}

func isAdmin(role domain.Role) bool     { return role == domain.RoleAdmin }
func isOrganizer(role domain.Role) bool { return role == domain.RoleOrganizer }
