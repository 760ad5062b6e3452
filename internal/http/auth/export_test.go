package auth

import "time"

func (t *Tokens) SetClock(now func() time.Time) { t.now = now }
