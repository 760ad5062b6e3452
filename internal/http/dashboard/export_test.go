package dashboard

import "time"

func (h *Handler) SetNow(now func() time.Time) { h.now = now }
