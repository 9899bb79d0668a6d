package world

func (w *World) audit(actor, action, target string, x, y int, version uint64, details map[string]any) {
	w.auditSeq++
	if w.auditLogger == nil {
		return
	}
	entry := AuditEntry{
		Seq:     w.auditSeq,
		TimeMs:  w.cfg.Now().UnixMilli(),
		Actor:   actor,
		Action:  action,
		Target:  target,
		X:       x,
		Y:       y,
		Version: version,
		Details: details,
	}
	if err := w.auditLogger.WriteAudit(entry); err != nil {
		w.log.WithError(err).WithField("action", action).Warn("write audit")
	}
}
