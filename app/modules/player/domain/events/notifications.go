package gameevents

// NotificationKind selects an outbound notification subject. Notifications
// are informational and best-effort.
type NotificationKind string

const (
	NotifyKill       NotificationKind = "kill"
	NotifySuicide    NotificationKind = "suicide"
	NotifyTeamkill   NotificationKind = "teamkill"
	NotifyConnect    NotificationKind = "connect"
	NotifyDisconnect NotificationKind = "disconnect"
)

// AllNotificationKinds returns the kinds the notifier can gate.
func AllNotificationKinds() []NotificationKind {
	return []NotificationKind{NotifyKill, NotifySuicide, NotifyTeamkill, NotifyConnect, NotifyDisconnect}
}

// Subject returns the versioned notify subject, e.g. game.notify.kill.v1.
func (k NotificationKind) Subject() string {
	return NotifySubjectPrefix + string(k) + ".v1"
}

func (k NotificationKind) String() string { return string(k) }
