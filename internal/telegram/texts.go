package telegram

const (
	helpText = "👋 I check in on the campus portal for you every day.\n\n" +
		"/login <username> <password> - register (default time 17:30)\n" +
		"/checkin_at <HH:MM> - change the daily time\n" +
		"/info - show your settings\n" +
		"/checkin - check in right now\n" +
		"/skip - skip the next scheduled check-in\n" +
		"/no_skip - undo one /skip\n" +
		"/in_campus, /out_of_campus - set the on-campus flag\n" +
		"/delete - forget me\n" +
		"/schedule - run the scheduler now\n\n" +
		"📍 Send a location to update the reported address."
	deletedText = "🗑 Your record has been deleted."
	nowFmt      = "🕒 Now: %s"
)
