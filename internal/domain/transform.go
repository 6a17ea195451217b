package domain

// The functions below are the only way records change. Each takes the
// current record by value and returns the updated copy.

// NewRegistration builds a fresh record for a successful /login.
// Any previous record for the chat is replaced entirely.
func NewRegistration(chatID int64, username, password string) UserRecord {
	r := UserRecord{
		Username:      username,
		Password:      password,
		ChatID:        chatID,
		CheckinHour:   DefaultCheckinHour,
		CheckinMinute: DefaultCheckinMinute,
		SkipCount:     0,
		InCampus:      true,
	}
	return WithPlace(r, DefaultPlace)
}

// WithCheckinTime sets the daily check-in time. ct is valid by construction.
func WithCheckinTime(r UserRecord, ct CheckinTime) UserRecord {
	r.CheckinHour = ct.Hour()
	r.CheckinMinute = ct.Minute()
	return r
}

// WithSkip reserves one more skipped window.
func WithSkip(r UserRecord) UserRecord {
	r.SkipCount++
	return r
}

// WithoutSkip releases one skipped window; no-op at zero.
func WithoutSkip(r UserRecord) UserRecord {
	if r.SkipCount > 0 {
		r.SkipCount--
	}
	return r
}

// ConsumeSkip is applied by the sweep when a skipped window is reached.
func ConsumeSkip(r UserRecord) UserRecord {
	return WithoutSkip(r)
}

// WithCampus sets the on-campus declaration flag.
func WithCampus(r UserRecord, inCampus bool) UserRecord {
	r.InCampus = inCampus
	return r
}

// WithPlace overwrites every location field.
func WithPlace(r UserRecord, p Place) UserRecord {
	r.Province = p.Province
	r.City = p.City
	r.Area = p.Area
	r.Address = p.Address
	r.Location = p.Location
	return r
}

// WithHandledWindow records that the sweep acted on the window key.
func WithHandledWindow(r UserRecord, key string) UserRecord {
	r.LastWindow = key
	return r
}

// Masked returns a copy safe to echo back to the chat.
func Masked(r UserRecord) UserRecord {
	if r.Password != "" {
		r.Password = "******"
	}
	return r
}
