package templates

import (
	"time"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithAddress(cep, city, state string) Option {
	return func(d *EmailData) { d.Cep, d.City, d.State = cep, city, state }
}

func WithChanges(ch map[string]string) Option {
	return func(d *EmailData) { d.Changes = ch }
}

func newBaseEmailData(appName, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{Name: name, Email: email, Type: typ, AppName: appName}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(appName, name, email string, opts ...Option) map[string]any {
	return ToMap(newBaseEmailData(appName, Welcome, name, email, opts...))
}

func NewProfileUpdatedData(appName, name, email string, changes map[string]string, opts ...Option) map[string]any {
	opts = append([]Option{WithChanges(changes)}, opts...)
	return ToMap(newBaseEmailData(appName, ProfileUpdated, name, email, opts...))
}
