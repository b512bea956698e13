package journal

import (
	"net/url"
	"strings"

	"voice-journal/backend/internal/models"
)

const (
	problemEmptyText   = "Entry text cannot be empty"
	problemAudio       = "Invalid audio file"
	problemMoodMissing = "Mood is required"
	problemMoodInvalid = "Mood must be one of happy, sad, angry, neutral, excited, calm"
	problemDuration    = "Duration cannot be negative"
	problemEmptyUpdate = "Nothing to update"
	problemTextTooLong = "Entry text is too long"
	maxTextLength      = 100_000
)

func ValidateNew(in models.NewEntry) error {
	v := &ValidationError{}
	validateText(v, in.Text)
	if !ValidAudioURI(in.AudioURI) {
		v.add(problemAudio)
	}
	validateMood(v, in.Mood)
	if in.Duration < 0 {
		v.add(problemDuration)
	}
	return v.orNil()
}

func ValidateUpdate(update models.EntryUpdate) error {
	v := &ValidationError{}
	if update.Empty() {
		v.add(problemEmptyUpdate)
		return v
	}
	if update.Text != nil {
		validateText(v, *update.Text)
	}
	if update.Mood != nil {
		validateMood(v, *update.Mood)
	}
	return v.orNil()
}

// ValidAudioURI accepts file URIs with a path and http(s) URLs with a host.
func ValidAudioURI(uri string) bool {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "file":
		return u.Path != ""
	case "http", "https":
		return u.Host != ""
	default:
		return false
	}
}

func validateText(v *ValidationError, text string) {
	switch {
	case strings.TrimSpace(text) == "":
		v.add(problemEmptyText)
	case len(text) > maxTextLength:
		v.add(problemTextTooLong)
	}
}

func validateMood(v *ValidationError, mood models.Mood) {
	switch {
	case mood == "":
		v.add(problemMoodMissing)
	case !mood.Valid():
		v.add(problemMoodInvalid)
	}
}
