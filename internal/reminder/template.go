package reminder

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sakif/postmuse/internal/clock"
	"github.com/sakif/postmuse/internal/model"
)

// Placeholders recognised in a reminder template.
const (
	PlaceholderPlatform        = "{{platform}}"
	PlaceholderReminderMinutes = "{{reminder_minutes}}"
	PlaceholderScheduleTime    = "{{schedule_time}}"
	PlaceholderContent         = "{{content}}"
)

// Template is a notification body with literal {{name}} placeholders.
// There is no escaping and no conditional syntax.
type Template struct {
	text string
}

func NewTemplate(text string) Template {
	return Template{text: text}
}

// LoadTemplate reads the template file. A missing file is an error.
func LoadTemplate(path string) (Template, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("reminder: reading template: %w", err)
	}
	return Template{text: string(b)}, nil
}

// Render fills the placeholders for one due post. The schedule time is
// shown in zone; a value that does not parse is shown as stored.
//
// Substitution is sequential, so placeholder text inside the platform is
// expanded by later steps. Content goes last and is never expanded.
func (t Template) Render(r model.DueReminder, zone clock.Zone) string {
	body := strings.ReplaceAll(t.text, PlaceholderPlatform, r.Platform)
	body = strings.ReplaceAll(body, PlaceholderReminderMinutes, strconv.Itoa(r.ReminderMinutes))
	body = strings.ReplaceAll(body, PlaceholderScheduleTime, zone.Display(r.ScheduleTime))
	return strings.ReplaceAll(body, PlaceholderContent, r.Content)
}
